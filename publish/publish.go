// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package publish

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/gorse-io/refit/base/log"
	"github.com/gorse-io/refit/codec"
	"github.com/gorse-io/refit/rating"
	"github.com/gorse-io/refit/storage/blob"
	"github.com/gorse-io/refit/storage/queue"
)

// UpdateKey labels model update records on the queue.
const UpdateKey = "UP"

// Roles of published records. X carries user factors, Y item factors.
const (
	RoleUser = "X"
	RoleItem = "Y"
)

// Publisher streams decoded factor vectors to downstream consumers.
type Publisher struct {
	Queue             queue.Queue
	Topic             string
	IncludeKnownItems bool
	IncludeKnownUsers bool
}

// PublishModel emits one record per user factor followed by one per item
// factor, in descriptor id order. Each record is the JSON array
// [role, id, vector], extended with the sorted known id set when the side
// channel attaches. The known indices are rebuilt from the full window on
// every publish, so deleted pairs still count as known.
func (p *Publisher) PublishModel(ctx context.Context, store blob.Store, descriptorPath string, window []rating.Rating) error {
	m, descriptor, err := codec.Decode(store, descriptorPath)
	if err != nil {
		return errors.Trace(err)
	}
	var knownItems, knownUsers map[int32]mapset.Set[int32]
	if p.IncludeKnownItems {
		knownItems = rating.KnownItems(window)
	}
	if p.IncludeKnownUsers {
		knownUsers = rating.KnownUsers(window)
	}
	// Timestamps increase by a nanosecond per record so queue order follows
	// publish order.
	timestamp := time.Now().UTC()
	for _, id := range descriptor.XIDs {
		if err = p.push(ctx, RoleUser, id, m.UserFactors[id], knownItems[id], timestamp); err != nil {
			return errors.Trace(err)
		}
		timestamp = timestamp.Add(time.Nanosecond)
	}
	for _, id := range descriptor.YIDs {
		if err = p.push(ctx, RoleItem, id, m.ItemFactors[id], knownUsers[id], timestamp); err != nil {
			return errors.Trace(err)
		}
		timestamp = timestamp.Add(time.Nanosecond)
	}
	log.Logger().Info("published model",
		zap.String("descriptor", descriptorPath),
		zap.String("topic", p.Topic),
		zap.Int("users", len(descriptor.XIDs)),
		zap.Int("items", len(descriptor.YIDs)))
	return nil
}

func (p *Publisher) push(ctx context.Context, role string, id int32, vector []float64, knowns mapset.Set[int32], timestamp time.Time) error {
	if err := ctx.Err(); err != nil {
		return errors.Trace(err)
	}
	record := []interface{}{role, id, vector}
	if knowns != nil {
		ids := knowns.ToSlice()
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		record = append(record, ids)
	}
	data, err := json.Marshal(record)
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(p.Queue.Push(p.Topic, queue.Message{
		Key:       UpdateKey,
		Data:      string(data),
		Timestamp: timestamp,
	}))
}
