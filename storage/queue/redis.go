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

package queue

import (
	"context"
	"io"
	"strconv"
	"time"

	"github.com/juju/errors"
	"github.com/redis/go-redis/v9"
)

// Redis stores each queue as a stream. Entries keep insertion order, which
// is the order messages were pushed in.
type Redis struct {
	client *redis.Client
}

func NewRedis(path string) (*Redis, error) {
	opt, err := redis.ParseURL(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &Redis{client: redis.NewClient(opt)}, nil
}

func (r *Redis) Init() error {
	return errors.Trace(r.client.Ping(context.Background()).Err())
}

func (r *Redis) Push(name string, message Message) error {
	err := r.client.XAdd(context.Background(), &redis.XAddArgs{
		Stream: name,
		Values: map[string]interface{}{
			"key":       message.Key,
			"data":      message.Data,
			"timestamp": message.Timestamp.UTC().UnixNano(),
		},
	}).Err()
	return errors.Trace(err)
}

func (r *Redis) Pop(name string) (Message, error) {
	ctx := context.Background()
	entries, err := r.client.XRangeN(ctx, name, "-", "+", 1).Result()
	if err != nil {
		return Message{}, errors.Trace(err)
	}
	if len(entries) == 0 {
		return Message{}, io.EOF
	}
	entry := entries[0]
	if err = r.client.XDel(ctx, name, entry.ID).Err(); err != nil {
		return Message{}, errors.Trace(err)
	}
	var message Message
	if v, ok := entry.Values["key"].(string); ok {
		message.Key = v
	}
	if v, ok := entry.Values["data"].(string); ok {
		message.Data = v
	}
	if v, ok := entry.Values["timestamp"].(string); ok {
		nano, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Message{}, errors.Trace(err)
		}
		message.Timestamp = time.Unix(0, nano).UTC()
	}
	return message, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
