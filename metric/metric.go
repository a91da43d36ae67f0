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

// Package metric scores a factorization against held-out ratings.
package metric

import (
	"context"
	"math"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gorse-io/refit/common/parallel"
	"github.com/gorse-io/refit/model"
	"github.com/gorse-io/refit/rating"
	"github.com/juju/errors"
)

// ErrEmptyHeldOut reports that no held-out pair is available to score.
var ErrEmptyHeldOut = errors.New("empty held-out data")

// AUC is the mean over users of the fraction of correctly ordered pairs, where
// a pair joins one held-out item of the user with one candidate item the user
// never interacted with. Candidates come from the model's item set. Users
// contributing no pair are skipped; a model whose item set is covered by every
// user's positives scores 0.
func AUC(ctx context.Context, m *model.Factorization, heldOut []rating.Aggregated, jobs int) (float64, error) {
	if len(heldOut) == 0 {
		return 0, errors.Trace(ErrEmptyHeldOut)
	}
	// positive sets per user
	positives := make(map[int32]mapset.Set[int32])
	users := make([]int32, 0)
	for _, r := range heldOut {
		set, exist := positives[r.User]
		if !exist {
			set = mapset.NewSet[int32]()
			positives[r.User] = set
			users = append(users, r.User)
		}
		set.Add(r.Item)
	}
	// candidate universe
	items := make([]int32, 0, len(m.ItemFactors))
	for id := range m.ItemFactors {
		items = append(items, id)
	}
	// per-worker partial sums
	if jobs <= 0 {
		jobs = 1
	}
	sums := make([]float64, jobs)
	counts := make([]float64, jobs)
	err := parallel.Parallel(ctx, len(users), jobs, func(workerId, jobId int) error {
		user := users[jobId]
		positiveSet := positives[user]
		predictions := make([]float64, len(items))
		for i, item := range items {
			predictions[i] = m.Predict(user, item)
		}
		correctCount, pairCount := 0.0, 0.0
		for _, positive := range positiveSet.ToSlice() {
			positiveScore := m.Predict(user, positive)
			for i, item := range items {
				if !positiveSet.Contains(item) {
					// I(x_ui > x_uj)
					if positiveScore > predictions[i] {
						correctCount++
					}
					pairCount++
				}
			}
		}
		if pairCount > 0 {
			sums[workerId] += correctCount / pairCount
			counts[workerId]++
		}
		return nil
	})
	if err != nil {
		return 0, errors.Trace(err)
	}
	sum, userCount := 0.0, 0.0
	for i := 0; i < jobs; i++ {
		sum += sums[i]
		userCount += counts[i]
	}
	if userCount == 0 {
		return 0, nil
	}
	return sum / userCount, nil
}

// RMSE is the root mean squared error over the scorable intersection of the
// held-out pairs: pairs whose user or item has no factor vector are skipped.
// ErrEmptyHeldOut is returned when nothing is scorable.
func RMSE(m *model.Factorization, heldOut []rating.Aggregated) (float64, error) {
	if len(heldOut) == 0 {
		return 0, errors.Trace(ErrEmptyHeldOut)
	}
	sum, count := 0.0, 0.0
	for _, r := range heldOut {
		if _, exist := m.UserFactors[r.User]; !exist {
			continue
		}
		if _, exist := m.ItemFactors[r.Item]; !exist {
			continue
		}
		err := m.Predict(r.User, r.Item) - r.Score
		sum += err * err
		count++
	}
	if count == 0 {
		return 0, errors.Trace(ErrEmptyHeldOut)
	}
	return math.Sqrt(sum / count), nil
}
