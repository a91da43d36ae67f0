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

package rating

import (
	"sort"
)

type pair struct {
	user int32
	item int32
}

// Aggregate combines repeated events for the same user-item pair into one net
// score. Events are combined in slice order, so callers supply the order,
// usually timestamp ascending via SortByTimestamp.
//
// In implicit mode scores are summed: a delete wipes the accumulated score and
// a fresh value arriving after a delete restarts the sum. In explicit mode the
// last event wins, deletes included. Pairs whose final state is a delete are
// omitted from the output.
func Aggregate(ratings []Rating, implicit bool) []Aggregated {
	scores := make(map[pair]Score)
	for _, r := range ratings {
		key := pair{user: r.User, item: r.Item}
		previous, exist := scores[key]
		if !exist || !implicit {
			scores[key] = r.Score
		} else {
			scores[key] = sumScores(previous, r.Score)
		}
	}
	aggregated := make([]Aggregated, 0, len(scores))
	for key, score := range scores {
		if !score.IsDelete() {
			aggregated = append(aggregated, Aggregated{
				User:  key.user,
				Item:  key.item,
				Score: score.Float(),
			})
		}
	}
	// deterministic output order
	sort.Slice(aggregated, func(i, j int) bool {
		if aggregated[i].User != aggregated[j].User {
			return aggregated[i].User < aggregated[j].User
		}
		return aggregated[i].Item < aggregated[j].Item
	})
	return aggregated
}

// sumScores is the implicit mode combiner. A delete on the right wipes the
// accumulated score, while an accumulated delete followed by a fresh value
// restarts the sum at that value.
func sumScores(accumulated, next Score) Score {
	if next.IsDelete() {
		return Delete()
	}
	if accumulated.IsDelete() {
		return next
	}
	return Value(accumulated.Float() + next.Float())
}
