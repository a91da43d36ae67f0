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

// Package rating holds the event types of the update pipeline and the batch
// transformations applied to them: parsing, score aggregation, time-based
// train/test splitting and known-id indexing.
package rating

import (
	"sort"
)

// Score is either a rating value or a deletion marker for a user-item pair.
type Score struct {
	value  float64
	delete bool
}

// Value returns a score carrying a rating value.
func Value(v float64) Score {
	return Score{value: v}
}

// Delete returns a score marking the user-item association as deleted.
func Delete() Score {
	return Score{delete: true}
}

// IsDelete reports whether the score is a deletion marker.
func (s Score) IsDelete() bool {
	return s.delete
}

// Float returns the rating value. Deletion markers have no value and return 0.
func (s Score) Float() float64 {
	if s.delete {
		return 0
	}
	return s.value
}

// Rating is one feedback event.
type Rating struct {
	User      int32
	Item      int32
	Score     Score
	Timestamp int64
}

// Aggregated is the net score of one user-item pair after combining all events
// for that pair within a batch. Deleted pairs never appear as Aggregated.
type Aggregated struct {
	User  int32
	Item  int32
	Score float64
}

// SortByTimestamp sorts ratings by timestamp ascending. The sort is stable so
// that events sharing a timestamp keep their arrival order.
func SortByTimestamp(ratings []Rating) {
	sort.SliceStable(ratings, func(i, j int) bool {
		return ratings[i].Timestamp < ratings[j].Timestamp
	})
}
