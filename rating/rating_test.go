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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	v := Value(4.5)
	assert.False(t, v.IsDelete())
	assert.Equal(t, 4.5, v.Float())

	d := Delete()
	assert.True(t, d.IsDelete())
	assert.Equal(t, 0.0, d.Float())

	// a zero value is a rating, not a delete
	z := Value(0)
	assert.False(t, z.IsDelete())
	assert.Equal(t, 0.0, z.Float())
}

func TestSortByTimestamp(t *testing.T) {
	ratings := []Rating{
		{User: 1, Item: 10, Score: Value(1), Timestamp: 300},
		{User: 2, Item: 20, Score: Value(2), Timestamp: 100},
		{User: 3, Item: 30, Score: Value(3), Timestamp: 200},
		{User: 4, Item: 40, Score: Value(4), Timestamp: 100},
	}
	SortByTimestamp(ratings)
	assert.Equal(t, []int64{100, 100, 200, 300}, []int64{
		ratings[0].Timestamp, ratings[1].Timestamp, ratings[2].Timestamp, ratings[3].Timestamp,
	})
	// equal timestamps keep their arrival order
	assert.Equal(t, int32(2), ratings[0].User)
	assert.Equal(t, int32(4), ratings[1].User)
}
