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

func TestKnownItems(t *testing.T) {
	ratings := []Rating{
		{User: 1, Item: 10, Score: Value(4), Timestamp: 100},
		{User: 1, Item: 20, Score: Value(3), Timestamp: 200},
		{User: 2, Item: 10, Score: Value(5), Timestamp: 300},
		// deleted pairs still count as known
		{User: 1, Item: 20, Score: Delete(), Timestamp: 400},
	}
	knowns := KnownItems(ratings)
	assert.Len(t, knowns, 2)
	assert.ElementsMatch(t, []int32{10, 20}, knowns[1].ToSlice())
	assert.ElementsMatch(t, []int32{10}, knowns[2].ToSlice())
}

func TestKnownUsers(t *testing.T) {
	ratings := []Rating{
		{User: 1, Item: 10, Score: Value(4), Timestamp: 100},
		{User: 2, Item: 10, Score: Delete(), Timestamp: 200},
		{User: 2, Item: 20, Score: Value(3), Timestamp: 300},
	}
	knowns := KnownUsers(ratings)
	assert.Len(t, knowns, 2)
	assert.ElementsMatch(t, []int32{1, 2}, knowns[10].ToSlice())
	assert.ElementsMatch(t, []int32{2}, knowns[20].ToSlice())
}
