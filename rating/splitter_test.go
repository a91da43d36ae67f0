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

func TestSplitByTime(t *testing.T) {
	ratings := []Rating{
		{User: 1, Item: 10, Score: Value(4), Timestamp: 100},
		{User: 1, Item: 10, Score: Delete(), Timestamp: 200},
		{User: 2, Item: 20, Score: Value(3), Timestamp: 150},
	}
	// the boundary is 100 + 0.5*(200-100) = 150 and events at the boundary
	// are held out
	train, heldOut := SplitByTime(ratings, 0.5)
	assert.Equal(t, []Rating{
		{User: 1, Item: 10, Score: Value(4), Timestamp: 100},
	}, train)
	assert.Equal(t, []Rating{
		{User: 1, Item: 10, Score: Delete(), Timestamp: 200},
		{User: 2, Item: 20, Score: Value(3), Timestamp: 150},
	}, heldOut)
}

func TestSplitByTimeDegenerate(t *testing.T) {
	// equal timestamps collapse the boundary onto every event
	ratings := []Rating{
		{User: 1, Item: 10, Score: Value(4), Timestamp: 100},
		{User: 2, Item: 20, Score: Value(3), Timestamp: 100},
	}
	train, heldOut := SplitByTime(ratings, 0.5)
	assert.Empty(t, train)
	assert.Equal(t, ratings, heldOut)
}

func TestSplitByTimeEmpty(t *testing.T) {
	train, heldOut := SplitByTime(nil, 0.5)
	assert.Nil(t, train)
	assert.Nil(t, heldOut)
}
