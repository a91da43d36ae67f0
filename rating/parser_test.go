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

func TestParseCSV(t *testing.T) {
	r, err := Parse("1,10,4.0,100")
	assert.NoError(t, err)
	assert.Equal(t, Rating{User: 1, Item: 10, Score: Value(4), Timestamp: 100}, r)

	// empty score field means delete
	r, err = Parse("1,10,,200")
	assert.NoError(t, err)
	assert.True(t, r.Score.IsDelete())
	assert.Equal(t, int64(200), r.Timestamp)

	// legacy NaN encoding of a delete
	r, err = Parse("1,10,NaN,200")
	assert.NoError(t, err)
	assert.True(t, r.Score.IsDelete())
}

func TestParseJSONArray(t *testing.T) {
	r, err := Parse(`["1","10","4.0","100"]`)
	assert.NoError(t, err)
	assert.Equal(t, Rating{User: 1, Item: 10, Score: Value(4), Timestamp: 100}, r)

	// numeric elements are accepted
	r, err = Parse(`[1,10,4.5,100]`)
	assert.NoError(t, err)
	assert.Equal(t, Rating{User: 1, Item: 10, Score: Value(4.5), Timestamp: 100}, r)

	// empty score element means delete
	r, err = Parse(`["1","10","","100"]`)
	assert.NoError(t, err)
	assert.True(t, r.Score.IsDelete())
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse("1,10,4.0")
	assert.ErrorIs(t, err, ErrMalformedRecord)
	_, err = Parse("1,10,4.0,100,extra")
	assert.ErrorIs(t, err, ErrMalformedRecord)
	_, err = Parse(`["1","10","4.0"]`)
	assert.ErrorIs(t, err, ErrMalformedRecord)
	_, err = Parse(`[1,10,4.0,100`)
	assert.ErrorIs(t, err, ErrMalformedRecord)
	_, err = Parse("one,10,4.0,100")
	assert.ErrorIs(t, err, ErrMalformedRecord)
	_, err = Parse("1,ten,4.0,100")
	assert.ErrorIs(t, err, ErrMalformedRecord)
	_, err = Parse("1,10,four,100")
	assert.ErrorIs(t, err, ErrMalformedRecord)
	_, err = Parse("1,10,4.0,now")
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestParseAll(t *testing.T) {
	lines := []string{"1,10,4.0,100", "not a record", "2,20,3.0,150"}
	// fail the batch
	_, err := ParseAll(lines, false)
	assert.ErrorIs(t, err, ErrMalformedRecord)
	// skip malformed records
	ratings, err := ParseAll(lines, true)
	assert.NoError(t, err)
	assert.Equal(t, []Rating{
		{User: 1, Item: 10, Score: Value(4), Timestamp: 100},
		{User: 2, Item: 20, Score: Value(3), Timestamp: 150},
	}, ratings)
}
