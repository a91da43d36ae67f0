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
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/gorse-io/refit/base/log"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// ErrMalformedRecord reports a record that does not decode to exactly four
// fields, or whose fields fail numeric conversion.
var ErrMalformedRecord = errors.New("malformed rating record")

// Parse converts one raw record into a Rating. Records ending with ']' are
// decoded as a JSON array of four elements, anything else is split on commas.
// An empty score field means the user-item association is deleted.
func Parse(line string) (Rating, error) {
	var fields []string
	if strings.HasSuffix(line, "]") {
		var err error
		if fields, err = parseArray(line); err != nil {
			return Rating{}, err
		}
	} else {
		fields = strings.Split(line, ",")
	}
	if len(fields) != 4 {
		return Rating{}, errors.Annotatef(ErrMalformedRecord, "expect 4 fields in %q", line)
	}
	user, err := strconv.ParseInt(fields[0], 10, 32)
	if err != nil {
		return Rating{}, errors.Annotatef(ErrMalformedRecord, "user id in %q", line)
	}
	item, err := strconv.ParseInt(fields[1], 10, 32)
	if err != nil {
		return Rating{}, errors.Annotatef(ErrMalformedRecord, "item id in %q", line)
	}
	score := Delete()
	if fields[2] != "" {
		value, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return Rating{}, errors.Annotatef(ErrMalformedRecord, "score in %q", line)
		}
		// A literal NaN is the legacy encoding of a delete.
		if !math.IsNaN(value) {
			score = Value(value)
		}
	}
	timestamp, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return Rating{}, errors.Annotatef(ErrMalformedRecord, "timestamp in %q", line)
	}
	return Rating{
		User:      int32(user),
		Item:      int32(item),
		Score:     score,
		Timestamp: timestamp,
	}, nil
}

// ParseAll parses a batch of records. With skipMalformed set, malformed
// records are dropped with a warning, otherwise the first malformed record
// fails the batch.
func ParseAll(lines []string, skipMalformed bool) ([]Rating, error) {
	ratings := make([]Rating, 0, len(lines))
	for _, line := range lines {
		r, err := Parse(line)
		if err != nil {
			if skipMalformed {
				log.Logger().Warn("skip malformed rating record", zap.Error(err))
				continue
			}
			return nil, errors.Trace(err)
		}
		ratings = append(ratings, r)
	}
	return ratings, nil
}

func parseArray(line string) ([]string, error) {
	decoder := json.NewDecoder(strings.NewReader(line))
	decoder.UseNumber()
	var elements []any
	if err := decoder.Decode(&elements); err != nil {
		return nil, errors.Annotatef(ErrMalformedRecord, "invalid JSON array %q", line)
	}
	fields := make([]string, 0, len(elements))
	for _, element := range elements {
		switch v := element.(type) {
		case string:
			fields = append(fields, v)
		case json.Number:
			fields = append(fields, v.String())
		case nil:
			fields = append(fields, "")
		default:
			return nil, errors.Annotatef(ErrMalformedRecord, "unexpected element in %q", line)
		}
	}
	return fields, nil
}
