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
	"github.com/gorse-io/refit/base/log"
	"go.uber.org/zap"
)

// SplitByTime partitions a batch at an approximate time boundary: events
// earlier than min + fraction*(max-min) become training data and the rest,
// boundary included, are held out. The boundary is a rough approximation that
// assumes timestamps are fairly evenly distributed. When all timestamps are
// equal the held-out subset receives the whole batch; callers must tolerate
// degenerate splits.
func SplitByTime(ratings []Rating, fraction float64) (train, heldOut []Rating) {
	if len(ratings) == 0 {
		return nil, nil
	}
	minTime, maxTime := ratings[0].Timestamp, ratings[0].Timestamp
	for _, r := range ratings {
		minTime = min(minTime, r.Timestamp)
		maxTime = max(maxTime, r.Timestamp)
	}
	boundary := minTime + int64(fraction*float64(maxTime-minTime))
	log.Logger().Info("split new data by time",
		zap.Int64("min_timestamp", minTime),
		zap.Int64("max_timestamp", maxTime),
		zap.Int64("boundary", boundary))
	for _, r := range ratings {
		if r.Timestamp < boundary {
			train = append(train, r)
		} else {
			heldOut = append(heldOut, r)
		}
	}
	return
}
