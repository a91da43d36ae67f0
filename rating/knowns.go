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
	mapset "github.com/deckarep/golang-set/v2"
)

// KnownItems indexes the items each user has ever interacted with. The index
// tracks historical association, not current score, so deleted pairs still
// count as known.
func KnownItems(ratings []Rating) map[int32]mapset.Set[int32] {
	knowns := make(map[int32]mapset.Set[int32])
	for _, r := range ratings {
		set, exist := knowns[r.User]
		if !exist {
			set = mapset.NewSet[int32]()
			knowns[r.User] = set
		}
		set.Add(r.Item)
	}
	return knowns
}

// KnownUsers is the symmetric index from items to the users that interacted
// with them.
func KnownUsers(ratings []Rating) map[int32]mapset.Set[int32] {
	knowns := make(map[int32]mapset.Set[int32])
	for _, r := range ratings {
		set, exist := knowns[r.Item]
		if !exist {
			set = mapset.NewSet[int32]()
			knowns[r.Item] = set
		}
		set.Add(r.User)
	}
	return knowns
}
