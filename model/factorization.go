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

package model

import (
	"gonum.org/v1/gonum/floats"
)

// Factorization is a latent factor model: one vector per known user and item,
// all of length Rank.
type Factorization struct {
	Rank        int
	UserFactors map[int32][]float64
	ItemFactors map[int32][]float64
}

// NewFactorization creates an empty factorization of the given rank.
func NewFactorization(rank int) *Factorization {
	return &Factorization{
		Rank:        rank,
		UserFactors: make(map[int32][]float64),
		ItemFactors: make(map[int32][]float64),
	}
}

// Predict returns the dot product of the user and item vectors. Unknown users
// or items predict 0.
func (m *Factorization) Predict(user, item int32) float64 {
	x, exist := m.UserFactors[user]
	if !exist {
		return 0
	}
	y, exist := m.ItemFactors[item]
	if !exist {
		return 0
	}
	return floats.Dot(x, y)
}
