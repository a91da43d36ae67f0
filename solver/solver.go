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

// Package solver hides the matrix factorization mathematics behind a small
// training boundary. The update pipeline only depends on the Solver interface;
// ALS is the bundled implementation.
package solver

import (
	"context"

	"github.com/gorse-io/refit/model"
	"github.com/gorse-io/refit/rating"
)

// Solver trains a latent factor model from aggregated ratings. Implementations
// are blocking; the context cancels work between alternating iterations.
type Solver interface {
	// Train factorizes explicit ratings.
	Train(ctx context.Context, ratings []rating.Aggregated, features, iterations int, reg float64) (*model.Factorization, error)
	// TrainImplicit factorizes implicit interaction strengths with the given
	// confidence multiplier.
	TrainImplicit(ctx context.Context, ratings []rating.Aggregated, features, iterations int, reg, alpha float64) (*model.Factorization, error)
}
