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

package solver

import (
	"context"
	"math/rand"
	"runtime"

	"github.com/gorse-io/refit/base/log"
	"github.com/gorse-io/refit/common/parallel"
	"github.com/gorse-io/refit/model"
	"github.com/gorse-io/refit/rating"
	"github.com/juju/errors"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

const (
	initMean   = 0
	initStdDev = 0.1
)

// ALS factorizes the rating matrix by alternating least squares. Explicit mode
// solves the normal equations over observed entries only; implicit mode is
// weighted over all entries with per-entry confidence 1 + alpha*score.
type ALS struct {
	RandomState int64
	Jobs        int
}

// NewALS creates an ALS solver.
func NewALS(randomState int64, jobs int) *ALS {
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	return &ALS{RandomState: randomState, Jobs: jobs}
}

// Train factorizes explicit ratings.
func (als *ALS) Train(ctx context.Context, ratings []rating.Aggregated, features, iterations int, reg float64) (*model.Factorization, error) {
	return als.fit(ctx, ratings, features, iterations, reg, 0, false)
}

// TrainImplicit factorizes implicit interaction strengths.
func (als *ALS) TrainImplicit(ctx context.Context, ratings []rating.Aggregated, features, iterations int, reg, alpha float64) (*model.Factorization, error) {
	return als.fit(ctx, ratings, features, iterations, reg, alpha, true)
}

type entry struct {
	row   int
	score float64
}

func (als *ALS) fit(ctx context.Context, ratings []rating.Aggregated, features, iterations int, reg, alpha float64, implicit bool) (*model.Factorization, error) {
	if len(ratings) == 0 {
		log.Logger().Warn("fit als on empty ratings")
		return model.NewFactorization(features), nil
	}
	// index users and items by dense rows
	userRows := make(map[int32]int)
	itemRows := make(map[int32]int)
	userIDs := make([]int32, 0)
	itemIDs := make([]int32, 0)
	for _, r := range ratings {
		if _, exist := userRows[r.User]; !exist {
			userRows[r.User] = len(userIDs)
			userIDs = append(userIDs, r.User)
		}
		if _, exist := itemRows[r.Item]; !exist {
			itemRows[r.Item] = len(itemIDs)
			itemIDs = append(itemIDs, r.Item)
		}
	}
	byUser := make([][]entry, len(userIDs))
	byItem := make([][]entry, len(itemIDs))
	for _, r := range ratings {
		userRow, itemRow := userRows[r.User], itemRows[r.Item]
		byUser[userRow] = append(byUser[userRow], entry{row: itemRow, score: r.Score})
		byItem[itemRow] = append(byItem[itemRow], entry{row: userRow, score: r.Score})
	}
	log.Logger().Info("fit als",
		zap.Int("n_users", len(userIDs)),
		zap.Int("n_items", len(itemIDs)),
		zap.Int("n_ratings", len(ratings)),
		zap.Int("n_factors", features),
		zap.Int("n_epochs", iterations),
		zap.Float64("reg", reg),
		zap.Bool("implicit", implicit))
	// initialize factors
	rng := rand.New(rand.NewSource(als.RandomState))
	userFactor := mat.NewDense(len(userIDs), features, normalVector(rng, len(userIDs)*features, initMean, initStdDev))
	itemFactor := mat.NewDense(len(itemIDs), features, normalVector(rng, len(itemIDs)*features, initMean, initStdDev))
	// create temporary matrices
	temp1 := make([]*mat.Dense, als.Jobs)
	temp2 := make([]*mat.VecDense, als.Jobs)
	a := make([]*mat.Dense, als.Jobs)
	for i := 0; i < als.Jobs; i++ {
		temp1[i] = mat.NewDense(features, features, nil)
		temp2[i] = mat.NewVecDense(features, nil)
		a[i] = mat.NewDense(features, features, nil)
	}
	c := mat.NewDense(features, features, nil)
	// create regularization matrix
	regs := make([]float64, features)
	for i := range regs {
		regs[i] = reg
	}
	regI := mat.NewDiagDense(features, regs)
	for ep := 1; ep <= iterations; ep++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Trace(err)
		}
		// recompute all user factors: x_u = (Y^T C^u Y + reg I)^{-1} Y^T C^u p(u)
		if implicit {
			c.Mul(itemFactor.T(), itemFactor)
		}
		err := parallel.Parallel(ctx, len(byUser), als.Jobs, func(workerId, userRow int) error {
			return als.solveRow(temp1[workerId], temp2[workerId], a[workerId], c, regI,
				userFactor, itemFactor, userRow, byUser[userRow], features, alpha, implicit)
		})
		if err != nil {
			return nil, errors.Trace(err)
		}
		// recompute all item factors: y_i = (X^T C^i X + reg I)^{-1} X^T C^i p(i)
		if implicit {
			c.Mul(userFactor.T(), userFactor)
		}
		err = parallel.Parallel(ctx, len(byItem), als.Jobs, func(workerId, itemRow int) error {
			return als.solveRow(temp1[workerId], temp2[workerId], a[workerId], c, regI,
				itemFactor, userFactor, itemRow, byItem[itemRow], features, alpha, implicit)
		})
		if err != nil {
			return nil, errors.Trace(err)
		}
	}
	// export factors
	m := model.NewFactorization(features)
	for id, row := range userRows {
		vector := make([]float64, features)
		copy(vector, userFactor.RawRowView(row))
		m.UserFactors[id] = vector
	}
	for id, row := range itemRows {
		vector := make([]float64, features)
		copy(vector, itemFactor.RawRowView(row))
		m.ItemFactors[id] = vector
	}
	return m, nil
}

// solveRow recomputes one row of target from the fixed side. In implicit mode
// gram must hold the gram matrix of the fixed side.
func (als *ALS) solveRow(temp1 *mat.Dense, temp2 *mat.VecDense, a, gram *mat.Dense, regI *mat.DiagDense,
	target, fixed *mat.Dense, row int, entries []entry, features int, alpha float64, implicit bool) error {
	if implicit {
		a.Copy(gram)
	} else {
		a.Zero()
	}
	b := mat.NewVecDense(features, nil)
	for _, e := range entries {
		v := fixed.RowView(e.row)
		if implicit {
			// Y^T (C^u - I) Y and Y^T C^u p(u) with confidence 1 + alpha*score
			temp1.Outer(alpha*e.score, v, v)
			a.Add(a, temp1)
			temp2.ScaleVec(1+alpha*e.score, v)
		} else {
			temp1.Outer(1, v, v)
			a.Add(a, temp1)
			temp2.ScaleVec(e.score, v)
		}
		b.AddVec(b, temp2)
	}
	a.Add(a, regI)
	if err := temp1.Inverse(a); err != nil {
		return errors.Trace(err)
	}
	temp2.MulVec(temp1, b)
	target.SetRow(row, temp2.RawVector().Data)
	return nil
}

func normalVector(rng *rand.Rand, size int, mean, stdDev float64) []float64 {
	ret := make([]float64, size)
	for i := range ret {
		ret[i] = rng.NormFloat64()*stdDev + mean
	}
	return ret
}
