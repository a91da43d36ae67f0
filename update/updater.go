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

package update

import (
	"context"
	"math"

	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/gorse-io/refit/base/log"
	"github.com/gorse-io/refit/codec"
	"github.com/gorse-io/refit/config"
	"github.com/gorse-io/refit/metric"
	"github.com/gorse-io/refit/model"
	"github.com/gorse-io/refit/publish"
	"github.com/gorse-io/refit/rating"
	"github.com/gorse-io/refit/solver"
	"github.com/gorse-io/refit/storage/blob"
	"github.com/gorse-io/refit/storage/queue"
)

// Updater is the contract between the runner and one model family. Implement
// it to plug a different kind of model into the update cycle.
type Updater interface {
	// SplitNewDataToTrainTest divides a new batch into training data and
	// held-out evaluation data.
	SplitNewDataToTrainTest(newData []rating.Rating) (train, heldOut []rating.Rating)
	// BuildModel trains one candidate and persists it under path. A failed
	// candidate leaves no descriptor behind.
	BuildModel(ctx context.Context, train []rating.Rating, params model.Params, path string) (*codec.Descriptor, error)
	// Evaluate scores a persisted candidate against held-out data. Higher is
	// better in every mode.
	Evaluate(ctx context.Context, descriptor *codec.Descriptor, heldOut []rating.Rating) (float64, error)
	// PublishAdditionalModelData streams the model to downstream consumers,
	// attaching side-channel data derived from the window.
	PublishAdditionalModelData(ctx context.Context, descriptor *codec.Descriptor, window []rating.Rating) error
}

// ALSUpdater implements Updater with alternating least squares factorization.
type ALSUpdater struct {
	store        blob.Store
	publisher    *publish.Publisher
	implicit     bool
	testFraction float64
	jobs         int
}

func NewALSUpdater(cfg *config.Config, store blob.Store, q queue.Queue) *ALSUpdater {
	return &ALSUpdater{
		store: store,
		publisher: &publish.Publisher{
			Queue:             q,
			Topic:             cfg.Queue.Topic,
			IncludeKnownItems: cfg.Publish.KnownItems,
			IncludeKnownUsers: cfg.Publish.KnownUsers,
		},
		implicit:     cfg.ALS.Implicit,
		testFraction: cfg.Update.TestFraction,
		jobs:         cfg.Update.Jobs,
	}
}

func (u *ALSUpdater) SplitNewDataToTrainTest(newData []rating.Rating) (train, heldOut []rating.Rating) {
	return rating.SplitByTime(newData, u.testFraction)
}

func (u *ALSUpdater) BuildModel(ctx context.Context, train []rating.Rating, params model.Params, path string) (*codec.Descriptor, error) {
	if err := params.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	features := params.GetInt(model.NFactors, model.DefaultNFactors)
	iterations := params.GetInt(model.NEpochs, model.DefaultNEpochs)
	reg := params.GetFloat64(model.Reg, model.DefaultReg)
	alpha := params.GetFloat64(model.Alpha, model.DefaultAlpha)
	randomState := params.GetInt64(model.RandomState, 0)
	log.Logger().Info("build model",
		zap.String("path", path),
		zap.Any("params", params),
		zap.Bool("implicit", u.implicit))

	aggregated := rating.Aggregate(train, u.implicit)
	als := solver.NewALS(randomState, u.jobs)
	var m *model.Factorization
	var err error
	if u.implicit {
		m, err = als.TrainImplicit(ctx, aggregated, features, iterations, reg, alpha)
	} else {
		m, err = als.Train(ctx, aggregated, features, iterations, reg)
	}
	if err != nil {
		return nil, errors.Trace(err)
	}
	descriptor, err := codec.Encode(u.store, path, m, reg, u.implicit, alpha)
	if err != nil {
		return nil, errors.Trace(err)
	}
	CandidatesBuiltTotal.Inc()
	return descriptor, nil
}

func (u *ALSUpdater) Evaluate(ctx context.Context, descriptor *codec.Descriptor, heldOut []rating.Rating) (float64, error) {
	m, _, err := codec.Decode(u.store, descriptor.Path())
	if err != nil {
		return 0, errors.Trace(err)
	}
	aggregated := rating.Aggregate(heldOut, descriptor.Implicit)
	if descriptor.Implicit {
		auc, err := metric.AUC(ctx, m, aggregated, u.jobs)
		if err != nil {
			return 0, errors.Trace(err)
		}
		log.Logger().Info("evaluated model", zap.String("path", descriptor.Path()), zap.Float64("AUC", auc))
		return auc, nil
	}
	rmse, err := metric.RMSE(m, aggregated)
	if err != nil {
		return 0, errors.Trace(err)
	}
	log.Logger().Info("evaluated model", zap.String("path", descriptor.Path()), zap.Float64("RMSE", rmse))
	// A perfect fit must not divide by zero. The maximum representable score
	// keeps the evaluator uniformly higher-is-better.
	if rmse == 0 {
		return math.MaxFloat64, nil
	}
	return 1 / rmse, nil
}

func (u *ALSUpdater) PublishAdditionalModelData(ctx context.Context, descriptor *codec.Descriptor, window []rating.Rating) error {
	return errors.Trace(u.publisher.PublishModel(ctx, u.store, descriptor.Path(), window))
}
