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
	"bufio"
	"context"
	"io"
	"path"
	"strings"
	"time"

	"github.com/juju/errors"
	"github.com/klauspost/compress/gzip"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/gorse-io/refit/base/encoding"
	"github.com/gorse-io/refit/base/log"
	"github.com/gorse-io/refit/codec"
	"github.com/gorse-io/refit/config"
	"github.com/gorse-io/refit/model"
	"github.com/gorse-io/refit/rating"
	"github.com/gorse-io/refit/storage/blob"
)

// LatestPointer is the blob store object naming the active model descriptor.
const LatestPointer = "models/LATEST"

// Runner drives the update cycle: read a batch, split it, search candidates,
// promote the winner and publish it.
type Runner struct {
	cfg     *config.Config
	store   blob.Store
	updater Updater
}

func NewRunner(cfg *config.Config, store blob.Store, updater Updater) *Runner {
	return &Runner{
		cfg:     cfg,
		store:   store,
		updater: updater,
	}
}

// Run executes update cycles until ctx is cancelled. A zero period runs a
// single cycle and returns its error, otherwise the first cycle starts
// immediately and failed cycles are logged and retried on the next tick.
func (r *Runner) Run(ctx context.Context) error {
	if r.cfg.Update.Period == 0 {
		return errors.Trace(r.RunOnce(ctx))
	}
	ticker := time.NewTicker(r.cfg.Update.Period)
	defer ticker.Stop()
	scheduled := make(chan struct{}, 1)
	scheduled <- struct{}{}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case <-scheduled:
		}
		if err := r.RunOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			UpdateCycleFailuresTotal.Inc()
			log.Logger().Error("update cycle failed", zap.Error(err))
		}
	}
}

// RunOnce executes one update cycle. Every cycle writes to a fresh versioned
// directory and repoints models/LATEST only after the winner is fully
// persisted, so an interrupted cycle is safely retryable.
func (r *Runner) RunOnce(ctx context.Context) error {
	start := time.Now()
	defer func() {
		UpdateCycleTotalSeconds.Set(time.Since(start).Seconds())
	}()
	newData, err := r.readBatch(ctx, r.cfg.Data.InputPath)
	if err != nil {
		return errors.Trace(err)
	}
	if len(newData) == 0 {
		log.Logger().Info("no new ratings", zap.String("input_path", r.cfg.Data.InputPath))
		return nil
	}
	rating.SortByTimestamp(newData)
	newTrain, heldOut := r.updater.SplitNewDataToTrainTest(newData)
	history, err := r.readBatch(ctx, r.cfg.Data.WindowPath)
	if err != nil {
		return errors.Trace(err)
	}
	// Candidates train on the historical window plus the train half of the
	// new batch. Evaluation sees the held-out half only.
	train := make([]rating.Rating, 0, len(history)+len(newTrain))
	train = append(train, history...)
	train = append(train, newTrain...)
	rating.SortByTimestamp(train)

	version := encoding.Hex(start.UnixNano())
	dir := path.Join("models", version)
	grid := r.paramsGrid()
	var descriptor *codec.Descriptor
	if len(heldOut) == 0 {
		// Degenerate split: evaluation is impossible and the first candidate wins.
		log.Logger().Warn("held-out set is empty, skipping hyperparameter search")
		descriptor, err = r.updater.BuildModel(ctx, train, firstParams(grid), path.Join(dir, "candidate-0"))
		if err != nil {
			return errors.Trace(err)
		}
	} else {
		var result *SearchResult
		result, err = Search(ctx, r.updater, train, heldOut, grid,
			dir, r.cfg.Update.Strategy, r.cfg.Update.Trials, r.cfg.ALS.RandomState)
		if err != nil {
			return errors.Trace(err)
		}
		BestCandidateScore.Set(result.BestScore)
		descriptor, err = codec.ReadDescriptor(r.store, result.BestPath)
		if err != nil {
			return errors.Trace(err)
		}
	}
	if err = r.promote(descriptor.Path()); err != nil {
		return errors.Trace(err)
	}
	ModelUsersTotal.Set(float64(len(descriptor.XIDs)))
	ModelItemsTotal.Set(float64(len(descriptor.YIDs)))
	if r.cfg.Queue.Path != "" {
		window := make([]rating.Rating, 0, len(history)+len(newData))
		window = append(window, history...)
		window = append(window, newData...)
		if err = r.updater.PublishAdditionalModelData(ctx, descriptor, window); err != nil {
			return errors.Trace(err)
		}
	}
	log.Logger().Info("update cycle complete",
		zap.String("version", version),
		zap.String("model", descriptor.Path()),
		zap.Duration("duration", time.Since(start)))
	return nil
}

// paramsGrid turns the configured candidate lists into a search grid. Alpha
// only matters in implicit mode.
func (r *Runner) paramsGrid() model.ParamsGrid {
	grid := model.ParamsGrid{
		model.NFactors:    lo.ToAnySlice(r.cfg.ALS.Features),
		model.Reg:         lo.ToAnySlice(r.cfg.ALS.Regularization),
		model.NEpochs:     []interface{}{r.cfg.ALS.Iterations},
		model.RandomState: []interface{}{r.cfg.ALS.RandomState},
	}
	if r.cfg.ALS.Implicit {
		grid[model.Alpha] = lo.ToAnySlice(r.cfg.ALS.Alpha)
	}
	return grid
}

func firstParams(grid model.ParamsGrid) model.Params {
	params := model.Params{}
	for paramName, values := range grid {
		if len(values) > 0 {
			params[paramName] = values[0]
		}
	}
	return params
}

// promote repoints models/LATEST at the winning descriptor.
func (r *Runner) promote(descriptorPath string) error {
	w, done, err := r.store.Create(LatestPointer)
	if err != nil {
		return errors.Trace(err)
	}
	if _, err = w.Write([]byte(descriptorPath)); err != nil {
		_ = w.Close()
		return errors.Trace(err)
	}
	if err = w.Close(); err != nil {
		return errors.Trace(err)
	}
	<-done
	log.Logger().Info("promoted model", zap.String("model", descriptorPath))
	return nil
}

// readBatch reads and parses every object under prefix. Objects with a .gz
// suffix are decompressed on the fly.
func (r *Runner) readBatch(ctx context.Context, prefix string) ([]rating.Rating, error) {
	if prefix == "" {
		return nil, nil
	}
	names, err := r.store.List(prefix)
	if err != nil {
		return nil, errors.Trace(err)
	}
	var lines []string
	for _, name := range names {
		if err = ctx.Err(); err != nil {
			return nil, errors.Trace(err)
		}
		fileLines, err := r.readLines(name)
		if err != nil {
			return nil, errors.Trace(err)
		}
		lines = append(lines, fileLines...)
	}
	ratings, err := rating.ParseAll(lines, r.cfg.Data.SkipMalformed)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if skipped := len(lines) - len(ratings); skipped > 0 {
		MalformedRecordsTotal.Add(float64(skipped))
	}
	return ratings, nil
}

func (r *Runner) readLines(name string) ([]string, error) {
	reader, err := r.store.Open(name)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer func() {
		_ = reader.Close()
	}()
	var source io.Reader = reader
	if strings.HasSuffix(name, ".gz") {
		gzipReader, err := gzip.NewReader(reader)
		if err != nil {
			return nil, errors.Trace(err)
		}
		defer func() {
			_ = gzipReader.Close()
		}()
		source = gzipReader
	}
	var lines []string
	scanner := bufio.NewScanner(source)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, errors.Trace(scanner.Err())
}
