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
	"fmt"
	"math/rand"
	"path"
	"sort"

	"github.com/c-bata/goptuna"
	"github.com/c-bata/goptuna/tpe"
	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/gorse-io/refit/base/log"
	"github.com/gorse-io/refit/model"
	"github.com/gorse-io/refit/rating"
)

// Search strategies.
const (
	StrategyGrid   = "grid"
	StrategyRandom = "random"
	StrategyTPE    = "tpe"
)

// SearchResult collects the outcome of a hyperparameter search.
type SearchResult struct {
	BestParams model.Params
	BestScore  float64
	BestPath   string
	BestIndex  int
	Scores     []float64
	Params     []model.Params
}

// AddScore records one candidate. The first candidate seeds the best entry,
// later candidates replace it only with a strictly higher score.
func (r *SearchResult) AddScore(params model.Params, score float64, descriptorPath string) {
	r.Scores = append(r.Scores, score)
	r.Params = append(r.Params, params.Copy())
	if len(r.Scores) == 1 || score > r.BestScore {
		r.BestScore = score
		r.BestParams = params.Copy()
		r.BestPath = descriptorPath
		r.BestIndex = len(r.Params) - 1
	}
}

// Search builds and evaluates one candidate per parameter combination chosen
// by the strategy, persisting candidate n under dir/candidate-<n>. The driver
// calls nothing beyond BuildModel and Evaluate.
func Search(ctx context.Context, updater Updater, train, heldOut []rating.Rating, grid model.ParamsGrid,
	dir, strategy string, numTrials int, seed int64) (*SearchResult, error) {
	runner := &trialRunner{
		updater: updater,
		train:   train,
		heldOut: heldOut,
		dir:     dir,
		result:  new(SearchResult),
	}
	var err error
	switch strategy {
	case StrategyGrid:
		err = gridSearch(ctx, runner, grid)
	case StrategyRandom:
		err = randomSearch(ctx, runner, grid, numTrials, seed)
	case StrategyTPE:
		err = tpeSearch(ctx, runner, grid, numTrials)
	default:
		return nil, errors.Errorf("unknown search strategy: %s", strategy)
	}
	if err != nil {
		return nil, errors.Trace(err)
	}
	log.Logger().Info("hyperparameter search complete",
		zap.String("strategy", strategy),
		zap.Int("candidates", len(runner.result.Params)),
		zap.Float64("best_score", runner.result.BestScore),
		zap.Any("best_params", runner.result.BestParams))
	return runner.result, nil
}

// trialRunner builds and evaluates a single candidate per call, assigning
// candidate directories in call order.
type trialRunner struct {
	updater Updater
	train   []rating.Rating
	heldOut []rating.Rating
	dir     string
	result  *SearchResult
}

func (t *trialRunner) run(ctx context.Context, params model.Params) (float64, error) {
	candidatePath := path.Join(t.dir, fmt.Sprintf("candidate-%d", len(t.result.Params)))
	descriptor, err := t.updater.BuildModel(ctx, t.train, params, candidatePath)
	if err != nil {
		return 0, errors.Trace(err)
	}
	score, err := t.updater.Evaluate(ctx, descriptor, t.heldOut)
	if err != nil {
		return 0, errors.Trace(err)
	}
	t.result.AddScore(params, score, descriptor.Path())
	return score, nil
}

// sortedParamNames fixes the parameter iteration order so candidate indices
// are deterministic.
func sortedParamNames(grid model.ParamsGrid) []model.ParamName {
	paramNames := make([]model.ParamName, 0, len(grid))
	for paramName := range grid {
		paramNames = append(paramNames, paramName)
	}
	sort.Slice(paramNames, func(i, j int) bool { return paramNames[i] < paramNames[j] })
	return paramNames
}

// gridSearch tries every combination in the grid.
func gridSearch(ctx context.Context, runner *trialRunner, grid model.ParamsGrid) error {
	paramNames := sortedParamNames(grid)
	total := grid.NumCombinations()
	var dfs func(deep int, params model.Params) error
	dfs = func(deep int, params model.Params) error {
		if deep == len(paramNames) {
			log.Logger().Info(fmt.Sprintf("grid search (%v/%v)", len(runner.result.Params)+1, total),
				zap.Any("params", params))
			_, err := runner.run(ctx, params)
			return errors.Trace(err)
		}
		paramName := paramNames[deep]
		for _, value := range grid[paramName] {
			params[paramName] = value
			if err := dfs(deep+1, params); err != nil {
				return errors.Trace(err)
			}
		}
		return nil
	}
	return dfs(0, model.Params{})
}

// randomSearch samples combinations uniformly from the grid.
func randomSearch(ctx context.Context, runner *trialRunner, grid model.ParamsGrid, numTrials int, seed int64) error {
	// if the number of combinations is less than the number of trials, use grid search
	if grid.NumCombinations() < numTrials {
		return gridSearch(ctx, runner, grid)
	}
	rng := rand.New(rand.NewSource(seed))
	paramNames := sortedParamNames(grid)
	for i := 1; i <= numTrials; i++ {
		params := model.Params{}
		for _, paramName := range paramNames {
			values := grid[paramName]
			params[paramName] = values[rng.Intn(len(values))]
		}
		log.Logger().Info(fmt.Sprintf("random search (%v/%v)", i, numTrials),
			zap.Any("params", params))
		if _, err := runner.run(ctx, params); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// tpeSearch drives a goptuna study with a tree-structured Parzen estimator,
// suggesting over the stringified candidate values of each parameter.
func tpeSearch(ctx context.Context, runner *trialRunner, grid model.ParamsGrid, numTrials int) error {
	paramNames := sortedParamNames(grid)
	choices := make(map[model.ParamName][]string, len(grid))
	values := make(map[model.ParamName]map[string]interface{}, len(grid))
	for _, paramName := range paramNames {
		lookup := make(map[string]interface{}, len(grid[paramName]))
		for _, value := range grid[paramName] {
			repr := fmt.Sprint(value)
			if _, exist := lookup[repr]; !exist {
				choices[paramName] = append(choices[paramName], repr)
				lookup[repr] = value
			}
		}
		values[paramName] = lookup
	}
	study, err := goptuna.CreateStudy("search",
		goptuna.StudyOptionDirection(goptuna.StudyDirectionMaximize),
		goptuna.StudyOptionSampler(tpe.NewSampler()))
	if err != nil {
		return errors.Trace(err)
	}
	objective := func(trial goptuna.Trial) (float64, error) {
		params := model.Params{}
		for _, paramName := range paramNames {
			repr, err := trial.SuggestCategorical(string(paramName), choices[paramName])
			if err != nil {
				return 0, errors.Trace(err)
			}
			params[paramName] = values[paramName][repr]
		}
		log.Logger().Info(fmt.Sprintf("TPE search (%v/%v)", len(runner.result.Params)+1, numTrials),
			zap.Any("params", params))
		return runner.run(ctx, params)
	}
	return errors.Trace(study.Optimize(objective, numTrials))
}
