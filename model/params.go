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

// Package model holds the hyperparameter bag and the factorization produced
// by a solver.
package model

import (
	"fmt"

	"github.com/gorse-io/refit/base/log"
	"github.com/juju/errors"
)

// ErrInvalidHyperparameter reports a hyperparameter outside its legal domain.
var ErrInvalidHyperparameter = errors.New("invalid hyperparameter")

// ParamName is the type of hyperparameter names.
type ParamName string

// Predefined hyperparameter names
const (
	NFactors    ParamName = "NFactors"    // number of latent features
	Reg         ParamName = "Reg"         // regularization strength
	Alpha       ParamName = "Alpha"       // implicit confidence multiplier
	NEpochs     ParamName = "NEpochs"     // number of alternating iterations
	RandomState ParamName = "RandomState" // random state (seed)
)

// Default hyperparameter values, shared by getters and validation.
const (
	DefaultNFactors = 10
	DefaultReg      = 0.01
	DefaultAlpha    = 1.0
	DefaultNEpochs  = 10
)

// Params stores hyperparameters for a model. It is a map between names and
// values. For example, hyperparameters for ALS are given by:
//
//	model.Params{
//		model.NFactors: 10,
//		model.NEpochs:  10,
//		model.Reg:      0.01,
//	}
type Params map[ParamName]interface{}

// Copy hyperparameters.
func (parameters Params) Copy() Params {
	newParams := make(Params)
	for k, v := range parameters {
		newParams[k] = v
	}
	return newParams
}

// GetInt gets an integer parameter by name. Returns _default if not exists or
// type doesn't match.
func (parameters Params) GetInt(name ParamName, _default int) int {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case int:
			return val
		case int64:
			return int(val)
		case float64:
			return int(val)
		default:
			log.Logger().Error(fmt.Sprintf("invalid %s: %v", name, val))
		}
	}
	return _default
}

// GetInt64 gets an int64 parameter by name. Returns _default if not exists or
// type doesn't match. The type will be converted if given int.
func (parameters Params) GetInt64(name ParamName, _default int64) int64 {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case int64:
			return val
		case int:
			return int64(val)
		default:
			log.Logger().Error(fmt.Sprintf("invalid %s: %v", name, val))
		}
	}
	return _default
}

// GetFloat64 gets a float parameter by name. Returns _default if not exists or
// type doesn't match.
func (parameters Params) GetFloat64(name ParamName, _default float64) float64 {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case float64:
			return val
		case float32:
			return float64(val)
		case int:
			return float64(val)
		default:
			log.Logger().Error(fmt.Sprintf("invalid %s: %v", name, val))
		}
	}
	return _default
}

// Validate checks hyperparameters against their legal domains before any
// solver or storage work happens. Alpha is checked even when the solver runs
// in explicit mode and never reads it.
func (parameters Params) Validate() error {
	if features := parameters.GetInt(NFactors, DefaultNFactors); features <= 0 {
		return errors.Annotatef(ErrInvalidHyperparameter, "NFactors = %d", features)
	}
	if reg := parameters.GetFloat64(Reg, DefaultReg); reg < 0 {
		return errors.Annotatef(ErrInvalidHyperparameter, "Reg = %v", reg)
	}
	if alpha := parameters.GetFloat64(Alpha, DefaultAlpha); alpha <= 0 {
		return errors.Annotatef(ErrInvalidHyperparameter, "Alpha = %v", alpha)
	}
	return nil
}

// ParamsGrid contains candidates for hyperparameter search.
type ParamsGrid map[ParamName][]interface{}

// NumCombinations returns the number of combinations in the grid.
func (grid ParamsGrid) NumCombinations() int {
	count := 1
	for _, values := range grid {
		count *= len(values)
	}
	return count
}
