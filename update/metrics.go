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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpdateCycleTotalSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "refit",
		Subsystem: "update",
		Name:      "cycle_total_seconds",
	})
	UpdateCycleFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "refit",
		Subsystem: "update",
		Name:      "cycle_failures_total",
	})
	MalformedRecordsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "refit",
		Subsystem: "update",
		Name:      "malformed_records_total",
	})
	CandidatesBuiltTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "refit",
		Subsystem: "update",
		Name:      "candidates_built_total",
	})
	BestCandidateScore = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "refit",
		Subsystem: "update",
		Name:      "best_candidate_score",
	})
	ModelUsersTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "refit",
		Subsystem: "update",
		Name:      "model_users_total",
	})
	ModelItemsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "refit",
		Subsystem: "update",
		Name:      "model_items_total",
	})
)
