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

package config

import (
	"runtime"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/juju/errors"
	"github.com/spf13/viper"
)

// Config is the configuration of the update service.
type Config struct {
	Data    DataConfig    `mapstructure:"data"`
	Update  UpdateConfig  `mapstructure:"update"`
	ALS     ALSConfig     `mapstructure:"als"`
	Storage StorageConfig `mapstructure:"storage"`
	Queue   QueueConfig   `mapstructure:"queue"`
	Publish PublishConfig `mapstructure:"publish"`
	Master  MasterConfig  `mapstructure:"master"`
}

// DataConfig describes where rating batches are read from.
type DataConfig struct {
	// path of the new batch, relative to the blob store root
	InputPath string `mapstructure:"input_path" validate:"required"`
	// path of the historical window, relative to the blob store root
	WindowPath string `mapstructure:"window_path"`
	// drop malformed records instead of failing the batch
	SkipMalformed bool `mapstructure:"skip_malformed"`
}

// UpdateConfig describes the update cycle.
type UpdateConfig struct {
	// period between cycles, zero runs a single cycle
	Period time.Duration `mapstructure:"period" validate:"min=0"`
	// fraction of the batch time range held out for evaluation
	TestFraction float64 `mapstructure:"test_fraction" validate:"gt=0,lt=1"`
	// hyperparameter search strategy
	Strategy string `mapstructure:"strategy" validate:"oneof=grid random tpe"`
	// number of candidates tried by random and tpe strategies
	Trials int `mapstructure:"trials" validate:"gt=0"`
	// number of workers for data parallel loops
	Jobs int `mapstructure:"jobs" validate:"gt=0"`
}

// ALSConfig holds the solver mode and the hyperparameter candidates to search.
type ALSConfig struct {
	Implicit       bool      `mapstructure:"implicit"`
	Iterations     int       `mapstructure:"iterations" validate:"gt=0"`
	Features       []int     `mapstructure:"features" validate:"min=1,dive,gt=0"`
	Regularization []float64 `mapstructure:"regularization" validate:"min=1,dive,gte=0"`
	Alpha          []float64 `mapstructure:"alpha" validate:"min=1,dive,gt=0"`
	RandomState    int64     `mapstructure:"random_state"`
}

// StorageConfig selects the blob store holding batches and models.
type StorageConfig struct {
	Type string   `mapstructure:"type" validate:"oneof=posix s3"`
	Path string   `mapstructure:"path"`
	S3   S3Config `mapstructure:"s3"`
}

// S3Config is the S3 blob store configuration.
type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
}

// QueueConfig selects the queue that receives incremental model updates. An
// empty path disables publishing.
type QueueConfig struct {
	Path  string `mapstructure:"path"`
	Topic string `mapstructure:"topic" validate:"required"`
}

// PublishConfig toggles the known-id side channels attached to published
// factors.
type PublishConfig struct {
	KnownItems bool `mapstructure:"known_items"`
	KnownUsers bool `mapstructure:"known_users"`
}

// MasterConfig exposes the metrics endpoint when a host is set.
type MasterConfig struct {
	HttpHost string `mapstructure:"http_host"`
	HttpPort int    `mapstructure:"http_port" validate:"gte=0,lte=65535"`
}

func setDefault() {
	// [data]
	viper.SetDefault("data.input_path", "data/input")
	viper.SetDefault("data.window_path", "data/window")
	viper.SetDefault("data.skip_malformed", false)
	// [update]
	viper.SetDefault("update.period", "0s")
	viper.SetDefault("update.test_fraction", 0.1)
	viper.SetDefault("update.strategy", "random")
	viper.SetDefault("update.trials", 3)
	viper.SetDefault("update.jobs", runtime.NumCPU())
	// [als]
	viper.SetDefault("als.implicit", false)
	viper.SetDefault("als.iterations", 10)
	viper.SetDefault("als.features", []int{10})
	viper.SetDefault("als.regularization", []float64{0.01})
	viper.SetDefault("als.alpha", []float64{1.0})
	viper.SetDefault("als.random_state", 0)
	// [storage]
	viper.SetDefault("storage.type", "posix")
	viper.SetDefault("storage.path", "./refit_data")
	// [queue]
	viper.SetDefault("queue.path", "")
	viper.SetDefault("queue.topic", "model-updates")
	// [publish]
	viper.SetDefault("publish.known_items", true)
	viper.SetDefault("publish.known_users", false)
	// [master]
	viper.SetDefault("master.http_host", "")
	viper.SetDefault("master.http_port", 0)
}

// GetDefaultConfig returns the default configuration.
func GetDefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			InputPath:  "data/input",
			WindowPath: "data/window",
		},
		Update: UpdateConfig{
			Period:       0,
			TestFraction: 0.1,
			Strategy:     "random",
			Trials:       3,
			Jobs:         runtime.NumCPU(),
		},
		ALS: ALSConfig{
			Implicit:       false,
			Iterations:     10,
			Features:       []int{10},
			Regularization: []float64{0.01},
			Alpha:          []float64{1.0},
		},
		Storage: StorageConfig{
			Type: "posix",
			Path: "./refit_data",
		},
		Queue: QueueConfig{
			Topic: "model-updates",
		},
		Publish: PublishConfig{
			KnownItems: true,
			KnownUsers: false,
		},
	}
}

type configBinding struct {
	key string
	env string
}

// LoadConfig loads the configuration from a TOML file. Defaults apply first,
// then the file, then environment variable overrides, and the result is
// validated before it is returned.
func LoadConfig(path string) (*Config, error) {
	setDefault()

	// bind environment variables
	bindings := []configBinding{
		{"data.input_path", "REFIT_DATA_INPUT_PATH"},
		{"data.window_path", "REFIT_DATA_WINDOW_PATH"},
		{"update.period", "REFIT_UPDATE_PERIOD"},
		{"update.strategy", "REFIT_UPDATE_STRATEGY"},
		{"update.jobs", "REFIT_UPDATE_JOBS"},
		{"storage.type", "REFIT_STORAGE_TYPE"},
		{"storage.path", "REFIT_STORAGE_PATH"},
		{"storage.s3.endpoint", "REFIT_S3_ENDPOINT"},
		{"storage.s3.access_key_id", "REFIT_S3_ACCESS_KEY_ID"},
		{"storage.s3.secret_access_key", "REFIT_S3_SECRET_ACCESS_KEY"},
		{"storage.s3.bucket", "REFIT_S3_BUCKET"},
		{"queue.path", "REFIT_QUEUE_PATH"},
		{"queue.topic", "REFIT_QUEUE_TOPIC"},
		{"master.http_host", "REFIT_MASTER_HTTP_HOST"},
		{"master.http_port", "REFIT_MASTER_HTTP_PORT"},
	}
	for _, binding := range bindings {
		if err := viper.BindEnv(binding.key, binding.env); err != nil {
			return nil, errors.Trace(err)
		}
	}

	// load config file
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return nil, errors.Trace(err)
	}
	var conf Config
	if err := viper.Unmarshal(&conf); err != nil {
		return nil, errors.Trace(err)
	}
	if err := conf.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &conf, nil
}

// Validate checks the configuration against the struct constraints.
func (config *Config) Validate() error {
	return errors.Trace(validator.New().Struct(config))
}
