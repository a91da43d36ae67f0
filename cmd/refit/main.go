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

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gorse-io/refit/base/log"
	"github.com/gorse-io/refit/cmd/version"
	"github.com/gorse-io/refit/config"
	"github.com/gorse-io/refit/storage/blob"
	"github.com/gorse-io/refit/storage/queue"
	"github.com/gorse-io/refit/update"
)

var refitCommand = &cobra.Command{
	Use:   "refit",
	Short: "The model update service of the recommender system.",
	Run: func(cmd *cobra.Command, args []string) {
		// Show version
		if showVersion, _ := cmd.PersistentFlags().GetBool("version"); showVersion {
			fmt.Println(version.BuildInfo())
			return
		}
		// setup logger
		debug, _ := cmd.PersistentFlags().GetBool("debug")
		log.SetLogger(cmd.PersistentFlags(), debug)

		// load config
		configPath, _ := cmd.PersistentFlags().GetString("config")
		log.Logger().Info("load config", zap.String("config", configPath))
		conf, err := config.LoadConfig(configPath)
		if err != nil {
			log.Logger().Fatal("failed to load config", zap.Error(err))
		}

		// open the blob store and the update queue
		store, err := blob.NewStore(conf.Storage)
		if err != nil {
			log.Logger().Fatal("failed to open blob store", zap.Error(err))
		}
		q, err := queue.Open(conf.Queue.Path)
		if err != nil {
			log.Logger().Fatal("failed to open queue", zap.Error(err))
		}
		if conf.Queue.Path != "" {
			if err = q.Init(); err != nil {
				log.Logger().Fatal("failed to initialize queue", zap.Error(err))
			}
		}

		// serve Prometheus metrics
		if conf.Master.HttpHost != "" {
			go func() {
				http.Handle("/metrics", promhttp.Handler())
				err := http.ListenAndServe(fmt.Sprintf("%s:%d", conf.Master.HttpHost, conf.Master.HttpPort), nil)
				if err != nil {
					log.Logger().Fatal("failed to start http server", zap.Error(err))
				}
			}()
		}

		// stop on signal
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			sigint := make(chan os.Signal, 1)
			signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
			<-sigint
			log.Logger().Info("stopping refit")
			cancel()
		}()

		// run update cycles
		runner := update.NewRunner(conf, store, update.NewALSUpdater(conf, store, q))
		if err = runner.Run(ctx); err != nil {
			log.Logger().Fatal("update cycle failed", zap.Error(err))
		}
		if err = q.Close(); err != nil {
			log.Logger().Error("failed to close queue", zap.Error(err))
		}
		log.Logger().Info("stop refit successfully")
	},
}

func init() {
	log.AddFlags(refitCommand.PersistentFlags())
	refitCommand.PersistentFlags().Bool("debug", false, "use debug log mode")
	refitCommand.PersistentFlags().StringP("config", "c", "", "configuration file path")
	refitCommand.PersistentFlags().BoolP("version", "v", false, "refit version")
}

func main() {
	if err := refitCommand.Execute(); err != nil {
		log.Logger().Fatal("failed to execute", zap.Error(err))
	}
}
