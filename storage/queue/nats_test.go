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

package queue

import (
	"os"
	"testing"

	"github.com/stretchr/testify/suite"
)

type NATSTestSuite struct {
	baseTestSuite
}

func (suite *NATSTestSuite) SetupSuite() {
	uri := os.Getenv("NATS_URI")
	if uri == "" {
		suite.T().Skip("NATS_URI is not set, skipping NATS tests")
	}
	var err error
	suite.Queue, err = Open(uri)
	suite.NoError(err)
	suite.NoError(suite.Queue.Init())
}

func (suite *NATSTestSuite) TearDownSuite() {
	if suite.Queue != nil {
		suite.NoError(suite.Queue.Close())
	}
}

func TestNATS(t *testing.T) {
	suite.Run(t, new(NATSTestSuite))
}
