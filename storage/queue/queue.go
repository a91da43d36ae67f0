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
	"strings"
	"time"

	"github.com/XSAM/otelsql"
	"github.com/juju/errors"
	"github.com/samber/lo"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"moul.io/zapgorm2"

	"github.com/gorse-io/refit/base/log"
	"github.com/gorse-io/refit/storage"
)

// Message is a single queued record.
type Message struct {
	Key       string
	Data      string
	Timestamp time.Time
}

// Queue is a named FIFO message queue. Messages pushed under the same name
// are popped in order. Pop returns io.EOF once the queue is drained.
type Queue interface {
	Init() error
	Push(name string, message Message) error
	Pop(name string) (Message, error)
	Close() error
}

// ErrNoQueue is returned when no queue has been configured.
var ErrNoQueue = errors.New("no queue was configured")

// NoQueue rejects every operation. It stands in when the queue path is empty.
type NoQueue struct{}

func (NoQueue) Init() error {
	return ErrNoQueue
}

func (NoQueue) Push(_ string, _ Message) error {
	return ErrNoQueue
}

func (NoQueue) Pop(_ string) (Message, error) {
	return Message{}, ErrNoQueue
}

func (NoQueue) Close() error {
	return nil
}

// Open connects to the queue at the given path. The scheme of the path
// selects the backend: sqlite://, redis:// (or rediss://) and nats:// are
// supported. An empty path opens NoQueue.
func Open(path string) (Queue, error) {
	var err error
	switch {
	case path == "":
		return NoQueue{}, nil
	case strings.HasPrefix(path, storage.SQLitePrefix):
		// append parameters
		if path, err = storage.AppendURLParams(path, []lo.Tuple2[string, string]{
			{A: "_pragma", B: "busy_timeout(10000)"},
			{A: "_pragma", B: "journal_mode(wal)"},
		}); err != nil {
			return nil, errors.Trace(err)
		}
		// connect to database
		name := path[len(storage.SQLitePrefix):]
		database := new(SQLite)
		if database.client, err = otelsql.Open("sqlite", name,
			otelsql.WithAttributes(semconv.DBSystemSqlite),
			otelsql.WithSpanOptions(otelsql.SpanOptions{DisableErrSkip: true}),
		); err != nil {
			return nil, errors.Trace(err)
		}
		gormConfig := storage.NewGORMConfig("")
		gormConfig.Logger = &zapgorm2.Logger{
			ZapLogger:                 log.Logger(),
			LogLevel:                  logger.Warn,
			SlowThreshold:             10 * time.Second,
			SkipCallerLookup:          false,
			IgnoreRecordNotFoundError: false,
		}
		database.gormDB, err = gorm.Open(sqlite.Dialector{Conn: database.client}, gormConfig)
		if err != nil {
			return nil, errors.Trace(err)
		}
		return database, nil
	case strings.HasPrefix(path, storage.RedisPrefix) || strings.HasPrefix(path, storage.RedissPrefix):
		return NewRedis(path)
	case strings.HasPrefix(path, storage.NATSPrefix):
		return NewNATS(path)
	default:
		return nil, errors.Errorf("unknown queue: %s", path)
	}
}
