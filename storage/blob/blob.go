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

package blob

import (
	"io"

	"github.com/juju/errors"

	"github.com/gorse-io/refit/config"
)

// Store is a flat namespace of named objects. Object names are slash
// separated paths relative to the store root.
type Store interface {
	// Open returns a reader over the named object.
	Open(name string) (io.ReadCloser, error)
	// Create opens a writer for the named object. The returned channel is
	// closed once the object has been fully persisted, which may happen
	// after the writer is closed.
	Create(name string) (io.WriteCloser, chan struct{}, error)
	// List returns the names of all objects whose name starts with prefix,
	// in ascending order.
	List(prefix string) ([]string, error)
}

// NewStore opens the blob store described by the configuration.
func NewStore(cfg config.StorageConfig) (Store, error) {
	switch cfg.Type {
	case "posix":
		return NewPOSIX(cfg.Path), nil
	case "s3":
		s, err := NewS3(cfg.S3)
		if err != nil {
			return nil, errors.Trace(err)
		}
		return s, nil
	default:
		return nil, errors.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
