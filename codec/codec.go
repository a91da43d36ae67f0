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

package codec

import (
	"encoding/json"
	"io"
	"path"
	"sort"

	"github.com/juju/errors"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/gorse-io/refit/base/log"
	"github.com/gorse-io/refit/model"
	"github.com/gorse-io/refit/storage/blob"
)

// ErrCorruptModel reports a shard or descriptor that cannot be decoded.
var ErrCorruptModel = errors.New("corrupt model")

// DescriptorFile is the name of the descriptor inside a model directory.
const DescriptorFile = "model.json"

// Descriptor locates and describes a persisted factorization. Shard paths
// are relative to the descriptor's directory.
type Descriptor struct {
	X              string  `json:"X"`
	Y              string  `json:"Y"`
	Features       int     `json:"features"`
	Regularization float64 `json:"regularization"`
	Implicit       bool    `json:"implicit"`
	Alpha          float64 `json:"alpha,omitempty"`
	XIDs           []int32 `json:"XIDs"`
	YIDs           []int32 `json:"YIDs"`

	path string
}

// Path returns the location of the descriptor inside the blob store.
func (d *Descriptor) Path() string {
	return d.path
}

// Encode persists m under dir. Both shards are written before the descriptor,
// so a crashed encode never leaves a readable descriptor pointing at missing
// shards.
func Encode(store blob.Store, dir string, m *model.Factorization, reg float64, implicit bool, alpha float64) (*Descriptor, error) {
	xIDs, err := writeShard(store, path.Join(dir, "X.gz"), m.UserFactors)
	if err != nil {
		return nil, errors.Trace(err)
	}
	yIDs, err := writeShard(store, path.Join(dir, "Y.gz"), m.ItemFactors)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if !implicit {
		alpha = 0
	}
	descriptor := &Descriptor{
		X:              "X.gz",
		Y:              "Y.gz",
		Features:       m.Rank,
		Regularization: reg,
		Implicit:       implicit,
		Alpha:          alpha,
		XIDs:           xIDs,
		YIDs:           yIDs,
		path:           path.Join(dir, DescriptorFile),
	}
	w, done, err := store.Create(descriptor.path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if err = json.NewEncoder(w).Encode(descriptor); err != nil {
		_ = w.Close()
		return nil, errors.Trace(err)
	}
	if err = w.Close(); err != nil {
		return nil, errors.Trace(err)
	}
	<-done
	log.Logger().Info("encoded model",
		zap.String("path", descriptor.path),
		zap.Int("users", len(xIDs)),
		zap.Int("items", len(yIDs)))
	return descriptor, nil
}

// ReadDescriptor reads the descriptor at descriptorPath without touching the
// shards it points at.
func ReadDescriptor(store blob.Store, descriptorPath string) (*Descriptor, error) {
	r, err := store.Open(descriptorPath)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer func() {
		_ = r.Close()
	}()
	descriptor := new(Descriptor)
	if err = json.NewDecoder(r).Decode(descriptor); err != nil {
		return nil, errors.Annotatef(ErrCorruptModel, "decode descriptor %s: %v", descriptorPath, err)
	}
	descriptor.path = descriptorPath
	if descriptor.Features <= 0 {
		return nil, errors.Annotatef(ErrCorruptModel, "descriptor %s: invalid features %d", descriptorPath, descriptor.Features)
	}
	return descriptor, nil
}

// Decode reads the descriptor at descriptorPath and streams both shards back.
func Decode(store blob.Store, descriptorPath string) (*model.Factorization, *Descriptor, error) {
	descriptor, err := ReadDescriptor(store, descriptorPath)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	dir := path.Dir(descriptorPath)
	m := model.NewFactorization(descriptor.Features)
	if m.UserFactors, err = readShard(store, path.Join(dir, descriptor.X), descriptor.Features); err != nil {
		return nil, nil, errors.Trace(err)
	}
	if m.ItemFactors, err = readShard(store, path.Join(dir, descriptor.Y), descriptor.Features); err != nil {
		return nil, nil, errors.Trace(err)
	}
	return m, descriptor, nil
}

// writeShard writes one factor map as gzip compressed newline-delimited JSON,
// one [id,[v0,v1,...]] array per line, ids in ascending order. It returns the
// ids in the order they were written.
func writeShard(store blob.Store, name string, factors map[int32][]float64) ([]int32, error) {
	ids := make([]int32, 0, len(factors))
	for id := range factors {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	w, done, err := store.Create(name)
	if err != nil {
		return nil, errors.Trace(err)
	}
	gzipWriter := gzip.NewWriter(w)
	encoder := json.NewEncoder(gzipWriter)
	for _, id := range ids {
		if err = encoder.Encode([]interface{}{id, factors[id]}); err != nil {
			_ = gzipWriter.Close()
			_ = w.Close()
			return nil, errors.Trace(err)
		}
	}
	if err = gzipWriter.Close(); err != nil {
		_ = w.Close()
		return nil, errors.Trace(err)
	}
	if err = w.Close(); err != nil {
		return nil, errors.Trace(err)
	}
	<-done
	return ids, nil
}

func readShard(store blob.Store, name string, features int) (map[int32][]float64, error) {
	r, err := store.Open(name)
	if err != nil {
		return nil, errors.Annotatef(ErrCorruptModel, "open shard %s: %v", name, err)
	}
	defer func() {
		_ = r.Close()
	}()
	gzipReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, errors.Annotatef(ErrCorruptModel, "read shard %s: %v", name, err)
	}
	defer func() {
		_ = gzipReader.Close()
	}()
	factors := make(map[int32][]float64)
	decoder := json.NewDecoder(gzipReader)
	for {
		var line []json.RawMessage
		if err = decoder.Decode(&line); err == io.EOF {
			break
		} else if err != nil {
			return nil, errors.Annotatef(ErrCorruptModel, "decode shard %s: %v", name, err)
		}
		if len(line) != 2 {
			return nil, errors.Annotatef(ErrCorruptModel, "shard %s: expected 2 elements, got %d", name, len(line))
		}
		var id int32
		if err = json.Unmarshal(line[0], &id); err != nil {
			return nil, errors.Annotatef(ErrCorruptModel, "shard %s: %v", name, err)
		}
		var vector []float64
		if err = json.Unmarshal(line[1], &vector); err != nil {
			return nil, errors.Annotatef(ErrCorruptModel, "shard %s: %v", name, err)
		}
		if len(vector) != features {
			return nil, errors.Annotatef(ErrCorruptModel, "shard %s: id %d has %d features, expected %d", name, id, len(vector), features)
		}
		if _, exist := factors[id]; exist {
			return nil, errors.Annotatef(ErrCorruptModel, "shard %s: duplicate id %d", name, id)
		}
		factors[id] = vector
	}
	return factors, nil
}
