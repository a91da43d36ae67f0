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
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"

	"github.com/gorse-io/refit/model"
	"github.com/gorse-io/refit/storage/blob"
)

func newTestModel() *model.Factorization {
	m := model.NewFactorization(2)
	m.UserFactors[3] = []float64{0.1, 0.2}
	m.UserFactors[1] = []float64{0.3, 0.4}
	m.ItemFactors[10] = []float64{0.5, 0.6}
	m.ItemFactors[20] = []float64{0.7, 0.8}
	m.ItemFactors[15] = []float64{0.9, 1.0}
	return m
}

func TestEncodeDecode(t *testing.T) {
	store := blob.NewPOSIX(t.TempDir())
	m := newTestModel()

	descriptor, err := Encode(store, "models/1/candidate-0", m, 0.01, false, 0)
	assert.NoError(t, err)
	assert.Equal(t, "X.gz", descriptor.X)
	assert.Equal(t, "Y.gz", descriptor.Y)
	assert.Equal(t, 2, descriptor.Features)
	assert.Equal(t, 0.01, descriptor.Regularization)
	assert.False(t, descriptor.Implicit)
	assert.Zero(t, descriptor.Alpha)
	assert.Equal(t, []int32{1, 3}, descriptor.XIDs)
	assert.Equal(t, []int32{10, 15, 20}, descriptor.YIDs)
	assert.Equal(t, "models/1/candidate-0/model.json", descriptor.Path())

	decoded, decodedDescriptor, err := Decode(store, descriptor.Path())
	assert.NoError(t, err)
	assert.Equal(t, m.Rank, decoded.Rank)
	assert.Equal(t, descriptor.XIDs, decodedDescriptor.XIDs)
	assert.Equal(t, descriptor.Path(), decodedDescriptor.Path())
	assert.Len(t, decoded.UserFactors, 2)
	assert.Len(t, decoded.ItemFactors, 3)
	for id, vector := range m.UserFactors {
		for i, v := range vector {
			assert.InDelta(t, v, decoded.UserFactors[id][i], 1e-9)
		}
	}
	for id, vector := range m.ItemFactors {
		for i, v := range vector {
			assert.InDelta(t, v, decoded.ItemFactors[id][i], 1e-9)
		}
	}
}

func TestEncodeImplicit(t *testing.T) {
	store := blob.NewPOSIX(t.TempDir())
	descriptor, err := Encode(store, "m", newTestModel(), 0.01, true, 40)
	assert.NoError(t, err)
	assert.True(t, descriptor.Implicit)
	assert.Equal(t, 40.0, descriptor.Alpha)

	// alpha appears in the persisted descriptor only in implicit mode
	r, err := store.Open("m/model.json")
	assert.NoError(t, err)
	content, err := io.ReadAll(r)
	assert.NoError(t, err)
	assert.NoError(t, r.Close())
	assert.Contains(t, string(content), `"alpha":40`)

	store = blob.NewPOSIX(t.TempDir())
	_, err = Encode(store, "m", newTestModel(), 0.01, false, 40)
	assert.NoError(t, err)
	r, err = store.Open("m/model.json")
	assert.NoError(t, err)
	content, err = io.ReadAll(r)
	assert.NoError(t, err)
	assert.NoError(t, r.Close())
	assert.NotContains(t, string(content), "alpha")
}

// writeRawShard writes arbitrary lines as a gzip compressed shard.
func writeRawShard(t *testing.T, store blob.Store, name string, lines []string) {
	w, done, err := store.Create(name)
	assert.NoError(t, err)
	gzipWriter := gzip.NewWriter(w)
	for _, line := range lines {
		_, err = gzipWriter.Write([]byte(line + "\n"))
		assert.NoError(t, err)
	}
	assert.NoError(t, gzipWriter.Close())
	assert.NoError(t, w.Close())
	<-done
}

func writeRawDescriptor(t *testing.T, store blob.Store, name string, descriptor Descriptor) {
	w, done, err := store.Create(name)
	assert.NoError(t, err)
	assert.NoError(t, json.NewEncoder(w).Encode(descriptor))
	assert.NoError(t, w.Close())
	<-done
}

func TestDecodeCorrupt(t *testing.T) {
	descriptor := Descriptor{X: "X.gz", Y: "Y.gz", Features: 2, XIDs: []int32{1}, YIDs: []int32{10}}

	t.Run("missing shard", func(t *testing.T) {
		store := blob.NewPOSIX(t.TempDir())
		writeRawDescriptor(t, store, "m/model.json", descriptor)
		writeRawShard(t, store, "m/X.gz", []string{`[1,[0.1,0.2]]`})
		_, _, err := Decode(store, "m/model.json")
		assert.ErrorIs(t, err, ErrCorruptModel)
	})

	t.Run("not a pair", func(t *testing.T) {
		store := blob.NewPOSIX(t.TempDir())
		writeRawDescriptor(t, store, "m/model.json", descriptor)
		writeRawShard(t, store, "m/X.gz", []string{`[1,[0.1,0.2],3]`})
		writeRawShard(t, store, "m/Y.gz", []string{`[10,[0.1,0.2]]`})
		_, _, err := Decode(store, "m/model.json")
		assert.ErrorIs(t, err, ErrCorruptModel)
	})

	t.Run("wrong vector length", func(t *testing.T) {
		store := blob.NewPOSIX(t.TempDir())
		writeRawDescriptor(t, store, "m/model.json", descriptor)
		writeRawShard(t, store, "m/X.gz", []string{`[1,[0.1,0.2,0.3]]`})
		writeRawShard(t, store, "m/Y.gz", []string{`[10,[0.1,0.2]]`})
		_, _, err := Decode(store, "m/model.json")
		assert.ErrorIs(t, err, ErrCorruptModel)
	})

	t.Run("duplicate id", func(t *testing.T) {
		store := blob.NewPOSIX(t.TempDir())
		writeRawDescriptor(t, store, "m/model.json", descriptor)
		writeRawShard(t, store, "m/X.gz", []string{`[1,[0.1,0.2]]`, `[1,[0.3,0.4]]`})
		writeRawShard(t, store, "m/Y.gz", []string{`[10,[0.1,0.2]]`})
		_, _, err := Decode(store, "m/model.json")
		assert.ErrorIs(t, err, ErrCorruptModel)
	})

	t.Run("not json", func(t *testing.T) {
		store := blob.NewPOSIX(t.TempDir())
		writeRawDescriptor(t, store, "m/model.json", descriptor)
		writeRawShard(t, store, "m/X.gz", []string{`not json`})
		writeRawShard(t, store, "m/Y.gz", []string{`[10,[0.1,0.2]]`})
		_, _, err := Decode(store, "m/model.json")
		assert.ErrorIs(t, err, ErrCorruptModel)
	})

	t.Run("zero features", func(t *testing.T) {
		store := blob.NewPOSIX(t.TempDir())
		writeRawDescriptor(t, store, "m/model.json", Descriptor{X: "X.gz", Y: "Y.gz"})
		_, _, err := Decode(store, "m/model.json")
		assert.ErrorIs(t, err, ErrCorruptModel)
	})
}
