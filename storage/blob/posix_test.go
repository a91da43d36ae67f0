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
	"path"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gorse-io/refit/config"
)

func TestPOSIX(t *testing.T) {
	// create client
	client := NewPOSIX(path.Join(t.TempDir(), "blob"))

	// write a temp file
	w, done, err := client.Create("test")
	assert.NoError(t, err)
	_, err = w.Write([]byte("hello world"))
	assert.NoError(t, err)
	assert.NoError(t, w.Close())
	<-done

	// read the file
	r, err := client.Open("test")
	assert.NoError(t, err)
	content := make([]byte, 11)
	_, err = r.Read(content)
	assert.NoError(t, err)
	assert.Equal(t, "hello world", string(content))
	assert.NoError(t, r.Close())
}

func TestPOSIX_List(t *testing.T) {
	client := NewPOSIX(path.Join(t.TempDir(), "blob"))

	// empty store
	names, err := client.List("")
	assert.NoError(t, err)
	assert.Empty(t, names)

	// write a few files
	for _, name := range []string{"models/1/X.gz", "models/1/model.json", "models/2/model.json", "data/input.csv"} {
		w, done, err := client.Create(name)
		assert.NoError(t, err)
		_, err = w.Write([]byte(name))
		assert.NoError(t, err)
		assert.NoError(t, w.Close())
		<-done
	}

	// list by prefix
	names, err = client.List("models/1/")
	assert.NoError(t, err)
	assert.Equal(t, []string{"models/1/X.gz", "models/1/model.json"}, names)
	names, err = client.List("models/")
	assert.NoError(t, err)
	assert.Equal(t, []string{"models/1/X.gz", "models/1/model.json", "models/2/model.json"}, names)
	names, err = client.List("")
	assert.NoError(t, err)
	assert.Len(t, names, 4)

	// missing prefix
	names, err = client.List("nowhere/")
	assert.NoError(t, err)
	assert.Empty(t, names)
}

func TestNewStore(t *testing.T) {
	store, err := NewStore(config.StorageConfig{Type: "posix", Path: t.TempDir()})
	assert.NoError(t, err)
	assert.IsType(t, &POSIX{}, store)

	_, err = NewStore(config.StorageConfig{Type: "ftp"})
	assert.Error(t, err)
}
