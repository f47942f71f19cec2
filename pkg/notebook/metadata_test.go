// Copyright 2025 Alibaba Group Holding Ltd.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package notebook

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotebookMetadataRoundTrip(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir, time.Second)
	nbPath := filepath.Join(dir, "nb.ipynb")
	_, err := m.Create(nbPath)
	require.NoError(t, err)

	_, err = m.SetMetadata(nbPath, "author", "ada")
	require.NoError(t, err)

	v, ok, err := m.GetMetadata(nbPath, "author")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "ada", v)

	_, err = m.DeleteMetadata(nbPath, "author")
	require.NoError(t, err)
	_, ok, err = m.GetMetadata(nbPath, "author")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCellMetadataRoundTripAndHashesSurviveDisk(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir, time.Second)
	nbPath := filepath.Join(dir, "nb.ipynb")
	_, err := m.Create(nbPath)
	require.NoError(t, err)

	_, err = m.AppendCell(nbPath, CellCode, "x = 1")
	require.NoError(t, err)
	_, err = m.MarkExecuted(nbPath, 0, 1, nil)
	require.NoError(t, err)
	_, err = m.SetCellMetadata(nbPath, 0, "tag", "setup")
	require.NoError(t, err)

	nb, err := m.Read(nbPath)
	require.NoError(t, err)
	assert.Equal(t, nb.Cells[0].Metadata.SourceHash, nb.Cells[0].Metadata.LastExecutedHash)
	assert.Equal(t, "setup", nb.Cells[0].Metadata.Extra["tag"])

	// Reading the raw file confirms Extra actually made it to disk
	// flattened alongside the hash fields, not silently dropped.
	raw, err := os.ReadFile(nbPath)
	require.NoError(t, err)
	var onDisk struct {
		Cells []struct {
			Metadata map[string]any `json:"metadata"`
		} `json:"cells"`
	}
	require.NoError(t, json.Unmarshal(raw, &onDisk))
	assert.Equal(t, "setup", onDisk.Cells[0].Metadata["tag"])
	assert.NotEmpty(t, onDisk.Cells[0].Metadata["source_hash"])

	v, ok, err := m.GetCellMetadata(nbPath, 0, "tag")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "setup", v)

	_, err = m.DeleteCellMetadata(nbPath, 0, "tag")
	require.NoError(t, err)
	list, err := m.ListCellMetadata(nbPath, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}
