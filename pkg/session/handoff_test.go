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

package session

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notebookd/notebookd/pkg/notebook"
)

func TestDetectSyncNeededReportsNoDriftWhenClean(t *testing.T) {
	dir := t.TempDir()
	nm := notebook.NewManager(dir, 0)
	nbPath := filepath.Join(dir, "nb.ipynb")
	_, err := nm.Create(nbPath)
	require.NoError(t, err)

	mgr := &Manager{notebooks: nm}
	plan, err := mgr.DetectSyncNeeded(nbPath)
	require.NoError(t, err)
	assert.False(t, plan.SyncNeeded)
	assert.Equal(t, StrategyNone, plan.RecommendedStrategy)
}

func TestDetectSyncNeededFindsDirtyCells(t *testing.T) {
	dir := t.TempDir()
	nm := notebook.NewManager(dir, 0)
	nbPath := filepath.Join(dir, "nb.ipynb")
	_, err := nm.Create(nbPath)
	require.NoError(t, err)

	_, err = nm.AppendCell(nbPath, notebook.CellCode, "a = 1")
	require.NoError(t, err)
	_, err = nm.AppendCell(nbPath, notebook.CellCode, "b = a + 1")
	require.NoError(t, err)
	_, err = nm.MarkExecuted(nbPath, 0, 1, nil)
	require.NoError(t, err)
	_, err = nm.MarkExecuted(nbPath, 1, 2, nil)
	require.NoError(t, err)

	// Editing cell 0 after execution makes it dirty again.
	_, err = nm.EditCell(nbPath, 0, "a = 2")
	require.NoError(t, err)

	mgr := &Manager{notebooks: nm}
	plan, err := mgr.DetectSyncNeeded(nbPath)
	require.NoError(t, err)
	assert.True(t, plan.SyncNeeded)
	assert.Equal(t, []int{0}, plan.DirtyCells)
	assert.Equal(t, StrategyIncremental, plan.RecommendedStrategy)

	indices, err := mgr.SyncStateFromDisk(nbPath, StrategyIncremental)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, indices)

	full, err := mgr.SyncStateFromDisk(nbPath, StrategyFull)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, full)
}

func TestSmartClosurePropagatesThroughDefines(t *testing.T) {
	nb := &notebook.Notebook{
		Cells: []*notebook.Cell{
			{Type: notebook.CellCode, Source: "x = 1"},
			{Type: notebook.CellCode, Source: "y = x + 1"},
			{Type: notebook.CellCode, Source: "print('unrelated')"},
			{Type: notebook.CellCode, Source: "z = y * 2"},
		},
	}

	// Cell 0 ("x = 1") is dirty: cells 1 and 3 transitively use x, cell 2
	// shares nothing and should be left out.
	needed := smartClosure(nb, 0)
	assert.ElementsMatch(t, []int{0, 1, 3}, needed)
}
