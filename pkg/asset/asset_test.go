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

package asset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notebookd/notebookd/pkg/notebook"
	"github.com/notebookd/notebookd/pkg/store"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	db, err := store.Open(filepath.Join(dir, "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db, time.Hour), filepath.Join(dir, "nb.ipynb")
}

func TestStoreDedupesIdenticalContent(t *testing.T) {
	s, nbPath := newTestStore(t)

	path1, err := s.Store(nbPath, "text/plain", []byte("hello world"))
	require.NoError(t, err)
	path2, err := s.Store(nbPath, "text/plain", []byte("hello world"))
	require.NoError(t, err)

	assert.Equal(t, path1, path2, "identical content must hash to the same asset path")
}

func TestReadHeadAndTail(t *testing.T) {
	s, nbPath := newTestStore(t)
	content := "l1\nl2\nl3\nl4\nl5"
	path, err := s.Store(nbPath, "text/plain", []byte(content))
	require.NoError(t, err)

	head, err := s.Read(path, ReadRequest{Mode: ReadModeHead, Lines: 2})
	require.NoError(t, err)
	assert.Equal(t, "l1\nl2", head.Content)
	assert.True(t, head.Truncated)

	tail, err := s.Read(path, ReadRequest{Mode: ReadModeTail, Lines: 2})
	require.NoError(t, err)
	assert.Equal(t, "l4\nl5", tail.Content)
	assert.True(t, tail.Truncated)
}

func TestReadRangeAndSearch(t *testing.T) {
	s, nbPath := newTestStore(t)
	content := "alpha\nbeta\ngamma\ndelta"
	path, err := s.Store(nbPath, "text/plain", []byte(content))
	require.NoError(t, err)

	rng, err := s.Read(path, ReadRequest{Mode: ReadModeRange, StartLine: 2, EndLine: 3})
	require.NoError(t, err)
	assert.Equal(t, "beta\ngamma", rng.Content)

	found, err := s.Read(path, ReadRequest{Mode: ReadModeSearch, Search: "elt"})
	require.NoError(t, err)
	assert.Equal(t, "delta", found.Content)
}

func TestGCRetainsReferencedAsset(t *testing.T) {
	s, nbPath := newTestStore(t)
	nbMgr := notebook.NewManager(filepath.Join(filepath.Dir(nbPath), "locks"), time.Second)
	_, err := nbMgr.Create(nbPath)
	require.NoError(t, err)

	assetPath, err := s.Store(nbPath, "text/plain", []byte("kept content"))
	require.NoError(t, err)

	outputs, err := json.Marshal([]map[string]string{{"asset_path": assetPath}})
	require.NoError(t, err)
	_, err = nbMgr.InsertCell(nbPath, 0, notebook.CellCode, "print('x')")
	require.NoError(t, err)
	_, err = nbMgr.MarkExecuted(nbPath, 0, 1, outputs)
	require.NoError(t, err)

	require.NoError(t, s.Renew(assetPath, nbPath, "text/plain", int64(len("kept content")), -time.Hour))

	deleted, renewed := s.GCExpired(time.Now(), nbMgr, nil)
	assert.Equal(t, 0, deleted)
	assert.Equal(t, 1, renewed)

	_, statErr := os.Stat(assetPath)
	assert.NoError(t, statErr, "referenced asset must survive GC")
}

func TestGCDeletesUnreferencedExpiredAsset(t *testing.T) {
	s, nbPath := newTestStore(t)
	nbMgr := notebook.NewManager(filepath.Join(filepath.Dir(nbPath), "locks"), time.Second)
	_, err := nbMgr.Create(nbPath)
	require.NoError(t, err)

	assetPath, err := s.Store(nbPath, "text/plain", []byte("orphaned content"))
	require.NoError(t, err)
	require.NoError(t, s.Renew(assetPath, nbPath, "text/plain", int64(len("orphaned content")), -time.Hour))

	deleted, renewed := s.GCExpired(time.Now(), nbMgr, nil)
	assert.Equal(t, 1, deleted)
	assert.Equal(t, 0, renewed)

	_, statErr := os.Stat(assetPath)
	assert.True(t, os.IsNotExist(statErr), "unreferenced expired asset must be removed")
}

func TestGCSurvivesOneDeletionFailure(t *testing.T) {
	s, nbPath := newTestStore(t)
	nbMgr := notebook.NewManager(filepath.Join(filepath.Dir(nbPath), "locks"), time.Second)
	_, err := nbMgr.Create(nbPath)
	require.NoError(t, err)

	var paths []string
	for i := 0; i < 3; i++ {
		p, err := s.Store(nbPath, "text/plain", []byte(fmt.Sprintf("content-%d", i)))
		require.NoError(t, err)
		require.NoError(t, s.Renew(p, nbPath, "text/plain", int64(len("content-x")), -time.Hour))
		paths = append(paths, p)
	}

	// Remove one asset's file out from under the store before the sweep runs;
	// os.Remove on a missing file is tolerated so the other two still get GC'd.
	require.NoError(t, os.Remove(paths[0]))

	deleted, _ := s.GCExpired(time.Now(), nbMgr, nil)
	assert.Equal(t, 3, deleted, "a missing file must not stop the sweep from clearing the rest")
}

func TestGCPatternScopesSweep(t *testing.T) {
	s, nbPath := newTestStore(t)
	nbMgr := notebook.NewManager(filepath.Join(filepath.Dir(nbPath), "locks"), time.Second)
	_, err := nbMgr.Create(nbPath)
	require.NoError(t, err)

	matched, err := s.Store(nbPath, "text/plain", []byte("prune me"))
	require.NoError(t, err)
	require.NoError(t, s.Renew(matched, nbPath, "text/plain", int64(len("prune me")), -time.Hour))

	unmatched, err := s.Store(nbPath, "text/plain", []byte("leave me"))
	require.NoError(t, err)
	require.NoError(t, s.Renew(unmatched, nbPath, "text/plain", int64(len("leave me")), -time.Hour))

	deleted, _ := s.GCExpired(time.Now(), nbMgr, []string{matched})
	assert.Equal(t, 1, deleted, "only the pattern-matched asset should be swept")

	_, matchedErr := os.Stat(matched)
	assert.True(t, os.IsNotExist(matchedErr))
	_, unmatchedErr := os.Stat(unmatched)
	assert.NoError(t, unmatchedErr, "non-matching expired asset must survive a scoped sweep")
}
