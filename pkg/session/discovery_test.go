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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateSessionMovesRecordAndMap(t *testing.T) {
	h := newTestHarness(t)
	oldPath := h.notebookPath("old.ipynb")
	newPath := h.notebookPath("new.ipynb")

	sess, err := h.mgr.StartSession(oldPath, "python3", "fp-1")
	require.NoError(t, err)

	require.NoError(t, h.mgr.MigrateSession(oldPath, newPath))

	assert.Equal(t, newPath, sess.NotebookPath)
	assert.False(t, h.mgr.FindActiveSession(oldPath).Found)
	assert.True(t, h.mgr.FindActiveSession(newPath).Found)

	_, err = h.db.GetSession(oldPath)
	assert.Error(t, err)
	rec, err := h.db.GetSession(newPath)
	require.NoError(t, err)
	assert.Equal(t, newPath, rec.NotebookPath)
}

func TestMigrateSessionUnknownPath(t *testing.T) {
	h := newTestHarness(t)
	err := h.mgr.MigrateSession(h.notebookPath("nope.ipynb"), h.notebookPath("new.ipynb"))
	assert.Error(t, err)
}

func TestAttachSessionResolvesPID(t *testing.T) {
	h := newTestHarness(t)
	nbPath := h.notebookPath("a.ipynb")

	sess, err := h.mgr.StartSession(nbPath, "python3", "fp-1")
	require.NoError(t, err)

	pid := pidFromKernelID(sess.Handle.KernelID)
	resolved, err := h.mgr.AttachSession(pid)
	require.NoError(t, err)
	assert.Equal(t, nbPath, resolved)
}
