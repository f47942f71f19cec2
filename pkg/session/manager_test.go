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
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notebookd/notebookd/pkg/asset"
	"github.com/notebookd/notebookd/pkg/exec"
	"github.com/notebookd/notebookd/pkg/iomux"
	"github.com/notebookd/notebookd/pkg/kernelmgr"
	"github.com/notebookd/notebookd/pkg/notebook"
	"github.com/notebookd/notebookd/pkg/sanitize"
	"github.com/notebookd/notebookd/pkg/store"
)

// fakeJupyter emulates enough of the REST surface for session lifecycle
// tests: session/kernel creation, liveness, interrupt, shutdown, restart.
type fakeJupyter struct {
	srv        *httptest.Server
	nextID     int
	mu         struct{ kernelIDs map[string]bool }
	interrupts int
}

func newFakeJupyter(t *testing.T) *fakeJupyter {
	t.Helper()
	fj := &fakeJupyter{}
	fj.mu.kernelIDs = make(map[string]bool)
	upgrader := websocket.Upgrader{}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/sessions", func(w http.ResponseWriter, r *http.Request) {
		fj.nextID++
		id := fmt.Sprintf("kernel-%d", fj.nextID)
		fj.mu.kernelIDs[id] = true
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":   fmt.Sprintf("session-%d", fj.nextID),
			"path": "nb.ipynb",
			"kernel": map[string]any{
				"id":   id,
				"name": "python3",
			},
		})
	})
	mux.HandleFunc("/api/kernels/", func(w http.ResponseWriter, r *http.Request) {
		rest := r.URL.Path[len("/api/kernels/"):]
		switch {
		case r.Method == http.MethodDelete:
			id := rest
			delete(fj.mu.kernelIDs, id)
			w.WriteHeader(http.StatusNoContent)
		case len(rest) > len("/interrupt") && rest[len(rest)-len("/interrupt"):] == "/interrupt":
			fj.interrupts++
			w.WriteHeader(http.StatusNoContent)
		case len(rest) > len("/channels") && rest[len(rest)-len("/channels"):] == "/channels":
			conn, err := upgrader.Upgrade(w, r, nil)
			if err != nil {
				return
			}
			defer conn.Close()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		default:
			id := rest
			if !fj.mu.kernelIDs[id] {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id": id, "name": "python3", "execution_state": "idle",
			})
		}
	})
	mux.HandleFunc("/api/kernels", func(w http.ResponseWriter, r *http.Request) {
		var list []map[string]any
		for id := range fj.mu.kernelIDs {
			list = append(list, map[string]any{"id": id, "name": "python3", "execution_state": "idle"})
		}
		_ = json.NewEncoder(w).Encode(list)
	})

	fj.srv = httptest.NewServer(mux)
	t.Cleanup(fj.srv.Close)
	return fj
}

type testHarness struct {
	fj        *fakeJupyter
	mgr       *Manager
	db        *store.Store
	notebooks *notebook.Manager
	kernels   *kernelmgr.Manager
	dir       string
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()
	dir := t.TempDir()
	db, err := store.Open(filepath.Join(dir, "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	fj := newFakeJupyter(t)
	kernels := kernelmgr.New(fj.srv.URL, "tok", time.Second)
	hubs := iomux.NewRegistry()
	notebooks := notebook.NewManager(dir, time.Second)
	assets := asset.New(db, time.Hour)
	sanitizer := sanitize.New(assets, 2048, 50)
	sched := exec.New(db, kernels, hubs, notebooks, sanitizer, 8, time.Second)

	mgr := New(db, kernels, hubs, notebooks, sched, 4, time.Second)

	return &testHarness{fj: fj, mgr: mgr, db: db, notebooks: notebooks, kernels: kernels, dir: dir}
}

func (h *testHarness) notebookPath(name string) string {
	return filepath.Join(h.dir, name)
}

func TestStartSessionIsIdempotent(t *testing.T) {
	h := newTestHarness(t)
	nbPath := h.notebookPath("a.ipynb")

	first, err := h.mgr.StartSession(nbPath, "python3", "fp-1")
	require.NoError(t, err)

	second, err := h.mgr.StartSession(nbPath, "python3", "fp-1")
	require.NoError(t, err)
	assert.Same(t, first, second)

	rec, err := h.db.GetSession(nbPath)
	require.NoError(t, err)
	assert.Equal(t, store.SessionReady, rec.Status)
}

func TestStartSessionRejectsOverCapacity(t *testing.T) {
	h := newTestHarness(t)
	h.mgr.maxSessions = 1

	_, err := h.mgr.StartSession(h.notebookPath("a.ipynb"), "python3", "fp-1")
	require.NoError(t, err)

	_, err = h.mgr.StartSession(h.notebookPath("b.ipynb"), "python3", "fp-1")
	require.Error(t, err)
}

func TestStopSessionReleasesLockAndKernel(t *testing.T) {
	h := newTestHarness(t)
	nbPath := h.notebookPath("a.ipynb")

	_, err := h.mgr.StartSession(nbPath, "python3", "fp-1")
	require.NoError(t, err)

	require.NoError(t, h.mgr.StopSession(nbPath))

	_, err = h.db.GetSession(nbPath)
	assert.Error(t, err)

	desc := h.mgr.FindActiveSession(nbPath)
	assert.False(t, desc.Found)

	// Lock was released: a fresh session for the same path can be started.
	_, err = h.mgr.StartSession(nbPath, "python3", "fp-1")
	assert.NoError(t, err)
}

func TestInterruptCallsKernel(t *testing.T) {
	h := newTestHarness(t)
	nbPath := h.notebookPath("a.ipynb")

	_, err := h.mgr.StartSession(nbPath, "python3", "fp-1")
	require.NoError(t, err)

	require.NoError(t, h.mgr.Interrupt(nbPath))
	assert.Equal(t, 1, h.fj.interrupts)
}

func TestRestartGetsFreshKernelID(t *testing.T) {
	h := newTestHarness(t)
	nbPath := h.notebookPath("a.ipynb")

	sess, err := h.mgr.StartSession(nbPath, "python3", "fp-1")
	require.NoError(t, err)
	oldKernelID := sess.Handle.KernelID

	require.NoError(t, h.mgr.Restart(nbPath))
	assert.NotEqual(t, oldKernelID, sess.Handle.KernelID)

	rec, err := h.db.GetSession(nbPath)
	require.NoError(t, err)
	assert.Equal(t, sess.Handle.KernelID, rec.ConnectionDescriptor)
}

func TestListSessions(t *testing.T) {
	h := newTestHarness(t)
	_, err := h.mgr.StartSession(h.notebookPath("a.ipynb"), "python3", "fp-1")
	require.NoError(t, err)
	_, err = h.mgr.StartSession(h.notebookPath("b.ipynb"), "python3", "fp-1")
	require.NoError(t, err)

	descs := h.mgr.ListSessions()
	assert.Len(t, descs, 2)
}
