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

package checkpoint

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notebookd/notebookd/pkg/errtax"
	"github.com/notebookd/notebookd/pkg/iomux"
	"github.com/notebookd/notebookd/pkg/jupyter/execute"
	"github.com/notebookd/notebookd/pkg/kernelmgr"
)

// fakeKernel emulates just enough of a Jupyter server to drive the
// checkpoint Manager: session creation and a channel socket that pattern
// matches the handful of code snippets checkpoint.go ever sends, standing
// in for a real interpreter actually running pickle/importlib.
func fakeKernel(t *testing.T) *httptest.Server {
	t.Helper()
	kernelID := "kernel-1"
	upgrader := websocket.Upgrader{}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/sessions", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "session-1", "path": "nb.ipynb",
			"kernel": map[string]any{"id": kernelID, "name": "python3"},
		})
	})
	mux.HandleFunc("/api/kernels/"+kernelID, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"id": kernelID, "name": "python3", "execution_state": "idle"})
	})
	mux.HandleFunc("/api/kernels/"+kernelID+"/channels", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		for {
			var msg execute.Message
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			var code struct {
				Code string `json:"code"`
			}
			_ = json.Unmarshal(msg.Content, &code)
			parent := execute.Header{MessageID: msg.Header.MessageID}

			var stdout string
			switch {
			case strings.Contains(code.Code, payloadMarker):
				stdout = payloadMarker + base64.StdEncoding.EncodeToString([]byte("fake pickled namespace")) + "\n"
			case strings.Contains(code.Code, "__ckpt_sys.version"):
				stdout = "3.11.4\n"
			case strings.Contains(code.Code, "__ckpt_meta.distributions"):
				stdout = `{"numpy": "1.26.0"}` + "\n"
			default:
				stdout = ""
			}
			if stdout != "" {
				content, _ := json.Marshal(execute.StreamOutput{Name: execute.StreamStdout, Text: stdout})
				_ = conn.WriteJSON(execute.Message{Header: execute.Header{MessageType: "stream"}, ParentHeader: parent, Content: content})
			}
			statusContent, _ := json.Marshal(execute.StatusUpdate{ExecutionState: execute.StateIdle})
			_ = conn.WriteJSON(execute.Message{Header: execute.Header{MessageType: "status"}, ParentHeader: parent, Content: statusContent})
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	srv := fakeKernel(t)
	kernels := kernelmgr.New(srv.URL, "tok", time.Second)
	hubs := iomux.NewRegistry()

	nbPath := "nb.ipynb"
	_, err := kernels.Start(nbPath, "python3", "fp-1")
	require.NoError(t, err)

	dir := t.TempDir()
	m := New(dir, []byte("test-secret"), kernels, hubs, 2*time.Second)
	return m, nbPath
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	m, nbPath := newTestManager(t)

	path, err := m.Save(nbPath, "ckA", []string{"df"})
	require.NoError(t, err)
	assert.FileExists(t, path)

	checkpoints, err := m.List(nbPath)
	require.NoError(t, err)
	require.Len(t, checkpoints, 1)
	assert.Equal(t, "ckA", checkpoints[0].Name)
	assert.Equal(t, "3.11.4", checkpoints[0].InterpreterVersion)
	assert.Equal(t, map[string]string{"numpy": "1.26.0"}, checkpoints[0].Dependencies)

	require.NoError(t, m.Load(nbPath, "ckA", false))
}

func TestLoadDetectsTamperedPayload(t *testing.T) {
	m, nbPath := newTestManager(t)

	path, err := m.Save(nbPath, "ckA", []string{"df"})
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	nl := strings.IndexByte(string(raw), '\n')
	require.Greater(t, nl, 0)
	raw[len(raw)-1] ^= 0xFF // flip a payload bit, leaving the MAC line untouched
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	err = m.Load(nbPath, "ckA", false)
	require.Error(t, err)
	e, ok := errtax.As(err)
	require.True(t, ok)
	assert.Equal(t, errtax.CheckpointTampered, e.Kind)
}

func TestListAndDelete(t *testing.T) {
	m, nbPath := newTestManager(t)

	_, err := m.Save(nbPath, "ckA", []string{"df"})
	require.NoError(t, err)

	checkpoints, err := m.List(nbPath)
	require.NoError(t, err)
	require.Len(t, checkpoints, 1)

	require.NoError(t, m.Delete(nbPath, "ckA"))

	checkpoints, err = m.List(nbPath)
	require.NoError(t, err)
	assert.Empty(t, checkpoints)

	err = m.Delete(nbPath, "ckA")
	require.Error(t, err)
	e, ok := errtax.As(err)
	require.True(t, ok)
	assert.Equal(t, errtax.NotFound, e.Kind)
}

func TestNotebookHashIsFilenameSafe(t *testing.T) {
	h := notebookHash(filepath.Join("a", "b c", "nb.ipynb"))
	assert.NotContains(t, h, string(filepath.Separator))
	assert.NotContains(t, h, " ")
}
