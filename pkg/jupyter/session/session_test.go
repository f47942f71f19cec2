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
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreateSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected request method POST, got %s", r.Method)
		}
		if r.URL.Path != "/api/sessions" {
			t.Errorf("expected request path /api/sessions, got %s", r.URL.Path)
		}

		var requestBody SessionCreateRequest
		decoder := json.NewDecoder(r.Body)
		if err := decoder.Decode(&requestBody); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}

		if requestBody.Name != "Test Session" {
			t.Errorf("expected session name 'Test Session', got '%s'", requestBody.Name)
		}
		if requestBody.Path != "/path/to/notebook.ipynb" {
			t.Errorf("expected session path '/path/to/notebook.ipynb', got '%s'", requestBody.Path)
		}
		if requestBody.Type != "notebook" {
			t.Errorf("expected session type 'notebook', got '%s'", requestBody.Type)
		}
		if requestBody.Kernel.Name != "python3" {
			t.Errorf("expected kernel name 'python3', got '%s'", requestBody.Kernel.Name)
		}

		response := `{
			"id": "new-session-id",
			"path": "/path/to/notebook.ipynb",
			"name": "Test Session",
			"type": "notebook",
			"kernel": {
				"id": "new-kernel-id",
				"name": "python3",
				"last_activity": "2023-01-01T00:00:00Z",
				"execution_state": "idle",
				"connections": 0
			}
		}`

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(response))
	}))
	defer server.Close()

	client := NewClient(server.URL, &http.Client{})

	newSession, err := client.CreateSession("Test Session", "/path/to/notebook.ipynb", "python3")
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	if newSession.ID != "new-session-id" {
		t.Errorf("expected session ID 'new-session-id', got '%s'", newSession.ID)
	}
	if newSession.Name != "Test Session" {
		t.Errorf("expected session name 'Test Session', got '%s'", newSession.Name)
	}
	if newSession.Path != "/path/to/notebook.ipynb" {
		t.Errorf("expected session path '/path/to/notebook.ipynb', got '%s'", newSession.Path)
	}
	if newSession.Kernel.ID != "new-kernel-id" {
		t.Errorf("expected kernel ID 'new-kernel-id', got '%s'", newSession.Kernel.ID)
	}
}
