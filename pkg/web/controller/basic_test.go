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

package controller

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notebookd/notebookd/pkg/errtax"
	"github.com/notebookd/notebookd/pkg/web/model"
)

func TestRespondSuccessWritesPayload(t *testing.T) {
	ctx, w := newTestContext(http.MethodGet, "/", nil)
	ctrl := newBasicController(ctx)

	ctrl.RespondSuccess(map[string]string{"status": "ok"})

	assert.Equal(t, http.StatusOK, w.Code)
	var got model.SuccessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
}

func TestRespondSuccessNilDataShortCircuits(t *testing.T) {
	ctx, w := newTestContext(http.MethodGet, "/", nil)
	ctrl := newBasicController(ctx)

	ctrl.RespondSuccess(nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.Bytes())
}

func TestRespondErrorAddsCodeAndMessage(t *testing.T) {
	ctx, w := newTestContext(http.MethodGet, "/", nil)
	ctrl := newBasicController(ctx)

	ctrl.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidInput, "invalid payload")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var got model.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, model.ErrorCodeInvalidInput, got.Code)
	assert.Equal(t, "invalid payload", got.Message)
}

func TestRespondErrorOmittedMessage(t *testing.T) {
	ctx, w := newTestContext(http.MethodGet, "/", nil)
	ctrl := newBasicController(ctx)

	ctrl.RespondError(http.StatusNotFound, model.ErrorCodeNotFound)

	var got model.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Empty(t, got.Message)
}

func TestRespondErrTaxMapsKindToStatus(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   model.ErrorCode
	}{
		{"notebook busy", errtax.New(errtax.NotebookBusy, "busy"), http.StatusConflict, model.ErrorCodeNotebookBusy},
		{"kernel start timeout", errtax.New(errtax.KernelStartTimeout, "timed out"), http.StatusGatewayTimeout, model.ErrorCodeKernelStartTimeout},
		{"not found", errtax.New(errtax.NotFound, "missing"), http.StatusNotFound, model.ErrorCodeNotFound},
		{"backpressure", errtax.New(errtax.Backpressure, "overloaded"), http.StatusTooManyRequests, model.ErrorCodeBackpressure},
		{"opaque error falls back", assert.AnError, http.StatusInternalServerError, model.ErrorCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, w := newTestContext(http.MethodGet, "/", nil)
			ctrl := newBasicController(ctx)

			ctrl.RespondErrTax(tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			var got model.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, tt.wantCode, got.Code)
		})
	}
}

func TestQueryInt64(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		def      int64
		expected int64
	}{
		{name: "valid number", query: "n=42", def: 0, expected: 42},
		{name: "missing uses default", query: "", def: 5, expected: 5},
		{name: "invalid uses default", query: "n=not-a-number", def: -1, expected: -1},
		{name: "negative number", query: "n=-10", def: 0, expected: -10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _ := newTestContext(http.MethodGet, "/?"+tt.query, nil)
			ctrl := newBasicController(ctx)

			assert.Equal(t, tt.expected, ctrl.QueryInt64("n", tt.def))
		})
	}
}

func TestRequirePathRejectsEscape(t *testing.T) {
	ctx, w := newTestContext(http.MethodGet, "/", nil)
	ctrl := newBasicController(ctx)

	prevRoot := deps.AllowedRoot
	deps.AllowedRoot = "/workspace"
	defer func() { deps.AllowedRoot = prevRoot }()

	assert.False(t, ctrl.requirePath("/workspace/../etc/passwd"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequirePathAllowsWithinRoot(t *testing.T) {
	ctx, _ := newTestContext(http.MethodGet, "/", nil)
	ctrl := newBasicController(ctx)

	prevRoot := deps.AllowedRoot
	deps.AllowedRoot = "/workspace"
	defer func() { deps.AllowedRoot = prevRoot }()

	assert.True(t, ctrl.requirePath("/workspace/notebooks/a.ipynb"))
}
