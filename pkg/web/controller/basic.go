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

// Package controller implements C10's HTTP handlers: thin adapters that
// validate a request, delegate to the session/exec/notebook/asset/
// checkpoint/introspect managers, and map errors to the wire taxonomy.
package controller

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/notebookd/notebookd/pkg/errtax"
	"github.com/notebookd/notebookd/pkg/util/glob"
	"github.com/notebookd/notebookd/pkg/web/model"
)

type basicController struct {
	ctx *gin.Context
}

func newBasicController(ctx *gin.Context) *basicController {
	return &basicController{ctx: ctx}
}

func (c *basicController) RespondError(status int, code model.ErrorCode, message ...string) {
	resp := model.ErrorResponse{
		Code:    code,
		Message: "",
	}
	if len(message) > 0 {
		resp.Message = message[0]
	}
	c.ctx.JSON(status, resp)
}

func (c *basicController) RespondSuccess(data any) {
	if data == nil {
		c.ctx.Status(http.StatusOK)
		return
	}
	c.ctx.JSON(http.StatusOK, model.SuccessResponse{Data: data})
}

// RespondErrTax maps a component-layer error to its wire status/code,
// falling back to a generic 500 for anything that did not come out of
// errtax (§7, §10.3).
func (c *basicController) RespondErrTax(err error) {
	e, ok := errtax.As(err)
	if !ok {
		c.RespondError(http.StatusInternalServerError, model.ErrorCodeInternal, err.Error())
		return
	}
	status, code := statusForKind(e.Kind)
	c.ctx.JSON(status, model.ErrorResponse{Code: code, Message: e.Message, Context: e.Context})
}

func statusForKind(kind errtax.Kind) (int, model.ErrorCode) {
	switch kind {
	case errtax.InvalidInput:
		return http.StatusBadRequest, model.ErrorCodeInvalidInput
	case errtax.NotFound:
		return http.StatusNotFound, model.ErrorCodeNotFound
	case errtax.NotebookBusy:
		return http.StatusConflict, model.ErrorCodeNotebookBusy
	case errtax.SessionUnavailable:
		return http.StatusServiceUnavailable, model.ErrorCodeSessionUnavailable
	case errtax.KernelStartTimeout:
		return http.StatusGatewayTimeout, model.ErrorCodeKernelStartTimeout
	case errtax.KernelDied:
		return http.StatusServiceUnavailable, model.ErrorCodeKernelDied
	case errtax.ExecutionFailed:
		return http.StatusUnprocessableEntity, model.ErrorCodeExecutionFailed
	case errtax.ExecutionTimeout:
		return http.StatusGatewayTimeout, model.ErrorCodeExecutionTimeout
	case errtax.Cancelled:
		return http.StatusConflict, model.ErrorCodeCancelled
	case errtax.Backpressure:
		return http.StatusTooManyRequests, model.ErrorCodeBackpressure
	case errtax.StorageUnavailable:
		return http.StatusServiceUnavailable, model.ErrorCodeStorageUnavailable
	case errtax.CheckpointTampered:
		return http.StatusUnprocessableEntity, model.ErrorCodeCheckpointTampered
	case errtax.MigrationFailed:
		return http.StatusConflict, model.ErrorCodeMigrationFailed
	default:
		return http.StatusInternalServerError, model.ErrorCodeInternal
	}
}

func (c *basicController) QueryInt64(query string, defaultValue int64) int64 {
	val, err := strconv.ParseInt(c.ctx.Query(query), 10, 64)
	if err != nil {
		return defaultValue
	}
	return val
}

func (c *basicController) queryInt(name string, def int) int {
	raw := c.ctx.Query(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// requirePath enforces the allowed-root boundary (§11's doublestar
// wiring) on any notebook/asset path a client supplies, responding with
// invalid_input and returning false if the path escapes it.
func (c *basicController) requirePath(path string) bool {
	if deps.AllowedRoot == "" || glob.WithinRoot(deps.AllowedRoot, path) {
		return true
	}
	c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidInput, "path escapes the allowed root")
	return false
}

func (c *basicController) bindJSON(target any) error {
	decoder := json.NewDecoder(c.ctx.Request.Body)
	if err := decoder.Decode(target); err != nil {
		return err
	}
	if validator, ok := target.(interface{ Validate() error }); ok {
		return validator.Validate()
	}
	return nil
}

// PingHandler is a liveness probe, unauthenticated (mounted before the
// token middleware in router.go).
func PingHandler(ctx *gin.Context) {
	ctx.String(http.StatusOK, "pong")
}
