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
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/notebookd/notebookd/pkg/session"
	"github.com/notebookd/notebookd/pkg/web/model"
)

// HandoffController implements §6.1's Handoff operation group: detecting
// and reconciling drift between a notebook file edited on disk and the
// live kernel's executed state.
type HandoffController struct {
	*basicController
}

func NewHandoffController(ctx *gin.Context) *HandoffController {
	return &HandoffController{basicController: newBasicController(ctx)}
}

// DetectSyncNeeded implements detect_sync_needed.
func (c *HandoffController) DetectSyncNeeded() {
	path := c.ctx.Query("notebook_path")
	if path == "" {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidInput, "notebook_path is required")
		return
	}
	plan, err := deps.Sessions.DetectSyncNeeded(path)
	if err != nil {
		c.RespondErrTax(err)
		return
	}
	c.RespondSuccess(plan)
}

// SyncStateFromDisk implements sync_state_from_disk.
func (c *HandoffController) SyncStateFromDisk() {
	var req model.SyncSessionRequest
	if err := c.bindJSON(&req); err != nil {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidInput, err.Error())
		return
	}
	reexecuted, err := deps.Sessions.SyncStateFromDisk(req.NotebookPath, session.SyncStrategy(req.Strategy))
	if err != nil {
		c.RespondErrTax(err)
		return
	}
	c.RespondSuccess(model.SyncSessionResponse{ReexecutedCells: reexecuted})
}

// NotebookHistory implements notebook_history.
func (c *HandoffController) NotebookHistory() {
	path := c.ctx.Query("notebook_path")
	if path == "" {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidInput, "notebook_path is required")
		return
	}
	limit := c.queryInt("limit", 50)
	entries, err := deps.Sessions.NotebookHistory(path, limit)
	if err != nil {
		c.RespondErrTax(err)
		return
	}
	c.RespondSuccess(entries)
}
