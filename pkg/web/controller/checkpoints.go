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

	"github.com/notebookd/notebookd/pkg/web/model"
)

// CheckpointController implements §6.1's Checkpoints operation group.
type CheckpointController struct {
	*basicController
}

func NewCheckpointController(ctx *gin.Context) *CheckpointController {
	return &CheckpointController{basicController: newBasicController(ctx)}
}

// SaveCheckpoint implements save_checkpoint.
func (c *CheckpointController) SaveCheckpoint() {
	var req model.SaveCheckpointRequest
	if err := c.bindJSON(&req); err != nil {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidInput, err.Error())
		return
	}
	payloadPath, err := deps.Checkpoints.Save(req.NotebookPath, req.Name, req.VariableNames)
	if err != nil {
		c.RespondErrTax(err)
		return
	}
	c.RespondSuccess(model.SaveCheckpointResponse{PayloadPath: payloadPath})
}

// LoadCheckpoint implements load_checkpoint.
func (c *CheckpointController) LoadCheckpoint() {
	var req model.LoadCheckpointRequest
	if err := c.bindJSON(&req); err != nil {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidInput, err.Error())
		return
	}
	if err := deps.Checkpoints.Load(req.NotebookPath, req.Name, req.AutoInstall); err != nil {
		c.RespondErrTax(err)
		return
	}
	c.RespondSuccess(nil)
}

// ListCheckpoints implements list_checkpoints.
func (c *CheckpointController) ListCheckpoints() {
	path := c.ctx.Query("notebook_path")
	if path == "" {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidInput, "notebook_path is required")
		return
	}
	list, err := deps.Checkpoints.List(path)
	if err != nil {
		c.RespondErrTax(err)
		return
	}
	c.RespondSuccess(list)
}

// DeleteCheckpoint implements delete_checkpoint.
func (c *CheckpointController) DeleteCheckpoint() {
	var req model.DeleteCheckpointRequest
	if err := c.bindJSON(&req); err != nil {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidInput, err.Error())
		return
	}
	if err := deps.Checkpoints.Delete(req.NotebookPath, req.Name); err != nil {
		c.RespondErrTax(err)
		return
	}
	c.RespondSuccess(nil)
}
