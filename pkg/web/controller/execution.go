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
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/notebookd/notebookd/pkg/notebook"
	"github.com/notebookd/notebookd/pkg/store"
	"github.com/notebookd/notebookd/pkg/web/model"
)

// ExecutionController implements §6.1's Execution operation group.
type ExecutionController struct {
	*basicController

	chunkWriter sync.Mutex
}

func NewExecutionController(ctx *gin.Context) *ExecutionController {
	return &ExecutionController{basicController: newBasicController(ctx)}
}

func taskResponse(t *store.Task) model.TaskStatusResponse {
	return model.TaskStatusResponse{
		TaskID:         t.TaskID,
		NotebookPath:   t.NotebookPath,
		CellIndex:      t.CellIndex,
		Status:         string(t.Status),
		CreatedAt:      t.CreatedAt,
		StartedAt:      t.StartedAt,
		CompletedAt:    t.CompletedAt,
		ExecutionCount: t.ExecutionCount,
		Outputs:        t.OutputsBlob,
		Error:          t.ErrorBlob,
	}
}

// RunCellAsync implements run_cell_async.
func (c *ExecutionController) RunCellAsync() {
	var req model.RunCellRequest
	if err := c.bindJSON(&req); err != nil {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidInput, err.Error())
		return
	}
	taskID, err := deps.Scheduler.Submit(req.NotebookPath, req.CellIndex, req.Code)
	if err != nil {
		c.RespondErrTax(err)
		return
	}
	c.RespondSuccess(model.TaskSubmission{TaskID: taskID})
}

// RunAllCells implements run_all_cells: submits every code cell in
// document order and returns one task id per submitted cell.
func (c *ExecutionController) RunAllCells() {
	var req model.RunAllCellsRequest
	if err := c.bindJSON(&req); err != nil {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidInput, err.Error())
		return
	}
	nb, err := deps.Notebooks.Read(req.NotebookPath)
	if err != nil {
		c.RespondErrTax(err)
		return
	}
	taskIDs := make([]string, 0, len(nb.Cells))
	for i, cell := range nb.Cells {
		if cell.Type != notebook.CellCode {
			continue
		}
		taskID, err := deps.Scheduler.Submit(req.NotebookPath, i, cell.Source)
		if err != nil {
			c.RespondErrTax(err)
			return
		}
		taskIDs = append(taskIDs, taskID)
	}
	c.RespondSuccess(gin.H{"task_ids": taskIDs})
}

// GetExecutionStatus implements get_execution_status.
func (c *ExecutionController) GetExecutionStatus() {
	taskID := c.ctx.Param("taskId")
	task, err := deps.Store.GetTask(taskID)
	if err != nil {
		c.RespondErrTax(err)
		return
	}
	c.RespondSuccess(taskResponse(task))
}

// CancelExecution implements cancel_execution.
func (c *ExecutionController) CancelExecution() {
	var req model.CancelExecutionRequest
	if err := c.bindJSON(&req); err != nil {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidInput, err.Error())
		return
	}
	if err := deps.Scheduler.Cancel(req.NotebookPath, req.TaskID); err != nil {
		c.RespondErrTax(err)
		return
	}
	c.RespondSuccess(nil)
}

// GetExecutionStream implements get_execution_stream as an SSE poll
// against the task's terminal state (§9's documented simplification: C6
// only records outputs atomically at task completion, so there is no
// partial output to stream before then). The stream emits status frames
// until the task reaches a terminal store.TaskStatus, then one output
// frame followed by complete.
func (c *ExecutionController) GetExecutionStream() {
	taskID := c.ctx.Param("taskId")

	c.setupSSEResponse()
	ctx, cancel := context.WithCancel(c.ctx.Request.Context())
	defer cancel()
	c.pingLoop(ctx, &c.chunkWriter)

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Request.Context().Done():
			return
		case <-ticker.C:
			task, err := deps.Store.GetTask(taskID)
			if err != nil {
				c.writeSingleEvent(&c.chunkWriter, "Status", model.StreamEvent{
					Type: model.StreamEventTypeStatus, TaskID: taskID, Status: "error", Timestamp: time.Now().UnixMilli(),
				}.ToJSON(), true)
				return
			}
			if !task.Status.Terminal() {
				c.writeSingleEvent(&c.chunkWriter, "Status", model.StreamEvent{
					Type: model.StreamEventTypeStatus, TaskID: taskID, Status: string(task.Status), Timestamp: time.Now().UnixMilli(),
				}.ToJSON(), false)
				continue
			}
			c.writeSingleEvent(&c.chunkWriter, "Output", model.StreamEvent{
				Type: model.StreamEventTypeOutput, TaskID: taskID, Outputs: task.OutputsBlob, Error: task.ErrorBlob, Timestamp: time.Now().UnixMilli(),
			}.ToJSON(), true)
			c.writeSingleEvent(&c.chunkWriter, "Complete", model.StreamEvent{
				Type: model.StreamEventTypeComplete, TaskID: taskID, Status: string(task.Status), Timestamp: time.Now().UnixMilli(),
			}.ToJSON(), true)
			return
		}
	}
}
