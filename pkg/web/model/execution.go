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

package model

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
)

// RunCellRequest is run_cell_async's body (§6.1 Execution).
type RunCellRequest struct {
	NotebookPath string `json:"notebook_path" validate:"required"`
	CellIndex    int    `json:"cell_index"`
	Code         string `json:"code" validate:"required"`
}

func (r *RunCellRequest) Validate() error {
	return validator.New().Struct(r)
}

// RunAllCellsRequest is run_all_cells's body: submits every code cell in
// document order, returning one task id per cell.
type RunAllCellsRequest struct {
	NotebookPath string `json:"notebook_path" validate:"required"`
}

func (r *RunAllCellsRequest) Validate() error {
	return validator.New().Struct(r)
}

// TaskSubmission is run_cell_async's response.
type TaskSubmission struct {
	TaskID string `json:"task_id"`
}

// CancelExecutionRequest is cancel_execution's body.
type CancelExecutionRequest struct {
	NotebookPath string `json:"notebook_path" validate:"required"`
	TaskID       string `json:"task_id" validate:"required"`
}

func (r *CancelExecutionRequest) Validate() error {
	return validator.New().Struct(r)
}

// TaskStatusResponse is get_execution_status's body: a wire-safe mirror of
// store.Task.
type TaskStatusResponse struct {
	TaskID         string          `json:"task_id"`
	NotebookPath   string          `json:"notebook_path"`
	CellIndex      int             `json:"cell_index"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	StartedAt      time.Time       `json:"started_at,omitempty"`
	CompletedAt    time.Time       `json:"completed_at,omitempty"`
	ExecutionCount int             `json:"execution_count,omitempty"`
	Outputs        json.RawMessage `json:"outputs,omitempty"`
	Error          json.RawMessage `json:"error,omitempty"`
}
