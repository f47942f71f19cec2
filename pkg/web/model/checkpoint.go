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

import "github.com/go-playground/validator/v10"

// SaveCheckpointRequest is save_checkpoint's body (§4.8).
type SaveCheckpointRequest struct {
	NotebookPath  string   `json:"notebook_path" validate:"required"`
	Name          string   `json:"name" validate:"required"`
	VariableNames []string `json:"variable_names,omitempty"`
}

func (r *SaveCheckpointRequest) Validate() error {
	return validator.New().Struct(r)
}

// LoadCheckpointRequest is load_checkpoint's body.
type LoadCheckpointRequest struct {
	NotebookPath string `json:"notebook_path" validate:"required"`
	Name         string `json:"name" validate:"required"`
	AutoInstall  bool   `json:"auto_install,omitempty"`
}

func (r *LoadCheckpointRequest) Validate() error {
	return validator.New().Struct(r)
}

// DeleteCheckpointRequest is delete_checkpoint's body.
type DeleteCheckpointRequest struct {
	NotebookPath string `json:"notebook_path" validate:"required"`
	Name         string `json:"name" validate:"required"`
}

func (r *DeleteCheckpointRequest) Validate() error {
	return validator.New().Struct(r)
}

// SaveCheckpointResponse is save_checkpoint's response.
type SaveCheckpointResponse struct {
	PayloadPath string `json:"payload_path"`
}
