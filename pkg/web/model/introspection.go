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

// VariableNameRequest addresses one kernel namespace entry, shared by
// get_variable_info and inspect_variable.
type VariableNameRequest struct {
	NotebookPath string `json:"notebook_path" validate:"required"`
	Name         string `json:"name" validate:"required"`
}

func (r *VariableNameRequest) Validate() error {
	return validator.New().Struct(r)
}

// CompletionsRequest is get_completions's body.
type CompletionsRequest struct {
	NotebookPath string `json:"notebook_path" validate:"required"`
	Code         string `json:"code"`
	CursorPos    int    `json:"cursor_pos"`
}

func (r *CompletionsRequest) Validate() error {
	return validator.New().Struct(r)
}
