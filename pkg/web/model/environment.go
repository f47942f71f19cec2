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

// InstallPackageRequest is install_package's body (§6.1 Environment &
// packages).
type InstallPackageRequest struct {
	NotebookPath string `json:"notebook_path" validate:"required"`
	Name         string `json:"name" validate:"required"`
}

func (r *InstallPackageRequest) Validate() error {
	return validator.New().Struct(r)
}

// SwitchEnvironmentRequest is switch_kernel_environment's body: tears the
// session's kernel down and starts a fresh one under a different kernel
// spec, preserving the notebook path.
type SwitchEnvironmentRequest struct {
	NotebookPath string `json:"notebook_path" validate:"required"`
	KernelName   string `json:"kernel_name" validate:"required"`
}

func (r *SwitchEnvironmentRequest) Validate() error {
	return validator.New().Struct(r)
}

// WorkingDirectoryRequest is set_working_directory's body.
type WorkingDirectoryRequest struct {
	NotebookPath string `json:"notebook_path" validate:"required"`
	Directory    string `json:"directory" validate:"required"`
}

func (r *WorkingDirectoryRequest) Validate() error {
	return validator.New().Struct(r)
}

// WorkingDirectoryResponse is the response shape shared by
// set_working_directory and check_working_directory.
type WorkingDirectoryResponse struct {
	Directory string `json:"directory"`
}
