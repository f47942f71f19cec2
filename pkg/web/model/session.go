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

// StartSessionRequest is start_session's body (§4.9.1).
type StartSessionRequest struct {
	NotebookPath   string `json:"notebook_path" validate:"required"`
	KernelName     string `json:"kernel_name" validate:"required"`
	EnvFingerprint string `json:"env_fingerprint"`
}

func (r *StartSessionRequest) Validate() error {
	return validator.New().Struct(r)
}

// NotebookPathRequest is the body shared by stop_session, interrupt_kernel
// and restart_kernel (all of which only need a path).
type NotebookPathRequest struct {
	NotebookPath string `json:"notebook_path" validate:"required"`
}

func (r *NotebookPathRequest) Validate() error {
	return validator.New().Struct(r)
}

// AttachSessionRequest is attach_session's body (§4.9.2): adopts a
// session this process didn't start itself, identified by its PID.
type AttachSessionRequest struct {
	PID int `json:"pid" validate:"required"`
}

func (r *AttachSessionRequest) Validate() error {
	return validator.New().Struct(r)
}
