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

// SyncSessionRequest is sync_state_from_disk's body (§4.9.4).
type SyncSessionRequest struct {
	NotebookPath string `json:"notebook_path" validate:"required"`
	Strategy     string `json:"strategy" validate:"required,oneof=incremental smart full none"`
}

func (r *SyncSessionRequest) Validate() error {
	return validator.New().Struct(r)
}

// SyncSessionResponse is sync_state_from_disk's response: the cell
// indices that were re-executed to bring the kernel back in line with the
// file.
type SyncSessionResponse struct {
	ReexecutedCells []int `json:"reexecuted_cells"`
}
