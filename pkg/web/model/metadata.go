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

// SetMetadataRequest is set_metadata/set_cell_metadata's body. CellIndex
// is ignored by the notebook-level handlers and required by the cell-level
// ones (enforced by the controller, not the struct tag, since the same
// body shape serves both).
type SetMetadataRequest struct {
	Path      string `json:"path" validate:"required"`
	CellIndex *int   `json:"cell_index,omitempty"`
	Key       string `json:"key" validate:"required"`
	Value     any    `json:"value"`
}

func (r *SetMetadataRequest) Validate() error {
	return validator.New().Struct(r)
}

// MetadataValue is get_metadata/get_cell_metadata's response.
type MetadataValue struct {
	Found bool `json:"found"`
	Value any  `json:"value,omitempty"`
}
