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

// NotebookRequest addresses a single notebook file, shared by read and
// create.
type NotebookRequest struct {
	Path string `json:"path" validate:"required"`
}

func (r *NotebookRequest) Validate() error {
	return validator.New().Struct(r)
}

// InsertCellRequest is insert_cell's body.
type InsertCellRequest struct {
	Path     string `json:"path" validate:"required"`
	Index    int    `json:"index"`
	CellType string `json:"cell_type" validate:"required,oneof=code markdown raw"`
	Source   string `json:"source"`
}

func (r *InsertCellRequest) Validate() error {
	return validator.New().Struct(r)
}

// EditCellRequest is edit_cell's body.
type EditCellRequest struct {
	Path   string `json:"path" validate:"required"`
	Index  int    `json:"index"`
	Source string `json:"source"`
}

func (r *EditCellRequest) Validate() error {
	return validator.New().Struct(r)
}

// CellIndexRequest addresses one cell by index, shared by delete_cell,
// copy_cell.
type CellIndexRequest struct {
	Path  string `json:"path" validate:"required"`
	Index int    `json:"index"`
}

func (r *CellIndexRequest) Validate() error {
	return validator.New().Struct(r)
}

// MoveCellRequest is move_cell's body.
type MoveCellRequest struct {
	Path string `json:"path" validate:"required"`
	From int    `json:"from"`
	To   int    `json:"to"`
}

func (r *MoveCellRequest) Validate() error {
	return validator.New().Struct(r)
}

// MergeCellRequest is merge_cells's body: merges the cell at Index with
// the one immediately after it.
type MergeCellRequest struct {
	Path  string `json:"path" validate:"required"`
	Index int    `json:"index"`
}

func (r *MergeCellRequest) Validate() error {
	return validator.New().Struct(r)
}

// SplitCellRequest is split_cell's body: splits the cell at Index at the
// given byte Offset into its source.
type SplitCellRequest struct {
	Path   string `json:"path" validate:"required"`
	Index  int    `json:"index"`
	Offset int    `json:"offset"`
}

func (r *SplitCellRequest) Validate() error {
	return validator.New().Struct(r)
}

// ChangeCellTypeRequest is change_cell_type's body.
type ChangeCellTypeRequest struct {
	Path    string `json:"path" validate:"required"`
	Index   int    `json:"index"`
	NewType string `json:"new_type" validate:"required,oneof=code markdown raw"`
}

func (r *ChangeCellTypeRequest) Validate() error {
	return validator.New().Struct(r)
}
