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

	"github.com/notebookd/notebookd/pkg/notebook"
	"github.com/notebookd/notebookd/pkg/web/model"
)

// NotebookController implements §6.1's Notebook operation group.
type NotebookController struct {
	*basicController
}

func NewNotebookController(ctx *gin.Context) *NotebookController {
	return &NotebookController{basicController: newBasicController(ctx)}
}

// ReadNotebook implements read_notebook.
func (c *NotebookController) ReadNotebook() {
	path := c.ctx.Query("path")
	if path == "" {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidInput, "path is required")
		return
	}
	if !c.requirePath(path) {
		return
	}
	nb, err := deps.Notebooks.Read(path)
	if err != nil {
		c.RespondErrTax(err)
		return
	}
	c.RespondSuccess(nb)
}

// CreateNotebook implements create_notebook.
func (c *NotebookController) CreateNotebook() {
	var req model.NotebookRequest
	if err := c.bindJSON(&req); err != nil {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidInput, err.Error())
		return
	}
	if !c.requirePath(req.Path) {
		return
	}
	nb, err := deps.Notebooks.Create(req.Path)
	if err != nil {
		c.RespondErrTax(err)
		return
	}
	c.RespondSuccess(nb)
}

// InsertCell implements insert_cell.
func (c *NotebookController) InsertCell() {
	var req model.InsertCellRequest
	if err := c.bindJSON(&req); err != nil {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidInput, err.Error())
		return
	}
	nb, err := deps.Notebooks.InsertCell(req.Path, req.Index, notebook.CellType(req.CellType), req.Source)
	if err != nil {
		c.RespondErrTax(err)
		return
	}
	c.RespondSuccess(nb)
}

// EditCell implements edit_cell.
func (c *NotebookController) EditCell() {
	var req model.EditCellRequest
	if err := c.bindJSON(&req); err != nil {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidInput, err.Error())
		return
	}
	nb, err := deps.Notebooks.EditCell(req.Path, req.Index, req.Source)
	if err != nil {
		c.RespondErrTax(err)
		return
	}
	c.RespondSuccess(nb)
}

// DeleteCell implements delete_cell.
func (c *NotebookController) DeleteCell() {
	var req model.CellIndexRequest
	if err := c.bindJSON(&req); err != nil {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidInput, err.Error())
		return
	}
	nb, err := deps.Notebooks.DeleteCell(req.Path, req.Index)
	if err != nil {
		c.RespondErrTax(err)
		return
	}
	c.RespondSuccess(nb)
}

// MoveCell implements move_cell.
func (c *NotebookController) MoveCell() {
	var req model.MoveCellRequest
	if err := c.bindJSON(&req); err != nil {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidInput, err.Error())
		return
	}
	nb, err := deps.Notebooks.MoveCell(req.Path, req.From, req.To)
	if err != nil {
		c.RespondErrTax(err)
		return
	}
	c.RespondSuccess(nb)
}

// CopyCell implements copy_cell.
func (c *NotebookController) CopyCell() {
	var req model.CellIndexRequest
	if err := c.bindJSON(&req); err != nil {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidInput, err.Error())
		return
	}
	nb, err := deps.Notebooks.CopyCell(req.Path, req.Index)
	if err != nil {
		c.RespondErrTax(err)
		return
	}
	c.RespondSuccess(nb)
}

// MergeCells implements merge_cells.
func (c *NotebookController) MergeCells() {
	var req model.MergeCellRequest
	if err := c.bindJSON(&req); err != nil {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidInput, err.Error())
		return
	}
	nb, err := deps.Notebooks.MergeCells(req.Path, req.Index)
	if err != nil {
		c.RespondErrTax(err)
		return
	}
	c.RespondSuccess(nb)
}

// SplitCell implements split_cell.
func (c *NotebookController) SplitCell() {
	var req model.SplitCellRequest
	if err := c.bindJSON(&req); err != nil {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidInput, err.Error())
		return
	}
	nb, err := deps.Notebooks.SplitCell(req.Path, req.Index, req.Offset)
	if err != nil {
		c.RespondErrTax(err)
		return
	}
	c.RespondSuccess(nb)
}

// ChangeCellType implements change_cell_type.
func (c *NotebookController) ChangeCellType() {
	var req model.ChangeCellTypeRequest
	if err := c.bindJSON(&req); err != nil {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidInput, err.Error())
		return
	}
	nb, err := deps.Notebooks.ChangeCellType(req.Path, req.Index, notebook.CellType(req.NewType))
	if err != nil {
		c.RespondErrTax(err)
		return
	}
	c.RespondSuccess(nb)
}
