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

	"github.com/notebookd/notebookd/pkg/web/model"
)

// MetadataController implements §6.1's Metadata operation group, both the
// notebook-level and per-cell variants.
type MetadataController struct {
	*basicController
}

func NewMetadataController(ctx *gin.Context) *MetadataController {
	return &MetadataController{basicController: newBasicController(ctx)}
}

// GetMetadata implements get_metadata.
func (c *MetadataController) GetMetadata() {
	path := c.ctx.Query("path")
	key := c.ctx.Query("key")
	if path == "" || key == "" {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidInput, "path and key are required")
		return
	}
	value, found, err := deps.Notebooks.GetMetadata(path, key)
	if err != nil {
		c.RespondErrTax(err)
		return
	}
	c.RespondSuccess(model.MetadataValue{Found: found, Value: value})
}

// ListMetadata implements list_metadata.
func (c *MetadataController) ListMetadata() {
	path := c.ctx.Query("path")
	if path == "" {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidInput, "path is required")
		return
	}
	all, err := deps.Notebooks.ListMetadata(path)
	if err != nil {
		c.RespondErrTax(err)
		return
	}
	c.RespondSuccess(all)
}

// SetMetadata implements set_metadata.
func (c *MetadataController) SetMetadata() {
	var req model.SetMetadataRequest
	if err := c.bindJSON(&req); err != nil {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidInput, err.Error())
		return
	}
	nb, err := deps.Notebooks.SetMetadata(req.Path, req.Key, req.Value)
	if err != nil {
		c.RespondErrTax(err)
		return
	}
	c.RespondSuccess(nb)
}

// DeleteMetadata implements delete_metadata.
func (c *MetadataController) DeleteMetadata() {
	var req model.SetMetadataRequest
	if err := c.bindJSON(&req); err != nil {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidInput, err.Error())
		return
	}
	nb, err := deps.Notebooks.DeleteMetadata(req.Path, req.Key)
	if err != nil {
		c.RespondErrTax(err)
		return
	}
	c.RespondSuccess(nb)
}

// GetCellMetadata implements get_cell_metadata.
func (c *MetadataController) GetCellMetadata() {
	path := c.ctx.Query("path")
	key := c.ctx.Query("key")
	index := c.queryInt("index", -1)
	if path == "" || key == "" || index < 0 {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidInput, "path, index, and key are required")
		return
	}
	value, found, err := deps.Notebooks.GetCellMetadata(path, index, key)
	if err != nil {
		c.RespondErrTax(err)
		return
	}
	c.RespondSuccess(model.MetadataValue{Found: found, Value: value})
}

// ListCellMetadata implements list_cell_metadata.
func (c *MetadataController) ListCellMetadata() {
	path := c.ctx.Query("path")
	index := c.queryInt("index", -1)
	if path == "" || index < 0 {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidInput, "path and index are required")
		return
	}
	all, err := deps.Notebooks.ListCellMetadata(path, index)
	if err != nil {
		c.RespondErrTax(err)
		return
	}
	c.RespondSuccess(all)
}

// SetCellMetadata implements set_cell_metadata.
func (c *MetadataController) SetCellMetadata() {
	var req model.SetMetadataRequest
	if err := c.bindJSON(&req); err != nil || req.CellIndex == nil {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidInput, "cell_index is required")
		return
	}
	nb, err := deps.Notebooks.SetCellMetadata(req.Path, *req.CellIndex, req.Key, req.Value)
	if err != nil {
		c.RespondErrTax(err)
		return
	}
	c.RespondSuccess(nb)
}

// DeleteCellMetadata implements delete_cell_metadata.
func (c *MetadataController) DeleteCellMetadata() {
	var req model.SetMetadataRequest
	if err := c.bindJSON(&req); err != nil || req.CellIndex == nil {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidInput, "cell_index is required")
		return
	}
	nb, err := deps.Notebooks.DeleteCellMetadata(req.Path, *req.CellIndex, req.Key)
	if err != nil {
		c.RespondErrTax(err)
		return
	}
	c.RespondSuccess(nb)
}
