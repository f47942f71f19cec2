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

// IntrospectionController implements §6.1's Introspection operation
// group.
type IntrospectionController struct {
	*basicController
}

func NewIntrospectionController(ctx *gin.Context) *IntrospectionController {
	return &IntrospectionController{basicController: newBasicController(ctx)}
}

// ListVariables implements list_variables.
func (c *IntrospectionController) ListVariables() {
	path := c.ctx.Query("notebook_path")
	if path == "" {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidInput, "notebook_path is required")
		return
	}
	vars, err := deps.Introspect.ListVariables(path)
	if err != nil {
		c.RespondErrTax(err)
		return
	}
	c.RespondSuccess(vars)
}

// GetVariableManifest implements get_variable_manifest.
func (c *IntrospectionController) GetVariableManifest() {
	path := c.ctx.Query("notebook_path")
	if path == "" {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidInput, "notebook_path is required")
		return
	}
	manifest, err := deps.Introspect.GetVariableManifest(path)
	if err != nil {
		c.RespondErrTax(err)
		return
	}
	c.RespondSuccess(manifest)
}

// GetVariableInfo implements get_variable_info.
func (c *IntrospectionController) GetVariableInfo() {
	var req model.VariableNameRequest
	if err := c.bindJSON(&req); err != nil {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidInput, err.Error())
		return
	}
	info, err := deps.Introspect.GetVariableInfo(req.NotebookPath, req.Name)
	if err != nil {
		c.RespondErrTax(err)
		return
	}
	c.RespondSuccess(info)
}

// InspectVariable implements inspect_variable.
func (c *IntrospectionController) InspectVariable() {
	var req model.VariableNameRequest
	if err := c.bindJSON(&req); err != nil {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidInput, err.Error())
		return
	}
	insp, err := deps.Introspect.InspectVariable(req.NotebookPath, req.Name)
	if err != nil {
		c.RespondErrTax(err)
		return
	}
	c.RespondSuccess(insp)
}

// GetCompletions implements get_completions.
func (c *IntrospectionController) GetCompletions() {
	var req model.CompletionsRequest
	if err := c.bindJSON(&req); err != nil {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidInput, err.Error())
		return
	}
	completions, err := deps.Introspect.GetCompletions(req.NotebookPath, req.Code, req.CursorPos)
	if err != nil {
		c.RespondErrTax(err)
		return
	}
	c.RespondSuccess(completions)
}
