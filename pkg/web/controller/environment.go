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

// EnvironmentController implements §6.1's Environment & packages
// operation group.
type EnvironmentController struct {
	*basicController
}

func NewEnvironmentController(ctx *gin.Context) *EnvironmentController {
	return &EnvironmentController{basicController: newBasicController(ctx)}
}

// InstallPackage implements install_package.
func (c *EnvironmentController) InstallPackage() {
	var req model.InstallPackageRequest
	if err := c.bindJSON(&req); err != nil {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidInput, err.Error())
		return
	}
	if err := deps.Introspect.InstallPackage(req.NotebookPath, req.Name); err != nil {
		c.RespondErrTax(err)
		return
	}
	c.RespondSuccess(nil)
}

// ListKernelPackages implements list_kernel_packages.
func (c *EnvironmentController) ListKernelPackages() {
	path := c.ctx.Query("notebook_path")
	if path == "" {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidInput, "notebook_path is required")
		return
	}
	packages, err := deps.Introspect.ListKernelPackages(path)
	if err != nil {
		c.RespondErrTax(err)
		return
	}
	c.RespondSuccess(packages)
}

// SwitchKernelEnvironment implements switch_kernel_environment: restarts
// the session under a different kernel spec rather than trying to hot-swap
// the interpreter underneath a live namespace.
func (c *EnvironmentController) SwitchKernelEnvironment() {
	var req model.SwitchEnvironmentRequest
	if err := c.bindJSON(&req); err != nil {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidInput, err.Error())
		return
	}
	if err := deps.Sessions.StopSession(req.NotebookPath); err != nil {
		c.RespondErrTax(err)
		return
	}
	if _, err := deps.Sessions.StartSession(req.NotebookPath, req.KernelName, ""); err != nil {
		c.RespondErrTax(err)
		return
	}
	c.RespondSuccess(nil)
}

// SetWorkingDirectory implements set_working_directory.
func (c *EnvironmentController) SetWorkingDirectory() {
	var req model.WorkingDirectoryRequest
	if err := c.bindJSON(&req); err != nil {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidInput, err.Error())
		return
	}
	resolved, err := deps.Introspect.SetWorkingDirectory(req.NotebookPath, req.Directory)
	if err != nil {
		c.RespondErrTax(err)
		return
	}
	c.RespondSuccess(model.WorkingDirectoryResponse{Directory: resolved})
}

// CheckWorkingDirectory implements check_working_directory.
func (c *EnvironmentController) CheckWorkingDirectory() {
	path := c.ctx.Query("notebook_path")
	if path == "" {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidInput, "notebook_path is required")
		return
	}
	dir, err := deps.Introspect.GetWorkingDirectory(path)
	if err != nil {
		c.RespondErrTax(err)
		return
	}
	c.RespondSuccess(model.WorkingDirectoryResponse{Directory: dir})
}
