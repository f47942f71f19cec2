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

	"github.com/notebookd/notebookd/pkg/session"
	"github.com/notebookd/notebookd/pkg/web/model"
)

// SessionController implements §6.1's Session operation group.
type SessionController struct {
	*basicController
}

func NewSessionController(ctx *gin.Context) *SessionController {
	return &SessionController{basicController: newBasicController(ctx)}
}

func descriptorResponse(d *session.Descriptor) gin.H {
	return gin.H{
		"notebook_path":  d.NotebookPath,
		"found":          d.Found,
		"pid":            d.PID,
		"start_epoch":    d.StartEpoch,
		"created_at":     d.CreatedAt,
		"status":         d.Status,
		"env_fingerprint": d.EnvFingerprint,
	}
}

// StartSession implements start_session.
func (c *SessionController) StartSession() {
	var req model.StartSessionRequest
	if err := c.bindJSON(&req); err != nil {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidInput, err.Error())
		return
	}
	sess, err := deps.Sessions.StartSession(req.NotebookPath, req.KernelName, req.EnvFingerprint)
	if err != nil {
		c.RespondErrTax(err)
		return
	}
	c.RespondSuccess(gin.H{
		"notebook_path": sess.NotebookPath,
		"status":        sess.Status,
		"created_at":    sess.CreatedAt,
	})
}

// StopSession implements stop_session.
func (c *SessionController) StopSession() {
	var req model.NotebookPathRequest
	if err := c.bindJSON(&req); err != nil {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidInput, err.Error())
		return
	}
	if err := deps.Sessions.StopSession(req.NotebookPath); err != nil {
		c.RespondErrTax(err)
		return
	}
	c.RespondSuccess(nil)
}

// InterruptKernel implements interrupt_kernel.
func (c *SessionController) InterruptKernel() {
	var req model.NotebookPathRequest
	if err := c.bindJSON(&req); err != nil {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidInput, err.Error())
		return
	}
	if err := deps.Sessions.Interrupt(req.NotebookPath); err != nil {
		c.RespondErrTax(err)
		return
	}
	c.RespondSuccess(nil)
}

// RestartKernel implements restart_kernel.
func (c *SessionController) RestartKernel() {
	var req model.NotebookPathRequest
	if err := c.bindJSON(&req); err != nil {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidInput, err.Error())
		return
	}
	if err := deps.Sessions.Restart(req.NotebookPath); err != nil {
		c.RespondErrTax(err)
		return
	}
	c.RespondSuccess(nil)
}

// GetKernelInfo implements get_kernel_info / find_active_session for the
// notebook path given as a query parameter.
func (c *SessionController) GetKernelInfo() {
	path := c.ctx.Query("notebook_path")
	if path == "" {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidInput, "notebook_path is required")
		return
	}
	d := deps.Sessions.FindActiveSession(path)
	c.RespondSuccess(descriptorResponse(d))
}

// ListSessions implements list_sessions.
func (c *SessionController) ListSessions() {
	list := deps.Sessions.ListSessions()
	out := make([]gin.H, 0, len(list))
	for _, d := range list {
		out = append(out, descriptorResponse(d))
	}
	c.RespondSuccess(out)
}

// AttachSession implements attach_session.
func (c *SessionController) AttachSession() {
	var req model.AttachSessionRequest
	if err := c.bindJSON(&req); err != nil {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidInput, err.Error())
		return
	}
	notebookPath, err := deps.Sessions.AttachSession(req.PID)
	if err != nil {
		c.RespondErrTax(err)
		return
	}
	c.RespondSuccess(gin.H{"notebook_path": notebookPath})
}
