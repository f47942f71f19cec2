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

// Package web implements C10, the Tool Surface: a Gin router exposing
// every operation group in §6.1 as HTTP+SSE, access-token gated the same
// way the teacher's router gated its filesystem/code/command groups.
package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/notebookd/notebookd/pkg/log"
	"github.com/notebookd/notebookd/pkg/web/controller"
	"github.com/notebookd/notebookd/pkg/web/model"
)

func withSession(fn func(*controller.SessionController)) gin.HandlerFunc {
	return func(ctx *gin.Context) { fn(controller.NewSessionController(ctx)) }
}

func withExecution(fn func(*controller.ExecutionController)) gin.HandlerFunc {
	return func(ctx *gin.Context) { fn(controller.NewExecutionController(ctx)) }
}

func withIntrospection(fn func(*controller.IntrospectionController)) gin.HandlerFunc {
	return func(ctx *gin.Context) { fn(controller.NewIntrospectionController(ctx)) }
}

func withHandoff(fn func(*controller.HandoffController)) gin.HandlerFunc {
	return func(ctx *gin.Context) { fn(controller.NewHandoffController(ctx)) }
}

func withNotebook(fn func(*controller.NotebookController)) gin.HandlerFunc {
	return func(ctx *gin.Context) { fn(controller.NewNotebookController(ctx)) }
}

func withMetadata(fn func(*controller.MetadataController)) gin.HandlerFunc {
	return func(ctx *gin.Context) { fn(controller.NewMetadataController(ctx)) }
}

func withEnvironment(fn func(*controller.EnvironmentController)) gin.HandlerFunc {
	return func(ctx *gin.Context) { fn(controller.NewEnvironmentController(ctx)) }
}

func withAsset(fn func(*controller.AssetController)) gin.HandlerFunc {
	return func(ctx *gin.Context) { fn(controller.NewAssetController(ctx)) }
}

func withCheckpoint(fn func(*controller.CheckpointController)) gin.HandlerFunc {
	return func(ctx *gin.Context) { fn(controller.NewCheckpointController(ctx)) }
}

func withSuperpower(fn func(*controller.SQLSuperpowerController)) gin.HandlerFunc {
	return func(ctx *gin.Context) { fn(controller.NewSQLSuperpowerController(ctx)) }
}

func withMetric(fn func(*controller.MetricController)) gin.HandlerFunc {
	return func(ctx *gin.Context) { fn(controller.NewMetricController(ctx)) }
}

// NewRouter builds the full HTTP surface. accessToken is the per-start
// rotated credential §4.10 requires on every request/response call; an
// empty token disables the check (used by tests).
func NewRouter(accessToken string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), logMiddleware())

	r.GET("/ping", controller.PingHandler)

	authed := r.Group("/")
	authed.Use(accessTokenMiddleware(accessToken))

	sessions := authed.Group("/sessions")
	{
		sessions.POST("/start", withSession(func(c *controller.SessionController) { c.StartSession() }))
		sessions.POST("/stop", withSession(func(c *controller.SessionController) { c.StopSession() }))
		sessions.POST("/interrupt", withSession(func(c *controller.SessionController) { c.InterruptKernel() }))
		sessions.POST("/restart", withSession(func(c *controller.SessionController) { c.RestartKernel() }))
		sessions.GET("/info", withSession(func(c *controller.SessionController) { c.GetKernelInfo() }))
		sessions.GET("", withSession(func(c *controller.SessionController) { c.ListSessions() }))
		sessions.POST("/attach", withSession(func(c *controller.SessionController) { c.AttachSession() }))
	}

	executions := authed.Group("/executions")
	{
		executions.POST("", withExecution(func(c *controller.ExecutionController) { c.RunCellAsync() }))
		executions.POST("/all", withExecution(func(c *controller.ExecutionController) { c.RunAllCells() }))
		executions.POST("/cancel", withExecution(func(c *controller.ExecutionController) { c.CancelExecution() }))
		executions.GET("/:taskId", withExecution(func(c *controller.ExecutionController) { c.GetExecutionStatus() }))
		executions.GET("/:taskId/stream", withExecution(func(c *controller.ExecutionController) { c.GetExecutionStream() }))
	}

	introspection := authed.Group("/introspection")
	{
		introspection.GET("/variables", withIntrospection(func(c *controller.IntrospectionController) { c.ListVariables() }))
		introspection.GET("/manifest", withIntrospection(func(c *controller.IntrospectionController) { c.GetVariableManifest() }))
		introspection.POST("/variable", withIntrospection(func(c *controller.IntrospectionController) { c.GetVariableInfo() }))
		introspection.POST("/inspect", withIntrospection(func(c *controller.IntrospectionController) { c.InspectVariable() }))
		introspection.POST("/completions", withIntrospection(func(c *controller.IntrospectionController) { c.GetCompletions() }))
	}

	handoff := authed.Group("/handoff")
	{
		handoff.GET("/sync-needed", withHandoff(func(c *controller.HandoffController) { c.DetectSyncNeeded() }))
		handoff.POST("/sync", withHandoff(func(c *controller.HandoffController) { c.SyncStateFromDisk() }))
		handoff.GET("/history", withHandoff(func(c *controller.HandoffController) { c.NotebookHistory() }))
	}

	notebooks := authed.Group("/notebooks")
	{
		notebooks.GET("", withNotebook(func(c *controller.NotebookController) { c.ReadNotebook() }))
		notebooks.POST("", withNotebook(func(c *controller.NotebookController) { c.CreateNotebook() }))
		notebooks.POST("/cells", withNotebook(func(c *controller.NotebookController) { c.InsertCell() }))
		notebooks.PUT("/cells", withNotebook(func(c *controller.NotebookController) { c.EditCell() }))
		notebooks.DELETE("/cells", withNotebook(func(c *controller.NotebookController) { c.DeleteCell() }))
		notebooks.POST("/cells/move", withNotebook(func(c *controller.NotebookController) { c.MoveCell() }))
		notebooks.POST("/cells/copy", withNotebook(func(c *controller.NotebookController) { c.CopyCell() }))
		notebooks.POST("/cells/merge", withNotebook(func(c *controller.NotebookController) { c.MergeCells() }))
		notebooks.POST("/cells/split", withNotebook(func(c *controller.NotebookController) { c.SplitCell() }))
		notebooks.POST("/cells/type", withNotebook(func(c *controller.NotebookController) { c.ChangeCellType() }))
	}

	metadata := authed.Group("/metadata")
	{
		metadata.GET("", withMetadata(func(c *controller.MetadataController) { c.GetMetadata() }))
		metadata.GET("/list", withMetadata(func(c *controller.MetadataController) { c.ListMetadata() }))
		metadata.POST("", withMetadata(func(c *controller.MetadataController) { c.SetMetadata() }))
		metadata.DELETE("", withMetadata(func(c *controller.MetadataController) { c.DeleteMetadata() }))
		metadata.GET("/cells", withMetadata(func(c *controller.MetadataController) { c.GetCellMetadata() }))
		metadata.GET("/cells/list", withMetadata(func(c *controller.MetadataController) { c.ListCellMetadata() }))
		metadata.POST("/cells", withMetadata(func(c *controller.MetadataController) { c.SetCellMetadata() }))
		metadata.DELETE("/cells", withMetadata(func(c *controller.MetadataController) { c.DeleteCellMetadata() }))
	}

	environment := authed.Group("/environment")
	{
		environment.POST("/packages", withEnvironment(func(c *controller.EnvironmentController) { c.InstallPackage() }))
		environment.GET("/packages", withEnvironment(func(c *controller.EnvironmentController) { c.ListKernelPackages() }))
		environment.POST("/switch", withEnvironment(func(c *controller.EnvironmentController) { c.SwitchKernelEnvironment() }))
		environment.POST("/cwd", withEnvironment(func(c *controller.EnvironmentController) { c.SetWorkingDirectory() }))
		environment.GET("/cwd", withEnvironment(func(c *controller.EnvironmentController) { c.CheckWorkingDirectory() }))
	}

	assets := authed.Group("/assets")
	{
		assets.GET("", withAsset(func(c *controller.AssetController) { c.ReadAsset() }))
		assets.POST("/prune", withAsset(func(c *controller.AssetController) { c.PruneUnusedAssets() }))
	}

	checkpoints := authed.Group("/checkpoints")
	{
		checkpoints.POST("", withCheckpoint(func(c *controller.CheckpointController) { c.SaveCheckpoint() }))
		checkpoints.POST("/load", withCheckpoint(func(c *controller.CheckpointController) { c.LoadCheckpoint() }))
		checkpoints.GET("", withCheckpoint(func(c *controller.CheckpointController) { c.ListCheckpoints() }))
		checkpoints.DELETE("", withCheckpoint(func(c *controller.CheckpointController) { c.DeleteCheckpoint() }))
	}

	authed.POST("/superpower/sql", withSuperpower(func(c *controller.SQLSuperpowerController) { c.RunQuery() }))

	metrics := authed.Group("/metrics")
	{
		metrics.GET("", withMetric(func(c *controller.MetricController) { c.GetMetrics() }))
		metrics.GET("/watch", withMetric(func(c *controller.MetricController) { c.WatchMetrics() }))
	}

	return r
}

// accessTokenMiddleware enforces §4.10 point 4's dual-channel token
// check: streaming upgrades (SSE GETs) carry the token as a query
// parameter since a browser EventSource can't set custom headers,
// everything else carries it via model.ApiAccessTokenHeader.
func accessTokenMiddleware(token string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if token == "" {
			ctx.Next()
			return
		}
		provided := ctx.GetHeader(model.ApiAccessTokenHeader)
		if provided == "" {
			provided = ctx.Query("access_token")
		}
		if provided != token {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, model.ErrorResponse{
				Code:    model.ErrorCodeInvalidInput,
				Message: "missing or invalid access token",
			})
			return
		}
		ctx.Next()
	}
}

func logMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()
		log.Info("%s %s %d %s", ctx.Request.Method, ctx.Request.URL.Path, ctx.Writer.Status(), time.Since(start))
	}
}
