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

package main

import (
	"context"
	"fmt"
	"path/filepath"

	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/notebookd/notebookd/pkg/asset"
	"github.com/notebookd/notebookd/pkg/checkpoint"
	"github.com/notebookd/notebookd/pkg/config"
	"github.com/notebookd/notebookd/pkg/exec"
	"github.com/notebookd/notebookd/pkg/introspect"
	"github.com/notebookd/notebookd/pkg/iomux"
	"github.com/notebookd/notebookd/pkg/kernelmgr"
	"github.com/notebookd/notebookd/pkg/log"
	"github.com/notebookd/notebookd/pkg/notebook"
	"github.com/notebookd/notebookd/pkg/sanitize"
	"github.com/notebookd/notebookd/pkg/session"
	"github.com/notebookd/notebookd/pkg/store"
	"github.com/notebookd/notebookd/pkg/util/safego"
	"github.com/notebookd/notebookd/pkg/web"
	"github.com/notebookd/notebookd/pkg/web/controller"
)

// main initializes every component manager, runs session recovery, and
// starts the HTTP server.
func main() {
	config.InitFlags()
	log.SetLevel(config.ServerLogLevel)
	safego.InitPanicLogger(context.Background())

	db, err := store.Open(config.SessionStatePath())
	if err != nil {
		log.Error("failed to open store: %v", err)
		return
	}

	notebooks := notebook.NewManager(filepath.Join(config.DataRoot, "locks"), config.NotebookLockTimeout)
	assets := asset.New(db, config.AssetLeaseTTL)
	sanitizer := sanitize.New(assets, config.TextOffloadThresholdBytes, config.TextOffloadThresholdLines)
	kernels := kernelmgr.New(config.JupyterBaseURL, config.JupyterToken, config.KernelStartTimeout)
	hubs := iomux.NewRegistry()
	scheduler := exec.New(db, kernels, hubs, notebooks, sanitizer, config.MaxQueueSize, config.ExecutionTaskTimeout)
	checkpoints := checkpoint.New(config.CheckpointsDir(), config.CheckpointSecret, kernels, hubs, config.KernelStartTimeout)
	introspector := introspect.New(kernels, hubs, config.KernelStartTimeout)
	sessions := session.New(db, kernels, hubs, notebooks, scheduler, config.MaxConcurrentSessions, config.NotebookLockTimeout)

	if err := sessions.Recover(); err != nil {
		log.Error("session recovery failed: %v", err)
	}

	safego.Go(func() { assets.RunGCLoop(context.Background(), config.AssetGCInterval, notebooks) })

	controller.Init(controller.Dependencies{
		Store:       db,
		Notebooks:   notebooks,
		Assets:      assets,
		Sessions:    sessions,
		Scheduler:   scheduler,
		Checkpoints: checkpoints,
		Introspect:  introspector,
		AllowedRoot: config.AllowedRootPath,
	})

	if err := config.PublishToken(); err != nil {
		log.Error("failed to publish access token: %v", err)
	}

	engine := web.NewRouter(config.ServerAccessToken)
	addr := fmt.Sprintf(":%d", config.ServerPort)
	log.Info("notebookd listening on %s", addr)
	if err := engine.Run(addr); err != nil {
		log.Error("failed to start notebookd server: %v", err)
	}
}
