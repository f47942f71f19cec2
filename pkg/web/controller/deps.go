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
	"github.com/notebookd/notebookd/pkg/asset"
	"github.com/notebookd/notebookd/pkg/checkpoint"
	"github.com/notebookd/notebookd/pkg/exec"
	"github.com/notebookd/notebookd/pkg/introspect"
	"github.com/notebookd/notebookd/pkg/notebook"
	"github.com/notebookd/notebookd/pkg/session"
	"github.com/notebookd/notebookd/pkg/store"
)

// Dependencies collects the per-process singletons every controller in
// this package delegates to. main.go builds one of these at startup and
// passes it to Init, the same package-level-wiring convention the
// teacher's InitCodeRunner used for its single runtime.Controller.
type Dependencies struct {
	Store       *store.Store
	Notebooks   *notebook.Manager
	Assets      *asset.Store
	Sessions    *session.Manager
	Scheduler   *exec.Scheduler
	Checkpoints *checkpoint.Manager
	Introspect  *introspect.Manager

	// AllowedRoot bounds every notebook/asset path a client can address;
	// empty disables the check (single-tenant/dev deployments).
	AllowedRoot string
}

var deps Dependencies

// Init wires the shared managers every controller constructor reaches
// for. Must be called once before the router starts serving requests.
func Init(d Dependencies) {
	deps = d
}
