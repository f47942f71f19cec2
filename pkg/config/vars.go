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

// Package config holds the closed set of control-plane environment inputs
// (§6.4 of the specification): data root layout, per-kernel resource
// ceilings, offload/lease thresholds, and the surface's own listener and
// auth settings.
package config

import "time"

var (
	// ServerPort controls the HTTP listener port.
	ServerPort int

	// ServerLogLevel controls the server log verbosity ("debug"|"info"|"warn"|"error").
	ServerLogLevel string

	// ServerAccessToken guards API entrypoints; auto-generated if unset at startup.
	ServerAccessToken string

	// ApiGracefulShutdownTimeout is parsed from -graceful-shutdown-timeout and
	// its env override; no package outside pkg/config reads it.
	ApiGracefulShutdownTimeout time.Duration

	// DataRoot is the durable data directory (default /data/notebookd in
	// containerized deployments): holds sessions/state.db, per-session
	// metadata mirrors, and checkpoints.
	DataRoot string

	// MaxConcurrentSessions bounds how many notebook paths may have a live
	// session at once; start_session beyond this fails with Backpressure.
	MaxConcurrentSessions int

	// MaxQueueSize bounds each session's in-memory pending-task queue.
	MaxQueueSize int

	// KernelMemoryCeilingMiB is parsed from -kernel-memory-mib (0 means
	// unbounded); no package outside pkg/config reads it, so no memory cap
	// is applied to kernels.
	KernelMemoryCeilingMiB int

	// KernelStartTimeout bounds how long start_session waits for a kernel
	// to report ready before failing with KernelStartTimeout.
	KernelStartTimeout time.Duration

	// TextOffloadThresholdBytes is T_text from §4.7: text payloads larger
	// than this are offloaded to the Asset Store.
	TextOffloadThresholdBytes int

	// TextOffloadThresholdLines is the line-count alternative trigger for
	// text offloading (default 50).
	TextOffloadThresholdLines int

	// AssetLeaseTTL is the default lease duration renewed on every asset
	// reference (default 24h).
	AssetLeaseTTL time.Duration

	// AssetGCInterval is the fixed schedule on which C3's GC sweep runs
	// (default 1h), independent of client activity.
	AssetGCInterval time.Duration

	// WorkerPoolSize is parsed from -worker-pool-size; no package outside
	// pkg/config reads it. There is no worker pool: notebook serialization
	// and checkpoint MAC computation run on the calling goroutine.
	WorkerPoolSize int

	// AllowedRootPath restricts notebook/asset path operations to this
	// filesystem subtree; empty means unrestricted.
	AllowedRootPath string

	// PackageInstallAllowlist is parsed from its env var; no package outside
	// pkg/config reads it, so install_package accepts any name that passes
	// its metacharacter check whether or not the list is set.
	PackageInstallAllowlist []string

	// ObservabilityEndpoint is parsed from -observability-endpoint; no
	// package outside pkg/config reads it and nothing listens on it.
	ObservabilityEndpoint string

	// NotebookLockTimeout bounds how long a mutating notebook operation
	// waits to acquire the advisory per-path lock before NotebookBusy.
	NotebookLockTimeout time.Duration

	// CheckpointSecret is the keyed-MAC secret over checkpoint payloads
	// (§4.8); auto-generated at startup if not supplied via env, same
	// discipline as ServerAccessToken.
	CheckpointSecret []byte

	// JupyterBaseURL is the Jupyter Server REST/websocket endpoint C4
	// drives kernels through (§4.4).
	JupyterBaseURL string

	// JupyterToken authenticates against JupyterBaseURL.
	JupyterToken string

	// ExecutionTaskTimeout bounds how long a single queued task may run
	// before C6 cancels it with ExecutionTimeout.
	ExecutionTaskTimeout time.Duration
)
