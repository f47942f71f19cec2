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

package config

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	stdlog "log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/notebookd/notebookd/pkg/log"
)

const (
	dataRootEnv                = "NOTEBOOKD_DATA_ROOT"
	accessTokenEnv             = "NOTEBOOKD_TOKEN"
	gracefulShutdownTimeoutEnv = "NOTEBOOKD_API_GRACE_SHUTDOWN"
	allowlistEnv               = "NOTEBOOKD_PACKAGE_ALLOWLIST"
	checkpointSecretEnv        = "NOTEBOOKD_CHECKPOINT_SECRET"
	jupyterBaseURLEnv          = "NOTEBOOKD_JUPYTER_URL"
	jupyterTokenEnv            = "NOTEBOOKD_JUPYTER_TOKEN"
)

// InitFlags registers CLI flags and env overrides, following the same
// env-first-then-flag-override precedence as the teacher's InitFlags.
func InitFlags() {
	ServerPort = 8732
	ServerLogLevel = "info"
	ApiGracefulShutdownTimeout = 3 * time.Second
	DataRoot = "/data/notebookd"
	MaxConcurrentSessions = 64
	MaxQueueSize = 256
	KernelMemoryCeilingMiB = 2048
	KernelStartTimeout = 30 * time.Second
	TextOffloadThresholdBytes = 2 * 1024
	TextOffloadThresholdLines = 50
	AssetLeaseTTL = 24 * time.Hour
	AssetGCInterval = time.Hour
	WorkerPoolSize = 4
	NotebookLockTimeout = 5 * time.Second
	JupyterBaseURL = "http://127.0.0.1:8888"
	ExecutionTaskTimeout = 10 * time.Minute

	if v := os.Getenv(dataRootEnv); v != "" {
		DataRoot = v
	}
	if v := os.Getenv(accessTokenEnv); v != "" {
		ServerAccessToken = v
	}
	if v := os.Getenv(allowlistEnv); v != "" {
		PackageInstallAllowlist = strings.Split(v, ",")
	}
	if v := os.Getenv(jupyterBaseURLEnv); v != "" {
		JupyterBaseURL = v
	}
	if v := os.Getenv(jupyterTokenEnv); v != "" {
		JupyterToken = v
	}

	flag.StringVar(&DataRoot, "data-root", DataRoot, "durable data root directory")
	flag.IntVar(&ServerPort, "port", ServerPort, "HTTP listener port")
	flag.StringVar(&ServerLogLevel, "log-level", ServerLogLevel, "log level: debug|info|warn|error")
	flag.StringVar(&ServerAccessToken, "access-token", ServerAccessToken, "API access token (auto-generated if unset)")
	flag.IntVar(&MaxConcurrentSessions, "max-sessions", MaxConcurrentSessions, "maximum concurrent notebook sessions")
	flag.IntVar(&MaxQueueSize, "max-queue-size", MaxQueueSize, "maximum pending tasks per session")
	flag.IntVar(&KernelMemoryCeilingMiB, "kernel-memory-mib", KernelMemoryCeilingMiB, "per-kernel memory ceiling in MiB (0=unbounded)")
	flag.DurationVar(&KernelStartTimeout, "kernel-start-timeout", KernelStartTimeout, "timeout waiting for a kernel to become ready")
	flag.IntVar(&TextOffloadThresholdBytes, "text-offload-bytes", TextOffloadThresholdBytes, "text output byte threshold before asset offload")
	flag.IntVar(&TextOffloadThresholdLines, "text-offload-lines", TextOffloadThresholdLines, "text output line threshold before asset offload")
	flag.DurationVar(&AssetLeaseTTL, "asset-lease-ttl", AssetLeaseTTL, "default asset lease duration")
	flag.DurationVar(&AssetGCInterval, "asset-gc-interval", AssetGCInterval, "asset GC sweep interval")
	flag.IntVar(&WorkerPoolSize, "worker-pool-size", WorkerPoolSize, "size of the bounded CPU-bound worker pool")
	flag.StringVar(&AllowedRootPath, "allowed-root", AllowedRootPath, "restrict notebook/asset paths to this subtree (empty=unrestricted)")
	flag.StringVar(&JupyterBaseURL, "jupyter-url", JupyterBaseURL, "Jupyter Server base URL")
	flag.StringVar(&JupyterToken, "jupyter-token", JupyterToken, "Jupyter Server auth token")
	flag.DurationVar(&ExecutionTaskTimeout, "execution-task-timeout", ExecutionTaskTimeout, "maximum wall-clock time a single queued task may run")
	flag.StringVar(&ObservabilityEndpoint, "observability-endpoint", ObservabilityEndpoint, "address metrics are exposed on")
	flag.DurationVar(&NotebookLockTimeout, "notebook-lock-timeout", NotebookLockTimeout, "advisory notebook lock acquisition timeout")

	if v := os.Getenv(gracefulShutdownTimeoutEnv); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			stdlog.Panicf("failed to parse %s: %v", gracefulShutdownTimeoutEnv, err)
		}
		ApiGracefulShutdownTimeout = d
	}
	flag.DurationVar(&ApiGracefulShutdownTimeout, "graceful-shutdown-timeout", ApiGracefulShutdownTimeout, "SSE graceful shutdown timeout")

	flag.Parse()

	if ServerAccessToken == "" {
		token, err := generateToken()
		if err != nil {
			stdlog.Panicf("failed to generate access token: %v", err)
		}
		ServerAccessToken = token
	}

	if v := os.Getenv(checkpointSecretEnv); v != "" {
		secret, err := hex.DecodeString(v)
		if err != nil {
			stdlog.Panicf("failed to parse %s as hex: %v", checkpointSecretEnv, err)
		}
		CheckpointSecret = secret
	} else {
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			stdlog.Panicf("failed to generate checkpoint secret: %v", err)
		}
		CheckpointSecret = secret
	}

	log.Info("data root is: %s", DataRoot)
	log.Info("listening on port %d, log level %s", ServerPort, ServerLogLevel)
}

// generateToken produces a fresh random session token, rotated per server
// start per §4.10 point 4.
func generateToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// PublishToken emits the access token to the terminal if attached, else
// writes it to a connection descriptor file under the data root for
// out-of-band discovery, per §4.10 point 4 / §6.5.
func PublishToken() error {
	if isTerminal(os.Stdout) {
		log.Info("access token: %s", ServerAccessToken)
		return nil
	}
	descriptor := filepath.Join(DataRoot, "notebookd.token")
	return os.WriteFile(descriptor, []byte(ServerAccessToken+"\n"), 0o600)
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

// SessionStatePath returns the path to the ACID store file under the data root.
func SessionStatePath() string {
	return filepath.Join(DataRoot, "sessions", "state.db")
}

// CheckpointsDir returns the checkpoints directory under the data root.
func CheckpointsDir() string {
	return filepath.Join(DataRoot, "checkpoints")
}

// ParseIntDefault parses s as an int, returning def on any failure.
func ParseIntDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
