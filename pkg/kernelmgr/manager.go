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

package kernelmgr

import (
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/util/retry"

	"github.com/notebookd/notebookd/pkg/errtax"
	"github.com/notebookd/notebookd/pkg/jupyter"
	"github.com/notebookd/notebookd/pkg/jupyter/auth"
	"github.com/notebookd/notebookd/pkg/jupyter/kernel"
	"github.com/notebookd/notebookd/pkg/log"
)

var startBackoff = wait.Backoff{
	Steps:    40,
	Duration: 250 * time.Millisecond,
	Factor:   1.3,
	Jitter:   0.1,
}

// Manager is C4: it owns the single Jupyter server connection and tracks
// one Handle per live notebook session.
type Manager struct {
	baseURL string
	token   string

	startTimeout time.Duration

	mu      sync.RWMutex
	handles map[string]*Handle // by notebook path
}

// New returns a kernel lifecycle manager pointed at a running Jupyter
// server (§2, §4.4).
func New(baseURL, token string, startTimeout time.Duration) *Manager {
	return &Manager{
		baseURL:      baseURL,
		token:        token,
		startTimeout: startTimeout,
		handles:      make(map[string]*Handle),
	}
}

// client builds a jupyter.Client wired with the server's token, carried
// as an Authorization header by auth.Client rather than a bespoke
// RoundTripper (§4.4, see DESIGN.md for the auth-wiring note).
func (m *Manager) client() *jupyter.Client {
	return jupyter.NewClient(m.baseURL, jupyter.WithToken(m.token), jupyter.WithHTTPClient(http.DefaultClient))
}

// Start provisions a fresh kernel-backed session for notebookPath, retrying
// transient failures with backoff the way the teacher's CreateContext does
// (§4.4's start(env_fingerprint, notebook_dir, timeout)).
func (m *Manager) Start(notebookPath, kernelName, envFingerprint string) (*Handle, error) {
	client := m.client()

	var sessionID, kernelID string
	err := retry.OnError(startBackoff, func(err error) bool {
		log.Warn("kernelmgr: start failed for %s, retrying: %v", notebookPath, err)
		return err != nil
	}, func() error {
		sess, err := client.CreateSession(notebookPath, notebookPath, kernelName)
		if err != nil {
			return err
		}
		sessionID, kernelID = sess.ID, sess.Kernel.ID
		return nil
	})
	if err != nil {
		return nil, errtax.New(errtax.KernelStartTimeout, "start kernel for %s: %v", notebookPath, err).
			WithContext("notebook_path", notebookPath)
	}

	if err := m.waitUntilReady(client, kernelID); err != nil {
		_ = client.ShutdownKernel(kernelID, false)
		return nil, err
	}

	handle := &Handle{
		NotebookPath:   notebookPath,
		SessionID:      sessionID,
		KernelID:       kernelID,
		KernelName:     kernelName,
		EnvFingerprint: envFingerprint,
		StartedAt:      time.Now(),
	}

	m.mu.Lock()
	m.handles[notebookPath] = handle
	m.mu.Unlock()

	return handle, nil
}

// waitUntilReady polls GetKernel until the kernel leaves "starting", or
// times out per the configured kernel-start timeout (§4.4, §8).
func (m *Manager) waitUntilReady(client *jupyter.Client, kernelID string) error {
	deadline := time.Now().Add(m.startTimeout)
	for {
		k, err := client.GetKernel(kernelID)
		if err == nil && kernel.KernelStatus(k.ExecutionState) != kernel.KernelStatusStarting {
			return nil
		}
		if time.Now().After(deadline) {
			return errtax.New(errtax.KernelStartTimeout, "kernel %s did not become ready within %s", kernelID, m.startTimeout)
		}
		time.Sleep(200 * time.Millisecond)
	}
}

// Handle returns the tracked handle for a notebook path, if any.
func (m *Manager) Handle(notebookPath string) (*Handle, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.handles[notebookPath]
	return h, ok
}

// Forget drops the in-memory handle without touching the remote kernel,
// used when a session is known to already be gone server-side.
func (m *Manager) Forget(notebookPath string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.handles, notebookPath)
}

// IsAlive reports whether the kernel behind a handle is still known to the
// Jupyter server and not in a dead state (§4.4's is_alive).
func (m *Manager) IsAlive(h *Handle) bool {
	k, err := m.client().GetKernel(h.KernelID)
	if err != nil {
		return false
	}
	return kernel.KernelStatus(k.ExecutionState) != kernel.KernelStatusDead
}

// State reports the kernel's coarse execution state.
func (m *Manager) State(h *Handle) State {
	k, err := m.client().GetKernel(h.KernelID)
	if err != nil {
		return StateDead
	}
	switch kernel.KernelStatus(k.ExecutionState) {
	case kernel.KernelStatusIdle:
		return StateIdle
	case kernel.KernelStatusBusy:
		return StateBusy
	case kernel.KernelStatusStarting, kernel.KernelStatusRestarting:
		return StateStarting
	default:
		return StateDead
	}
}

// Interrupt sends SIGINT-equivalent interrupt to the kernel without killing
// it (§4.4).
func (m *Manager) Interrupt(h *Handle) error {
	return m.client().InterruptKernel(h.KernelID)
}

// Terminate shuts the kernel down, freeing the session's remote resources.
// Shutdown is idempotent from the caller's perspective: an already-dead
// kernel ID returns no error here.
func (m *Manager) Terminate(h *Handle) error {
	err := m.client().ShutdownKernel(h.KernelID, false)
	m.Forget(h.NotebookPath)
	if err != nil {
		log.Warn("kernelmgr: shutdown %s returned %v (treating as already gone)", h.KernelID, err)
		return nil
	}
	return nil
}

// Restart shuts the kernel down and starts a fresh one for the same
// notebook, returning the new handle (new kernel ID, defeating any
// would-be recycled-PID confusion per the Handle doc comment).
func (m *Manager) Restart(h *Handle) (*Handle, error) {
	if err := m.Terminate(h); err != nil {
		return nil, err
	}
	return m.Start(h.NotebookPath, h.KernelName, h.EnvFingerprint)
}

// WSURL builds the kernel channel websocket URL for h, carrying the
// server's token as a query parameter via auth.Auth.AddAuthToURL the way
// the teacher's ConnectToKernel does (§4.4/§4.5 wiring into C5).
func (m *Manager) WSURL(h *Handle) string {
	parsed, err := url.Parse(m.baseURL)
	if err != nil {
		return ""
	}
	scheme := "ws"
	if parsed.Scheme == "https" {
		scheme = "wss"
	}
	u := fmt.Sprintf("%s://%s/api/kernels/%s/channels", scheme, parsed.Host, h.KernelID)
	authed, err := auth.NewTokenAuth(m.token).AddAuthToURL(u)
	if err != nil {
		return u
	}
	return authed
}

// PreflightCleanup runs at process startup (§4.4's pre_flight_cleanup): it
// lists every kernel the Jupyter server currently holds and shuts down any
// that this process has no durable session record for, since those are
// orphans left behind by an unclean prior shutdown.
func (m *Manager) PreflightCleanup(liveKernelIDs map[string]bool) error {
	client := m.client()
	kernels, err := client.ListKernels()
	if err != nil {
		return fmt.Errorf("list kernels for preflight cleanup: %w", err)
	}

	for _, k := range kernels {
		if liveKernelIDs[k.ID] {
			continue
		}
		log.Info("kernelmgr: shutting down orphaned kernel %s", k.ID)
		if err := client.ShutdownKernel(k.ID, false); err != nil {
			log.Warn("kernelmgr: failed to shut down orphaned kernel %s: %v", k.ID, err)
		}
	}
	return nil
}
