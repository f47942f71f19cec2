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

package session

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/notebookd/notebookd/pkg/errtax"
	"github.com/notebookd/notebookd/pkg/exec"
	"github.com/notebookd/notebookd/pkg/iomux"
	"github.com/notebookd/notebookd/pkg/kernelmgr"
	"github.com/notebookd/notebookd/pkg/log"
	"github.com/notebookd/notebookd/pkg/notebook"
	"github.com/notebookd/notebookd/pkg/store"
)

// Manager is C9: the central state machine wiring C1 through C6 together.
type Manager struct {
	db        *store.Store
	kernels   *kernelmgr.Manager
	hubs      *iomux.Registry
	notebooks *notebook.Manager
	scheduler *exec.Scheduler

	maxSessions int
	lockTimeout time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session
}

// New returns a session manager. lockTimeout bounds how long start_session
// waits to acquire the notebook's advisory lock before failing with
// NotebookBusy.
func New(
	db *store.Store,
	kernels *kernelmgr.Manager,
	hubs *iomux.Registry,
	notebooks *notebook.Manager,
	scheduler *exec.Scheduler,
	maxSessions int,
	lockTimeout time.Duration,
) *Manager {
	return &Manager{
		db:          db,
		kernels:     kernels,
		hubs:        hubs,
		notebooks:   notebooks,
		scheduler:   scheduler,
		maxSessions: maxSessions,
		lockTimeout: lockTimeout,
		sessions:    make(map[string]*Session),
	}
}

// pidFromKernelID derives a SessionRecord-compatible "pid" from a Jupyter
// kernel id, since there is no OS process for this architecture to key on
// directly (see pkg/kernelmgr.Handle's doc comment: the kernel id plays the
// pid+start-epoch role here). The record's pid_start_epoch is the handle's
// actual start time, so find_active_session/attach_session still get a
// monotonically meaningful liveness pair even though "pid" itself is a hash.
func pidFromKernelID(kernelID string) int {
	h := uint32(2166136261)
	for i := 0; i < len(kernelID); i++ {
		h = (h ^ uint32(kernelID[i])) * 16777619
	}
	return int(h & 0x7fffffff)
}

// StartSession implements §4.9.1's start_session: idempotent on an
// already-running session, otherwise launches a kernel, takes the
// notebook's advisory lock for the session's lifetime, warms C5/C6, and
// persists the session record before returning ready.
func (m *Manager) StartSession(notebookPath, kernelName, envFingerprint string) (*Session, error) {
	notebookPath = filepath.Clean(notebookPath)

	m.mu.Lock()
	if existing, ok := m.sessions[notebookPath]; ok {
		m.mu.Unlock()
		return existing, nil
	}
	if len(m.sessions) >= m.maxSessions {
		m.mu.Unlock()
		return nil, errtax.New(errtax.Backpressure, "maximum concurrent sessions (%d) reached", m.maxSessions).
			WithContext("notebook_path", notebookPath)
	}
	m.mu.Unlock()

	if _, err := m.notebooks.Read(notebookPath); err != nil {
		if _, createErr := m.notebooks.Create(notebookPath); createErr != nil {
			return nil, createErr
		}
	}

	handle, err := m.kernels.Start(notebookPath, kernelName, envFingerprint)
	if err != nil {
		return nil, err
	}

	release, err := m.notebooks.Locks().Acquire(notebookPath, m.lockTimeout)
	if err != nil {
		_ = m.kernels.Terminate(handle)
		return nil, err
	}

	m.scheduler.Warm(notebookPath)

	sess := &Session{
		NotebookPath:   notebookPath,
		EnvFingerprint: envFingerprint,
		Status:         store.SessionReady,
		CreatedAt:      time.Now(),
		Handle:         handle,
		releaseLock:    release,
	}

	rec := &store.SessionRecord{
		NotebookPath:         notebookPath,
		PID:                  pidFromKernelID(handle.KernelID),
		PIDStartEpoch:        handle.StartedAt.UnixNano(),
		ConnectionDescriptor: handle.KernelID,
		EnvFingerprint:       envFingerprint,
		WorkingDir:           filepath.Dir(notebookPath),
		CreatedAt:            sess.CreatedAt,
		Status:               store.SessionReady,
	}
	if err := m.db.PersistSession(rec); err != nil {
		release()
		_ = m.kernels.Terminate(handle)
		return nil, err
	}

	m.mu.Lock()
	m.sessions[notebookPath] = sess
	m.mu.Unlock()

	return sess, nil
}

// StopSession implements §4.9.1's stop_session: terminates the kernel,
// drops the scheduler's worker, releases the notebook lock, and forgets
// both the in-memory and durable session records.
func (m *Manager) StopSession(notebookPath string) error {
	notebookPath = filepath.Clean(notebookPath)

	m.mu.Lock()
	sess, ok := m.sessions[notebookPath]
	delete(m.sessions, notebookPath)
	m.mu.Unlock()
	if !ok {
		return errtax.New(errtax.NotFound, "no session for %s", notebookPath)
	}

	sess.setStatus(store.SessionTerminating)
	m.scheduler.Stop(notebookPath)
	m.hubs.Drop(sess.Handle.KernelID)
	if err := m.kernels.Terminate(sess.Handle); err != nil {
		log.Warn("session: terminate kernel for %s: %v", notebookPath, err)
	}
	if sess.releaseLock != nil {
		sess.releaseLock()
	}
	if err := m.db.ForgetSession(notebookPath); err != nil {
		return err
	}
	return nil
}

// Interrupt maps directly to C4 (§4.9.1).
func (m *Manager) Interrupt(notebookPath string) error {
	sess, ok := m.get(notebookPath)
	if !ok {
		return errtax.New(errtax.NotFound, "no session for %s", notebookPath)
	}
	return m.kernels.Interrupt(sess.Handle)
}

// Restart tears the kernel down and starts a fresh one for the same
// session, re-warming C5/C6 against the new handle (§4.9.1).
func (m *Manager) Restart(notebookPath string) error {
	sess, ok := m.get(notebookPath)
	if !ok {
		return errtax.New(errtax.NotFound, "no session for %s", notebookPath)
	}

	oldKernelID := sess.Handle.KernelID
	newHandle, err := m.kernels.Restart(sess.Handle)
	if err != nil {
		sess.setStatus(store.SessionDegraded)
		return err
	}

	m.hubs.Drop(oldKernelID)
	m.scheduler.Stop(notebookPath)
	m.scheduler.Warm(notebookPath)

	sess.mu.Lock()
	sess.Handle = newHandle
	sess.Status = store.SessionReady
	sess.mu.Unlock()

	rec, err := m.db.GetSession(notebookPath)
	if err == nil {
		rec.PID = pidFromKernelID(newHandle.KernelID)
		rec.PIDStartEpoch = newHandle.StartedAt.UnixNano()
		rec.ConnectionDescriptor = newHandle.KernelID
		rec.Status = store.SessionReady
		if err := m.db.PersistSession(rec); err != nil {
			log.Warn("session: persist restarted session %s: %v", notebookPath, err)
		}
	}
	return nil
}

func (m *Manager) get(notebookPath string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[filepath.Clean(notebookPath)]
	return sess, ok
}
