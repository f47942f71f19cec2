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

	"github.com/notebookd/notebookd/pkg/errtax"
)

// FindActiveSession implements §4.9.2: does a session exist for this
// notebook path right now, and if so, what does it look like.
func (m *Manager) FindActiveSession(notebookPath string) *Descriptor {
	notebookPath = filepath.Clean(notebookPath)

	sess, ok := m.get(notebookPath)
	if !ok {
		return &Descriptor{NotebookPath: notebookPath, Found: false}
	}
	sess.mu.RLock()
	defer sess.mu.RUnlock()
	return &Descriptor{
		NotebookPath:   notebookPath,
		Found:          true,
		PID:            pidFromKernelID(sess.Handle.KernelID),
		StartEpoch:     sess.Handle.StartedAt.UnixNano(),
		CreatedAt:      sess.CreatedAt,
		Status:         sess.Status,
		EnvFingerprint: sess.EnvFingerprint,
	}
}

// ListSessions returns a descriptor per live, in-memory session (§4.9.2).
func (m *Manager) ListSessions() []*Descriptor {
	m.mu.RLock()
	paths := make([]string, 0, len(m.sessions))
	for p := range m.sessions {
		paths = append(paths, p)
	}
	m.mu.RUnlock()

	out := make([]*Descriptor, 0, len(paths))
	for _, p := range paths {
		out = append(out, m.FindActiveSession(p))
	}
	return out
}

// AttachSession resolves a bare pid (e.g. surfaced to a client earlier via
// find_active_session) back to its owning notebook path, by consulting C1's
// durable records rather than the in-memory map, so a client can attach
// even immediately after this process restarted and before recovery has
// re-populated m.sessions (§4.9.2).
func (m *Manager) AttachSession(pid int) (string, error) {
	return m.db.TaskByPID(pid)
}

// MigrateSession implements §4.9.3, the rename fix: move a session from
// oldPath to newPath as a single all-or-nothing operation. Both paths' locks
// are held for the duration so no other operation can observe a half-moved
// session, and any failure after the durable rename rolls back the
// in-memory map to its original state.
func (m *Manager) MigrateSession(oldPath, newPath string) error {
	oldPath = filepath.Clean(oldPath)
	newPath = filepath.Clean(newPath)

	m.mu.RLock()
	sess, ok := m.sessions[oldPath]
	m.mu.RUnlock()
	if !ok {
		return errtax.New(errtax.NotFound, "no session for %s", oldPath)
	}

	releaseOld, err := m.notebooks.Locks().Acquire(oldPath, m.lockTimeout)
	if err != nil {
		return err
	}
	defer releaseOld()

	releaseNew, err := m.notebooks.Locks().Acquire(newPath, m.lockTimeout)
	if err != nil {
		return errtax.New(errtax.MigrationFailed, "lock new path %s: %v", newPath, err)
	}

	if err := m.db.RenameSession(oldPath, newPath); err != nil {
		releaseNew()
		return errtax.New(errtax.MigrationFailed, "rename session %s -> %s: %v", oldPath, newPath, err)
	}

	m.mu.Lock()
	delete(m.sessions, oldPath)
	sess.mu.Lock()
	sess.NotebookPath = newPath
	sess.releaseLock = releaseNew
	sess.mu.Unlock()
	m.sessions[newPath] = sess
	m.mu.Unlock()

	m.scheduler.Stop(oldPath)
	m.scheduler.Warm(newPath)

	return nil
}
