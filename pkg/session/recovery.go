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
	"time"

	"github.com/notebookd/notebookd/pkg/kernelmgr"
	"github.com/notebookd/notebookd/pkg/log"
	"github.com/notebookd/notebookd/pkg/store"
)

// Recover implements §4.9.5, startup recovery. It runs once, before the web
// server starts accepting requests:
//
//  1. preflight cleanup: shut down any kernel the Jupyter server still holds
//     that this process has no durable session record for (an orphan from
//     an unclean prior exit);
//  2. for every persisted session record, verify the kernel behind its
//     connection descriptor is still alive;
//  3. for a live session, reconnect it into memory, re-acquire its lock,
//     warm its worker, and requeue any tasks still pending or running;
//  4. for a dead session, purge its durable record. Assets already under
//     lease are left untouched: C3's own GC reaps them on their own
//     schedule, independent of session lifetime.
func (m *Manager) Recover() error {
	recs, err := m.db.ListSessions()
	if err != nil {
		return err
	}

	liveKernelIDs := make(map[string]bool, len(recs))
	for _, rec := range recs {
		liveKernelIDs[rec.ConnectionDescriptor] = true
	}
	if err := m.kernels.PreflightCleanup(liveKernelIDs); err != nil {
		log.Warn("session: preflight cleanup: %v", err)
	}

	for _, rec := range recs {
		handle := &kernelmgr.Handle{
			NotebookPath: rec.NotebookPath,
			KernelID:     rec.ConnectionDescriptor,
			StartedAt:    time.Unix(0, rec.PIDStartEpoch),
		}

		if !m.kernels.IsAlive(handle) {
			log.Info("session: recovery found dead session for %s, purging", rec.NotebookPath)
			if err := m.db.ForgetSession(rec.NotebookPath); err != nil {
				log.Warn("session: forget dead session %s: %v", rec.NotebookPath, err)
			}
			continue
		}

		release, err := m.notebooks.Locks().Acquire(rec.NotebookPath, m.lockTimeout)
		if err != nil {
			log.Warn("session: recovery could not re-lock %s, leaving as dead: %v", rec.NotebookPath, err)
			continue
		}

		sess := &Session{
			NotebookPath:   rec.NotebookPath,
			EnvFingerprint: rec.EnvFingerprint,
			Status:         store.SessionReady,
			CreatedAt:      rec.CreatedAt,
			Handle:         handle,
			releaseLock:    release,
		}

		m.mu.Lock()
		m.sessions[rec.NotebookPath] = sess
		m.mu.Unlock()

		m.scheduler.Warm(rec.NotebookPath)

		pending, err := m.db.PendingTasksFor(rec.NotebookPath)
		if err != nil {
			log.Warn("session: list pending tasks for %s: %v", rec.NotebookPath, err)
			continue
		}
		for _, t := range pending {
			if t.Status == store.TaskRunning {
				if err := m.db.ResetToPending(t.TaskID); err != nil {
					log.Warn("session: reset task %s to pending: %v", t.TaskID, err)
					continue
				}
			}
		}
		m.scheduler.Requeue(rec.NotebookPath, pending)
		log.Info("session: recovered %s with %d requeued task(s)", rec.NotebookPath, len(pending))
	}

	return nil
}
