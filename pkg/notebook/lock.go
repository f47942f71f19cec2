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

package notebook

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/notebookd/notebookd/pkg/errtax"
)

// LockManager provides granular process-level advisory locking per notebook
// path, so two notebookd processes (or a crash-recovered restart racing a
// still-live instance) never hold concurrent writers on the same file.
type LockManager struct {
	mu      sync.Mutex
	locks   map[string]*PathLock
	lockDir string
}

// PathLock is a single notebook path's advisory lock.
type PathLock struct {
	flock *flock.Flock
}

// NewLockManager returns a lock manager whose lock files live under the
// given directory (typically <data-root>/locks).
func NewLockManager(lockDir string) *LockManager {
	_ = os.MkdirAll(lockDir, 0o755)
	return &LockManager{
		locks:   make(map[string]*PathLock),
		lockDir: lockDir,
	}
}

func (lm *LockManager) getLock(notebookPath string) *PathLock {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if l, ok := lm.locks[notebookPath]; ok {
		return l
	}

	fileName := fmt.Sprintf("%x.lock", hashPath(notebookPath))
	lockFile := filepath.Join(lm.lockDir, fileName)
	l := &PathLock{flock: flock.New(lockFile)}
	lm.locks[notebookPath] = l
	return l
}

// WithLock executes fn while holding the exclusive advisory lock for
// notebookPath, bounded by timeout; on timeout, returns NotebookBusy (§4.2).
func (lm *LockManager) WithLock(notebookPath string, timeout time.Duration, fn func() error) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	l := lm.getLock(notebookPath)
	locked, err := l.flock.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return errtax.New(errtax.NotebookBusy, "lock %s: %v", notebookPath, err)
	}
	if !locked {
		return errtax.New(errtax.NotebookBusy, "timed out acquiring lock on %s", notebookPath)
	}
	defer l.flock.Unlock()

	return fn()
}

// Acquire takes the advisory lock for notebookPath and holds it until the
// returned release function is called, for callers that need the lock to
// span more than a single closure (a session's whole lifetime, §4.9.1
// step 4, or migrate_session's hold-both-paths step). It shares the same
// cached PathLock as WithLock, so this process's own later per-operation
// WithLock calls against the same path nest rather than deadlock.
func (lm *LockManager) Acquire(notebookPath string, timeout time.Duration) (func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	l := lm.getLock(notebookPath)
	locked, err := l.flock.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return nil, errtax.New(errtax.NotebookBusy, "lock %s: %v", notebookPath, err)
	}
	if !locked {
		return nil, errtax.New(errtax.NotebookBusy, "timed out acquiring lock on %s", notebookPath)
	}
	return func() { _ = l.flock.Unlock() }, nil
}

// hashPath is a simple, stable, non-cryptographic hash for lock filenames.
func hashPath(s string) uint32 {
	h := uint32(2166136261)
	for i := 0; i < len(s); i++ {
		h = (h ^ uint32(s[i])) * 16777619
	}
	return h
}
