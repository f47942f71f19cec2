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

package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/notebookd/notebookd/pkg/errtax"
)

var (
	bucketTasks       = []byte("tasks")
	bucketAssetLeases = []byte("asset_leases")
	bucketSessions    = []byte("sessions")
)

// Store is the ACID-durable persistence layer (C1), backed by a single
// bbolt file with one bucket per logical relation.
type Store struct {
	db *bolt.DB
}

// Open creates or opens the durable store at <dataDir>/state.db, creating
// the three relations' buckets in one transaction if they don't yet exist.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketTasks, bucketAssetLeases, bucketSessions} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// EnqueueTask durably inserts T with status=pending. Must be called before
// the caller may place the task on any in-memory queue (§4.1).
func (s *Store) EnqueueTask(t *Task) error {
	if t.Status == "" {
		t.Status = TaskPending
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	return s.putTask(t)
}

func (s *Store) putTask(t *Task) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(t)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketTasks).Put([]byte(t.TaskID), data)
	})
}

// GetTask returns the task by id, or a NotFound error.
func (s *Store) GetTask(taskID string) (*Task, error) {
	var t Task
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketTasks).Get([]byte(taskID))
		if data == nil {
			return errtax.New(errtax.NotFound, "task not found: %s", taskID)
		}
		// data is only valid for the lifetime of the transaction; copy via Unmarshal.
		return json.Unmarshal(data, &t)
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// MarkRunning transitions a task pending->running. Idempotent if already running.
func (s *Store) MarkRunning(taskID string) error {
	return s.transition(taskID, func(t *Task) error {
		if t.Status == TaskRunning {
			return nil
		}
		if t.Status != TaskPending {
			return errtax.New(errtax.InvalidInput, "task %s is not pending (status=%s)", taskID, t.Status)
		}
		t.Status = TaskRunning
		t.StartedAt = time.Now()
		return nil
	})
}

// MarkCompleted transitions a task to completed with its outputs and
// execution count. Calling it twice with the same outputs is a no-op (§8
// round-trip law); a terminal task is never re-transitioned.
func (s *Store) MarkCompleted(taskID string, outputs json.RawMessage, executionCount int) error {
	return s.transition(taskID, func(t *Task) error {
		if t.Status.Terminal() {
			return nil
		}
		t.Status = TaskCompleted
		t.CompletedAt = time.Now()
		t.OutputsBlob = outputs
		t.ExecutionCount = executionCount
		return nil
	})
}

// MarkFailed transitions a task to failed with an error record.
func (s *Store) MarkFailed(taskID string, errBlob json.RawMessage) error {
	return s.transition(taskID, func(t *Task) error {
		if t.Status.Terminal() {
			return nil
		}
		t.Status = TaskFailed
		t.CompletedAt = time.Now()
		t.ErrorBlob = errBlob
		return nil
	})
}

// MarkCancelled transitions a task to cancelled.
func (s *Store) MarkCancelled(taskID string) error {
	return s.transition(taskID, func(t *Task) error {
		if t.Status.Terminal() {
			return nil
		}
		t.Status = TaskCancelled
		t.CompletedAt = time.Now()
		return nil
	})
}

// ResetToPending rewinds a running task back to pending, for startup
// recovery: a task that was mid-execution when the process stopped was
// never actually finished, so it is re-admitted to the front of the queue
// rather than left stuck in running forever (§4.9.5).
func (s *Store) ResetToPending(taskID string) error {
	return s.transition(taskID, func(t *Task) error {
		if t.Status.Terminal() {
			return nil
		}
		t.Status = TaskPending
		t.StartedAt = time.Time{}
		return nil
	})
}

// transition loads, mutates, and rewrites a task inside a single bbolt
// transaction so reads of partial state are never visible.
func (s *Store) transition(taskID string, mutate func(*Task) error) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketTasks)
		data := b.Get([]byte(taskID))
		if data == nil {
			return errtax.New(errtax.NotFound, "task not found: %s", taskID)
		}
		var t Task
		if err := json.Unmarshal(data, &t); err != nil {
			return err
		}
		if err := mutate(&t); err != nil {
			return err
		}
		out, err := json.Marshal(&t)
		if err != nil {
			return err
		}
		return b.Put([]byte(taskID), out)
	})
}

// PendingTasksFor returns every non-terminal task for a notebook path, in
// submission order, for crash recovery (§4.9.5) and queue rebuild.
func (s *Store) PendingTasksFor(notebookPath string) ([]*Task, error) {
	var tasks []*Task
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketTasks).ForEach(func(_, v []byte) error {
			var t Task
			if err := json.Unmarshal(v, &t); err != nil {
				return err
			}
			if t.NotebookPath == notebookPath && !t.Status.Terminal() {
				tasks = append(tasks, &t)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortTasksByCreatedAt(tasks)
	return tasks, nil
}

// HistoryFor returns up to limit most-recently-completed tasks for a
// notebook path, in completion order, for output rehydration (§4.9.6).
func (s *Store) HistoryFor(notebookPath string, limit int) ([]*Task, error) {
	var tasks []*Task
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketTasks).ForEach(func(_, v []byte) error {
			var t Task
			if err := json.Unmarshal(v, &t); err != nil {
				return err
			}
			if t.NotebookPath == notebookPath && t.Status.Terminal() {
				tasks = append(tasks, &t)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortTasksByCompletedAt(tasks)
	if limit > 0 && len(tasks) > limit {
		tasks = tasks[len(tasks)-limit:]
	}
	return tasks, nil
}

// TaskByPID returns the notebook path owning the session that launched the
// given kernel pid, by scanning session records for a matching PID. Used by
// attach_session (§4.9.2).
func (s *Store) TaskByPID(pid int) (string, error) {
	var notebookPath string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSessions).ForEach(func(_, v []byte) error {
			var rec SessionRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			if rec.PID == pid {
				notebookPath = rec.NotebookPath
			}
			return nil
		})
	})
	if err != nil {
		return "", err
	}
	if notebookPath == "" {
		return "", errtax.New(errtax.NotFound, "no session for pid %d", pid)
	}
	return notebookPath, nil
}

// RenewLease upserts an asset lease, setting lease_expires = now + ttl.
func (s *Store) RenewLease(assetPath, notebookPath, mime string, size int64, ttl time.Duration) error {
	now := time.Now()
	lease := AssetLease{
		AssetPath:    assetPath,
		NotebookPath: notebookPath,
		Mime:         mime,
		Size:         size,
		LastSeen:     now,
		LeaseExpires: now.Add(ttl),
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(&lease)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketAssetLeases).Put([]byte(assetPath), data)
	})
}

// ExpiredLeases enumerates assets whose lease has expired as of now.
func (s *Store) ExpiredLeases(now time.Time) ([]*AssetLease, error) {
	var leases []*AssetLease
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketAssetLeases).ForEach(func(_, v []byte) error {
			var l AssetLease
			if err := json.Unmarshal(v, &l); err != nil {
				return err
			}
			if l.Expired(now) {
				leases = append(leases, &l)
			}
			return nil
		})
	})
	return leases, err
}

// DeleteLease removes a lease record, e.g. after GC deletes the asset.
func (s *Store) DeleteLease(assetPath string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketAssetLeases).Delete([]byte(assetPath))
	})
}

// PersistSession durably records a session's metadata.
func (s *Store) PersistSession(rec *SessionRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketSessions).Put([]byte(rec.NotebookPath), data)
	})
}

// GetSession returns the session record for a notebook path, or NotFound.
func (s *Store) GetSession(notebookPath string) (*SessionRecord, error) {
	var rec SessionRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketSessions).Get([]byte(notebookPath))
		if data == nil {
			return errtax.New(errtax.NotFound, "no session for %s", notebookPath)
		}
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListSessions returns every persisted session record.
func (s *Store) ListSessions() ([]*SessionRecord, error) {
	var recs []*SessionRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSessions).ForEach(func(_, v []byte) error {
			var rec SessionRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			recs = append(recs, &rec)
			return nil
		})
	})
	return recs, err
}

// ForgetSession removes a session's durable record.
func (s *Store) ForgetSession(notebookPath string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSessions).Delete([]byte(notebookPath))
	})
}

// RenameSession is the single transaction spanning all three relations that
// the migration operation (§4.9.3) requires: every record whose
// notebook_path equals old is rewritten to new, atomically.
func (s *Store) RenameSession(oldPath, newPath string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		sessions := tx.Bucket(bucketSessions)
		data := sessions.Get([]byte(oldPath))
		if data == nil {
			return errtax.New(errtax.NotFound, "no session for %s", oldPath)
		}
		var rec SessionRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return errtax.New(errtax.MigrationFailed, "decode session: %v", err)
		}
		rec.NotebookPath = newPath
		newData, err := json.Marshal(&rec)
		if err != nil {
			return errtax.New(errtax.MigrationFailed, "encode session: %v", err)
		}
		if err := sessions.Delete([]byte(oldPath)); err != nil {
			return err
		}
		if err := sessions.Put([]byte(newPath), newData); err != nil {
			return err
		}

		if err := renameBucketByNotebookPath(tx.Bucket(bucketTasks), oldPath, newPath, func(v []byte) ([]byte, error) {
			var t Task
			if err := json.Unmarshal(v, &t); err != nil {
				return nil, err
			}
			t.NotebookPath = newPath
			return json.Marshal(&t)
		}); err != nil {
			return errtax.New(errtax.MigrationFailed, "rewrite tasks: %v", err)
		}

		if err := renameBucketByNotebookPath(tx.Bucket(bucketAssetLeases), oldPath, newPath, func(v []byte) ([]byte, error) {
			var l AssetLease
			if err := json.Unmarshal(v, &l); err != nil {
				return nil, err
			}
			l.NotebookPath = newPath
			return json.Marshal(&l)
		}); err != nil {
			return errtax.New(errtax.MigrationFailed, "rewrite leases: %v", err)
		}

		return nil
	})
}

// renameBucketByNotebookPath rewrites every value in a bucket whose decoded
// notebook_path matches old, in place (keys in tasks/asset_leases are their
// own ids, not the notebook path, so only values change).
func renameBucketByNotebookPath(b *bolt.Bucket, oldPath, newPath string, rewrite func([]byte) ([]byte, error)) error {
	type kv struct {
		key   []byte
		value []byte
	}
	var updates []kv

	err := b.ForEach(func(k, v []byte) error {
		var probe struct {
			NotebookPath string `json:"notebook_path"`
		}
		if err := json.Unmarshal(v, &probe); err != nil {
			return err
		}
		if probe.NotebookPath != oldPath {
			return nil
		}
		out, err := rewrite(v)
		if err != nil {
			return err
		}
		keyCopy := append([]byte(nil), k...)
		updates = append(updates, kv{key: keyCopy, value: out})
		return nil
	})
	if err != nil {
		return err
	}

	for _, u := range updates {
		if err := b.Put(u.key, u.value); err != nil {
			return err
		}
	}
	return nil
}
