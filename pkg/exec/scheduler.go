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

// Package exec implements C6, the Execution Scheduler: a durable,
// per-session FIFO queue feeding one kernel at a time, generalizing the
// teacher's single in-flight `TryLock`-guarded call into a proper queue
// with cancellation and wall-clock timeouts.
package exec

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/notebookd/notebookd/pkg/errtax"
	"github.com/notebookd/notebookd/pkg/iomux"
	"github.com/notebookd/notebookd/pkg/kernelmgr"
	"github.com/notebookd/notebookd/pkg/log"
	"github.com/notebookd/notebookd/pkg/notebook"
	"github.com/notebookd/notebookd/pkg/sanitize"
	"github.com/notebookd/notebookd/pkg/store"
)

// Scheduler is C6.
type Scheduler struct {
	store     *store.Store
	kernels   *kernelmgr.Manager
	hubs      *iomux.Registry
	notebooks *notebook.Manager
	sanitizer *sanitize.Sanitizer

	maxQueueSize int
	taskTimeout  time.Duration

	mu     sync.Mutex
	queues map[string]*sessionQueue
}

// New returns an execution scheduler wiring together C1/C3/C4/C5/C7/C2.
func New(
	db *store.Store,
	kernels *kernelmgr.Manager,
	hubs *iomux.Registry,
	notebooks *notebook.Manager,
	sanitizer *sanitize.Sanitizer,
	maxQueueSize int,
	taskTimeout time.Duration,
) *Scheduler {
	return &Scheduler{
		store:        db,
		kernels:      kernels,
		hubs:         hubs,
		notebooks:    notebooks,
		sanitizer:    sanitizer,
		maxQueueSize: maxQueueSize,
		taskTimeout:  taskTimeout,
		queues:       make(map[string]*sessionQueue),
	}
}

// sessionQueue is C6's per-notebook FIFO, durable record written before
// in-memory enqueue (§4.6).
type sessionQueue struct {
	mu        sync.Mutex
	cond      *sync.Cond
	pending   []*store.Task
	cancelled map[string]bool

	runningTaskID string
	runningCancel context.CancelFunc

	closed bool
}

func newSessionQueue() *sessionQueue {
	q := &sessionQueue{cancelled: make(map[string]bool)}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (s *Scheduler) ensureQueue(notebookPath string) *sessionQueue {
	s.mu.Lock()
	defer s.mu.Unlock()

	if q, ok := s.queues[notebookPath]; ok {
		return q
	}
	q := newSessionQueue()
	s.queues[notebookPath] = q
	go s.runQueue(notebookPath, q)
	return q
}

// Submit durably enqueues a cell's code for execution and returns its task
// id. Backpressure is rejected before the durable write happens, keeping
// the check-then-act atomic under the queue's own lock (§4.6, §8).
func (s *Scheduler) Submit(notebookPath string, cellIndex int, code string) (string, error) {
	q := s.ensureQueue(notebookPath)

	q.mu.Lock()
	if len(q.pending) >= s.maxQueueSize {
		q.mu.Unlock()
		return "", errtax.New(errtax.Backpressure, "execution queue full for %s", notebookPath).
			WithContext("notebook_path", notebookPath)
	}

	task := &store.Task{
		TaskID:       uuid.New().String(),
		NotebookPath: notebookPath,
		CellIndex:    cellIndex,
		Code:         code,
	}
	if err := s.store.EnqueueTask(task); err != nil {
		q.mu.Unlock()
		return "", err
	}
	q.pending = append(q.pending, task)
	q.cond.Signal()
	q.mu.Unlock()

	return task.TaskID, nil
}

// Cancel removes a pending task from the queue, or interrupts the kernel
// if the task is the one currently running (§4.6).
func (s *Scheduler) Cancel(notebookPath, taskID string) error {
	s.mu.Lock()
	q, ok := s.queues[notebookPath]
	s.mu.Unlock()
	if !ok {
		return errtax.New(errtax.NotFound, "no active queue for %s", notebookPath)
	}

	q.mu.Lock()
	if q.runningTaskID == taskID {
		cancel := q.runningCancel
		q.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		return nil
	}

	for i, t := range q.pending {
		if t.TaskID == taskID {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			q.mu.Unlock()
			return s.store.MarkCancelled(taskID)
		}
	}
	q.mu.Unlock()
	return errtax.New(errtax.NotFound, "task %s not found in queue for %s", taskID, notebookPath)
}

// Warm starts a notebook's worker goroutine without submitting any task,
// so a freshly started session has its C6 worker (and, once the first
// request lands, its C5 hub) ready before the first cell is ever run
// (§4.9.1 step 5).
func (s *Scheduler) Warm(notebookPath string) {
	s.ensureQueue(notebookPath)
}

// Requeue re-admits durably persisted tasks into a freshly warmed queue's
// in-memory FIFO, in the order given, without re-writing them to the store
// (they are already there). Used by startup recovery to resume tasks that
// were still pending or running when the process last stopped (§4.9.5).
func (s *Scheduler) Requeue(notebookPath string, tasks []*store.Task) {
	if len(tasks) == 0 {
		return
	}
	q := s.ensureQueue(notebookPath)
	q.mu.Lock()
	q.pending = append(q.pending, tasks...)
	q.cond.Signal()
	q.mu.Unlock()
}

// Stop closes a notebook's queue and drops it from the scheduler. The
// worker still runs every task already pending, then exits; the running
// task is not cancelled here.
func (s *Scheduler) Stop(notebookPath string) {
	s.mu.Lock()
	q, ok := s.queues[notebookPath]
	delete(s.queues, notebookPath)
	s.mu.Unlock()

	if !ok {
		return
	}
	q.mu.Lock()
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()
}

func marshalOutputs(outputs []*sanitize.Output) json.RawMessage {
	raw, err := json.Marshal(outputs)
	if err != nil {
		log.Error("exec: marshal outputs: %v", err)
		return json.RawMessage("[]")
	}
	return raw
}
