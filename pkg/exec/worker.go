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

package exec

import (
	"context"
	"encoding/json"

	"github.com/notebookd/notebookd/pkg/errtax"
	"github.com/notebookd/notebookd/pkg/iomux"
	"github.com/notebookd/notebookd/pkg/jupyter/execute"
	"github.com/notebookd/notebookd/pkg/log"
	"github.com/notebookd/notebookd/pkg/sanitize"
	"github.com/notebookd/notebookd/pkg/store"
)

// runQueue is the one goroutine-per-notebook worker loop: it pops tasks off
// the FIFO in order and drives each to completion before popping the next,
// mirroring the teacher's one-execution-at-a-time-per-kernel discipline but
// replacing its single TryLock guard with a durable, cancellable queue.
func (s *Scheduler) runQueue(notebookPath string, q *sessionQueue) {
	for {
		q.mu.Lock()
		for len(q.pending) == 0 && !q.closed {
			q.cond.Wait()
		}
		if q.closed && len(q.pending) == 0 {
			q.mu.Unlock()
			return
		}
		task := q.pending[0]
		q.pending = q.pending[1:]
		if q.cancelled[task.TaskID] {
			delete(q.cancelled, task.TaskID)
			q.mu.Unlock()
			_ = s.store.MarkCancelled(task.TaskID)
			continue
		}
		q.runningTaskID = task.TaskID
		q.mu.Unlock()

		s.executeTask(notebookPath, task, q)

		q.mu.Lock()
		q.runningTaskID = ""
		q.runningCancel = nil
		q.mu.Unlock()
	}
}

// executeTask drives one cell's execution end to end: mark running, reach
// the kernel's channel via C4/C5, stream and sanitize its output via C7,
// then record the terminal result on C1 and C2.
func (s *Scheduler) executeTask(notebookPath string, task *store.Task, q *sessionQueue) {
	if err := s.store.MarkRunning(task.TaskID); err != nil {
		log.Error("exec: mark running %s: %v", task.TaskID, err)
		return
	}

	handle, ok := s.kernels.Handle(notebookPath)
	if !ok || !s.kernels.IsAlive(handle) {
		failTask(s.store, task.TaskID, errtax.New(errtax.SessionUnavailable, "no live kernel for %s", notebookPath))
		return
	}

	hub, err := s.hubs.GetOrConnect(handle.KernelID, s.kernels.WSURL(handle))
	if err != nil {
		failTask(s.store, task.TaskID, errtax.New(errtax.SessionUnavailable, "connect kernel channel: %v", err))
		return
	}

	msgID := hub.NewRequestID()
	sub := hub.Subscribe(msgID)
	defer sub.Unsubscribe()

	ctx, cancel := context.WithTimeout(context.Background(), s.taskTimeout)
	defer cancel()
	q.mu.Lock()
	q.runningCancel = cancel
	q.mu.Unlock()

	if err := hub.SendExecute(msgID, task.Code); err != nil {
		failTask(s.store, task.TaskID, errtax.New(errtax.SessionUnavailable, "send execute request: %v", err))
		return
	}

	outputs, execCount, kernelErr, cancelled := s.collect(ctx, sub, notebookPath)

	if cancelled {
		hub.Cancel(msgID)
		_ = s.kernels.Interrupt(handle)
		if ctx.Err() == context.DeadlineExceeded {
			failTask(s.store, task.TaskID, errtax.New(errtax.ExecutionTimeout, "task %s exceeded its time budget", task.TaskID))
		} else {
			_ = s.store.MarkCancelled(task.TaskID)
		}
		s.recordNotebookOutputs(notebookPath, task.CellIndex, execCount, outputs)
		return
	}

	raw := marshalOutputs(outputs)
	if kernelErr != nil {
		if err := s.store.MarkFailed(task.TaskID, raw); err != nil {
			log.Error("exec: mark failed %s: %v", task.TaskID, err)
		}
	} else if err := s.store.MarkCompleted(task.TaskID, raw, execCount); err != nil {
		log.Error("exec: mark completed %s: %v", task.TaskID, err)
	}

	s.recordNotebookOutputs(notebookPath, task.CellIndex, execCount, outputs)
}

func (s *Scheduler) recordNotebookOutputs(notebookPath string, cellIndex, execCount int, outputs []*sanitize.Output) {
	if _, err := s.notebooks.MarkExecuted(notebookPath, cellIndex, execCount, marshalOutputs(outputs)); err != nil {
		log.Error("exec: mark cell %d executed in %s: %v", cellIndex, notebookPath, err)
	}
}

// collect drains one request's event stream until the kernel reports idle,
// the context is cancelled/timed out, or the hub closes out from under it.
func (s *Scheduler) collect(ctx context.Context, sub *iomux.Subscription, notebookPath string) (outputs []*sanitize.Output, execCount int, kernelErr error, cancelled bool) {
	for {
		select {
		case <-ctx.Done():
			return outputs, execCount, kernelErr, true

		case event, ok := <-sub.Events():
			if !ok {
				return outputs, execCount, kernelErr, false
			}

			out, count, errOut, done := s.sanitizeEvent(notebookPath, event)
			if out != nil {
				outputs = append(outputs, out)
			}
			if count > 0 {
				execCount = count
			}
			if errOut {
				kernelErr = errtax.New(errtax.ExecutionFailed, "cell raised an error")
			}
			if done {
				return outputs, execCount, kernelErr, false
			}
		}
	}
}

// sanitizeEvent routes one wire message through C7 and reports whether the
// kernel has gone back idle, which is this scheduler's signal that the
// request is finished (Jupyter's own convention: an idle status message
// bearing the request's msg_id as parent closes the request).
func (s *Scheduler) sanitizeEvent(notebookPath string, event iomux.Event) (out *sanitize.Output, execCount int, isError bool, idle bool) {
	switch execute.MessageType(event.MsgType) {
	case execute.MsgStream:
		var so execute.StreamOutput
		if err := json.Unmarshal(event.Content, &so); err != nil {
			log.Warn("exec: decode stream content: %v", err)
			return nil, 0, false, false
		}
		o, err := s.sanitizer.Stream(notebookPath, &so)
		if err != nil {
			log.Error("exec: sanitize stream: %v", err)
			return nil, 0, false, false
		}
		return o, 0, false, false

	case execute.MsgExecuteResult:
		var er execute.ExecuteResult
		if err := json.Unmarshal(event.Content, &er); err != nil {
			log.Warn("exec: decode execute_result content: %v", err)
			return nil, 0, false, false
		}
		o, err := s.sanitizer.ExecuteResult(notebookPath, &er)
		if err != nil {
			log.Error("exec: sanitize execute_result: %v", err)
			return nil, er.ExecutionCount, false, false
		}
		return o, er.ExecutionCount, false, false

	case execute.MsgDisplayData:
		var dd execute.DisplayData
		if err := json.Unmarshal(event.Content, &dd); err != nil {
			log.Warn("exec: decode display_data content: %v", err)
			return nil, 0, false, false
		}
		o, err := s.sanitizer.DisplayData(notebookPath, &dd)
		if err != nil {
			log.Error("exec: sanitize display_data: %v", err)
			return nil, 0, false, false
		}
		return o, 0, false, false

	case execute.MsgError:
		var eo execute.ErrorOutput
		if err := json.Unmarshal(event.Content, &eo); err != nil {
			log.Warn("exec: decode error content: %v", err)
			return nil, 0, true, false
		}
		return s.sanitizer.Error(&eo), 0, true, false

	case execute.MsgClearOutput:
		return s.sanitizer.Clear(), 0, false, false

	case execute.MsgExecuteReply:
		var reply execute.ExecuteReply
		if err := json.Unmarshal(event.Content, &reply); err != nil {
			log.Warn("exec: decode execute_reply content: %v", err)
			return nil, 0, false, false
		}
		return nil, reply.ExecutionCount, reply.Status == "error", false

	case execute.MsgStatus:
		var st execute.StatusUpdate
		if err := json.Unmarshal(event.Content, &st); err != nil {
			log.Warn("exec: decode status content: %v", err)
			return nil, 0, false, false
		}
		return nil, 0, false, st.ExecutionState == execute.StateIdle

	default:
		return nil, 0, false, false
	}
}

func failTask(db *store.Store, taskID string, err error) {
	log.Error("exec: %v", err)
	msg, _ := json.Marshal(map[string]string{"error": err.Error()})
	if markErr := db.MarkFailed(taskID, msg); markErr != nil {
		log.Error("exec: mark failed %s: %v", taskID, markErr)
	}
}
