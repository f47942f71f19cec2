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

package checkpoint

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/notebookd/notebookd/pkg/errtax"
	"github.com/notebookd/notebookd/pkg/jupyter/execute"
)

// runCapture submits one piece of code directly against a kernel's channel
// socket, outside of C6's queue: checkpoint save/load is an administrative
// operation on an already-idle kernel, not a user cell, so it bypasses the
// FIFO rather than competing for a slot in it. It returns the concatenated
// stdout the code produced.
func (m *Manager) runCapture(notebookPath, code string) (string, error) {
	handle, ok := m.kernels.Handle(notebookPath)
	if !ok {
		return "", errtax.New(errtax.SessionUnavailable, "no live kernel for %s", notebookPath)
	}
	hub, err := m.hubs.GetOrConnect(handle.KernelID, m.kernels.WSURL(handle))
	if err != nil {
		return "", errtax.New(errtax.SessionUnavailable, "connect kernel channel: %v", err)
	}

	msgID := hub.NewRequestID()
	sub := hub.Subscribe(msgID)
	defer sub.Unsubscribe()

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	if err := hub.SendExecute(msgID, code); err != nil {
		return "", errtax.New(errtax.SessionUnavailable, "send checkpoint request: %v", err)
	}

	var stdout strings.Builder
	var kernelErr *errtax.Error
	for {
		select {
		case <-ctx.Done():
			hub.Cancel(msgID)
			return "", errtax.New(errtax.ExecutionTimeout, "checkpoint operation on %s timed out", notebookPath)

		case event, ok := <-sub.Events():
			if !ok {
				return "", errtax.New(errtax.SessionUnavailable, "kernel channel closed mid-checkpoint for %s", notebookPath)
			}
			switch execute.MessageType(event.MsgType) {
			case execute.MsgStream:
				var so execute.StreamOutput
				if err := json.Unmarshal(event.Content, &so); err == nil {
					stdout.WriteString(so.Text)
				}
			case execute.MsgError:
				var eo execute.ErrorOutput
				_ = json.Unmarshal(event.Content, &eo)
				kernelErr = errtax.New(errtax.ExecutionFailed, "checkpoint code raised %s: %s", eo.EName, eo.EValue)
			case execute.MsgStatus:
				var st execute.StatusUpdate
				if err := json.Unmarshal(event.Content, &st); err == nil && st.ExecutionState == execute.StateIdle {
					if kernelErr != nil {
						return "", kernelErr
					}
					return stdout.String(), nil
				}
			}
		}
	}
}
