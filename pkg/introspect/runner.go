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

package introspect

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/notebookd/notebookd/pkg/errtax"
	"github.com/notebookd/notebookd/pkg/iomux"
	"github.com/notebookd/notebookd/pkg/jupyter/execute"
	"github.com/notebookd/notebookd/pkg/kernelmgr"
)

// identifierRe is the identifier regex §7 requires every variable name be
// checked against before it is ever used to address the kernel's
// namespace: reject it outright rather than let an unexpected character
// reach Python source, even quoted.
var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Manager is the Introspection operation group: it reads a live kernel's
// namespace by running small, fixed code snippets directly against the
// kernel's channel socket, the same out-of-queue technique C8 uses for
// checkpoint save/load.
type Manager struct {
	kernels *kernelmgr.Manager
	hubs    *iomux.Registry
	timeout time.Duration
}

// New returns an introspection manager sharing C4's kernel manager and
// C5's channel registry.
func New(kernels *kernelmgr.Manager, hubs *iomux.Registry, timeout time.Duration) *Manager {
	return &Manager{kernels: kernels, hubs: hubs, timeout: timeout}
}

func validateIdentifier(name string) error {
	if !identifierRe.MatchString(name) {
		return errtax.New(errtax.InvalidInput, "%q is not a valid identifier", name)
	}
	return nil
}

// runCapture submits code directly against a kernel's channel socket,
// outside C6's FIFO: introspection reads an already-idle kernel's state,
// it does not compete for the per-session execution slot.
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
		return "", errtax.New(errtax.SessionUnavailable, "send introspection request: %v", err)
	}

	var stdout strings.Builder
	var kernelErr *errtax.Error
	for {
		select {
		case <-ctx.Done():
			hub.Cancel(msgID)
			return "", errtax.New(errtax.ExecutionTimeout, "introspection on %s timed out", notebookPath)

		case event, ok := <-sub.Events():
			if !ok {
				return "", errtax.New(errtax.SessionUnavailable, "kernel channel closed mid-introspection for %s", notebookPath)
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
				kernelErr = errtax.New(errtax.ExecutionFailed, "introspection code raised %s: %s", eo.EName, eo.EValue)
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

func extractPayload(stdout string) (string, bool) {
	for _, line := range strings.Split(stdout, "\n") {
		if strings.HasPrefix(line, payloadMarker) {
			return strings.TrimPrefix(line, payloadMarker), true
		}
	}
	return "", false
}
