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

	"github.com/notebookd/notebookd/pkg/errtax"
)

// ListVariables returns a summary of every name in the kernel's top-level
// namespace (§6.1 list_variables).
func (m *Manager) ListVariables(notebookPath string) ([]Variable, error) {
	stdout, err := m.runCapture(notebookPath, listVariablesCode())
	if err != nil {
		return nil, err
	}
	encoded, ok := extractPayload(stdout)
	if !ok {
		return nil, errtax.New(errtax.ExecutionFailed, "kernel did not produce a variable listing for %s", notebookPath)
	}
	var out []Variable
	if err := json.Unmarshal([]byte(encoded), &out); err != nil {
		return nil, errtax.New(errtax.ExecutionFailed, "decode variable listing: %v", err)
	}
	return out, nil
}

// GetVariableInfo returns one variable's type, repr, size, and attribute
// names (§6.1 get_variable_info). name is validated against the
// identifier regex before it is ever spliced into kernel code.
func (m *Manager) GetVariableInfo(notebookPath, name string) (*VariableInfo, error) {
	if err := validateIdentifier(name); err != nil {
		return nil, err
	}
	stdout, err := m.runCapture(notebookPath, variableInfoByNameCode(name))
	if err != nil {
		return nil, err
	}
	encoded, ok := extractPayload(stdout)
	if !ok {
		return nil, errtax.New(errtax.ExecutionFailed, "kernel did not produce variable info for %s", name)
	}
	var info *VariableInfo
	if err := json.Unmarshal([]byte(encoded), &info); err != nil {
		return nil, errtax.New(errtax.ExecutionFailed, "decode variable info: %v", err)
	}
	if info == nil {
		return nil, errtax.New(errtax.NotFound, "no variable named %q in %s", name, notebookPath)
	}
	return info, nil
}

// InspectVariable returns a richer structural preview than GetVariableInfo:
// shape/columns/length where applicable, and a bounded content preview for
// mappings and sequences (§6.1 inspect_variable).
func (m *Manager) InspectVariable(notebookPath, name string) (*Inspection, error) {
	if err := validateIdentifier(name); err != nil {
		return nil, err
	}
	stdout, err := m.runCapture(notebookPath, inspectByNameCode(name))
	if err != nil {
		return nil, err
	}
	encoded, ok := extractPayload(stdout)
	if !ok {
		return nil, errtax.New(errtax.ExecutionFailed, "kernel did not produce an inspection for %s", name)
	}
	var insp *Inspection
	if err := json.Unmarshal([]byte(encoded), &insp); err != nil {
		return nil, errtax.New(errtax.ExecutionFailed, "decode inspection: %v", err)
	}
	if insp == nil {
		return nil, errtax.New(errtax.NotFound, "no variable named %q in %s", name, notebookPath)
	}
	return insp, nil
}

// GetVariableManifest returns every top-level name mapped to its type, a
// lighter-weight listing than ListVariables for clients that just need to
// know what exists (§6.1 get_variable_manifest).
func (m *Manager) GetVariableManifest(notebookPath string) (map[string]string, error) {
	stdout, err := m.runCapture(notebookPath, variableManifestCode())
	if err != nil {
		return nil, err
	}
	encoded, ok := extractPayload(stdout)
	if !ok {
		return nil, errtax.New(errtax.ExecutionFailed, "kernel did not produce a variable manifest for %s", notebookPath)
	}
	var out map[string]string
	if err := json.Unmarshal([]byte(encoded), &out); err != nil {
		return nil, errtax.New(errtax.ExecutionFailed, "decode variable manifest: %v", err)
	}
	return out, nil
}

// GetCompletions proxies a completion request straight to the kernel's
// native complete_request message (§6.1 get_completions): unlike the
// other introspection operations this never goes through runCapture,
// since Jupyter kernels already answer this without any code of ours.
func (m *Manager) GetCompletions(notebookPath, code string, cursorPos int) (*Completions, error) {
	handle, ok := m.kernels.Handle(notebookPath)
	if !ok {
		return nil, errtax.New(errtax.SessionUnavailable, "no live kernel for %s", notebookPath)
	}
	hub, err := m.hubs.GetOrConnect(handle.KernelID, m.kernels.WSURL(handle))
	if err != nil {
		return nil, errtax.New(errtax.SessionUnavailable, "connect kernel channel: %v", err)
	}

	msgID := hub.NewRequestID()
	sub := hub.Subscribe(msgID)
	defer sub.Unsubscribe()

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	if err := hub.SendComplete(msgID, code, cursorPos); err != nil {
		return nil, errtax.New(errtax.SessionUnavailable, "send completion request: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			hub.Cancel(msgID)
			return nil, errtax.New(errtax.ExecutionTimeout, "completion request on %s timed out", notebookPath)

		case event, ok := <-sub.Events():
			if !ok {
				return nil, errtax.New(errtax.SessionUnavailable, "kernel channel closed mid-completion for %s", notebookPath)
			}
			if event.MsgType != "complete_reply" {
				continue
			}
			var reply struct {
				Matches     []string `json:"matches"`
				CursorStart int      `json:"cursor_start"`
				CursorEnd   int      `json:"cursor_end"`
				MetadataExp struct {
					Experimental map[string]struct {
						Type string `json:"type"`
					} `json:"_jupyter_types_experimental"`
				} `json:"metadata"`
			}
			if err := json.Unmarshal(event.Content, &reply); err != nil {
				return nil, errtax.New(errtax.ExecutionFailed, "decode completion reply: %v", err)
			}
			out := &Completions{CursorStart: reply.CursorStart, CursorEnd: reply.CursorEnd}
			for _, text := range reply.Matches {
				out.Matches = append(out.Matches, CompletionItem{Text: text})
			}
			return out, nil
		}
	}
}
