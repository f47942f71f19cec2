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

// Package introspect implements the Introspection operation group
// (list_variables, get_variable_info, inspect_variable,
// get_variable_manifest, get_completions): reading a live kernel's
// interpreter namespace without ever executing caller-provided code as a
// full cell (§6.1, §7).
package introspect

// Variable is one entry of a kernel's global namespace.
type Variable struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Repr string `json:"repr"`
	Size int64  `json:"size_bytes"`
}

// VariableInfo is the detailed record returned by get_variable_info: the
// same summary as Variable plus the attribute/method names visible via
// dir(), for a client building an inspector UI.
type VariableInfo struct {
	Variable
	Attributes []string `json:"attributes"`
}

// Inspection is inspect_variable's richer payload: a best-effort
// structural preview in addition to the repr, useful for arrays,
// dataframes, and mappings too big to fully repr.
type Inspection struct {
	Variable
	Shape   []int          `json:"shape,omitempty"`
	Columns []string       `json:"columns,omitempty"`
	Length  int            `json:"length,omitempty"`
	Preview map[string]any `json:"preview,omitempty"`
}

// CompletionItem is one candidate out of get_completions's matches.
type CompletionItem struct {
	Text string `json:"text"`
	Type string `json:"type,omitempty"`
}

// Completions is get_completions's full reply: the Jupyter complete_reply
// content, trimmed to what a client needs to splice into the edited code.
type Completions struct {
	Matches     []CompletionItem `json:"matches"`
	CursorStart int              `json:"cursor_start"`
	CursorEnd   int              `json:"cursor_end"`
}
