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

// Package sanitize implements C7, the Output Sanitizer: canonicalizing raw
// kernel wire messages (execute_result, stream, display_data, error,
// clear_output) into the durable Output record, offloading oversized or
// binary payloads to C3, and renewing leases on every asset it references.
package sanitize

// OutputType is the canonical kind of one Output record (§3).
type OutputType string

const (
	OutputStream        OutputType = "stream"
	OutputDisplay       OutputType = "display"
	OutputExecuteResult OutputType = "execute_result"
	OutputError         OutputType = "error"
	OutputClear         OutputType = "clear"
)

// Output is the canonical, durable representation of one piece of kernel
// output (§3): a mime bundle plus an optional reference into the Asset
// Store for anything too large or too binary to keep inline.
type Output struct {
	Type        OutputType        `json:"type"`
	MimeBundle  map[string]string `json:"mime_bundle,omitempty"`
	AssetPath   string            `json:"asset_path,omitempty"`
	AssetMime   string            `json:"asset_mime,omitempty"`
	Stub        bool              `json:"stub,omitempty"`
	Preview     string            `json:"preview,omitempty"`
	TotalBytes  int               `json:"total_bytes,omitempty"`
	TotalLines  int               `json:"total_lines,omitempty"`
	ErrorName   string            `json:"error_name,omitempty"`
	ErrorValue  string            `json:"error_value,omitempty"`
	Traceback   []string          `json:"traceback,omitempty"`
	ExecutionCt int               `json:"execution_count,omitempty"`
}
