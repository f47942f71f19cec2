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

// Package checkpoint implements C8, the Checkpoint Manager: authenticated,
// crash-safe serialization of a kernel's live interpreter state, keyed-MAC
// tamper detection on load, and a frozen dependency manifest per snapshot.
package checkpoint

import "time"

// Checkpoint is the durable metadata record sitting alongside a
// checkpoint's signed payload (§3's Checkpoint type).
type Checkpoint struct {
	Name               string            `json:"name"`
	NotebookPath       string            `json:"notebook_path"`
	CreatedAt          time.Time         `json:"created_at"`
	InterpreterVersion string            `json:"interpreter_version"`
	PayloadSize        int64             `json:"payload_size"`
	Dependencies       map[string]string `json:"dependencies"`
}
