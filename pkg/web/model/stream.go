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

package model

import "encoding/json"

// StreamEventType distinguishes the frames get_execution_stream emits.
type StreamEventType string

const (
	StreamEventTypeStatus   StreamEventType = "status"
	StreamEventTypeOutput   StreamEventType = "output"
	StreamEventTypeComplete StreamEventType = "complete"
	StreamEventTypePing     StreamEventType = "ping"
)

// StreamEvent is one SSE frame of get_execution_stream (§6.1 Execution).
//
// Outputs are only durable once a task reaches a terminal store.TaskStatus
// (pkg/exec/worker.go never records partial output mid-run), so a stream
// opened against a still-running task only ever emits status/ping frames
// until completion, then replays the task's full outputs in one Output
// frame followed by Complete. get_execution_status likewise reports
// outputs only once the task has reached a terminal status.
type StreamEvent struct {
	Type      StreamEventType `json:"type"`
	TaskID    string          `json:"task_id,omitempty"`
	Status    string          `json:"status,omitempty"`
	Outputs   json.RawMessage `json:"outputs,omitempty"`
	Error     json.RawMessage `json:"error,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

// ToJSON serializes the event for streaming.
func (e StreamEvent) ToJSON() []byte {
	bytes, _ := json.Marshal(e)
	return bytes
}
