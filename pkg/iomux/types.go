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

// Package iomux implements C5, the IO Multiplexer: one reader per kernel
// websocket, routing of IOPub/shell traffic by parent request id, a bounded
// ring buffer for late subscribers, and per-consumer bounded delivery so a
// slow subscriber can never stall the kernel's reader goroutine.
package iomux

import "encoding/json"

// Event is one Jupyter wire message, trimmed to what C6/C7/C9 need: which
// request it answers, what kind of message it is, and its raw content.
type Event struct {
	Seq         uint64          `json:"seq"`
	ParentMsgID string          `json:"parent_msg_id"`
	MsgType     string          `json:"msg_type"`
	Content     json.RawMessage `json:"content"`
}

// defaultRingSize is the default replay buffer depth per kernel (§4.5).
const defaultRingSize = 1000

// defaultSubscriberQueue bounds how many undelivered events a single slow
// consumer may accumulate before new events are dropped for it (§4.5: a
// slow consumer is dropped, never allowed to block the reader).
const defaultSubscriberQueue = 256
