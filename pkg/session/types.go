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

// Package session implements C9, the Session Manager: the central state
// machine owning the notebook_path -> Session map, its C1 mirror, kernel
// lifecycle orchestration, discovery/attach, rename-safe migration, the
// disk/kernel handoff protocol, and crash recovery.
package session

import (
	"sync"
	"time"

	"github.com/notebookd/notebookd/pkg/kernelmgr"
	"github.com/notebookd/notebookd/pkg/store"
)

// Session is the in-memory counterpart of a store.SessionRecord: the live
// object a running notebookd process actually operates on.
type Session struct {
	mu sync.RWMutex

	NotebookPath   string
	EnvFingerprint string
	Status         store.SessionStatus
	CreatedAt      time.Time
	Handle         *kernelmgr.Handle
	releaseLock    func()
}

func (s *Session) status() store.SessionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status
}

func (s *Session) setStatus(st store.SessionStatus) {
	s.mu.Lock()
	s.Status = st
	s.mu.Unlock()
}

// Descriptor is the client-facing view of a Session (§4.9.2's
// find_active_session/list_sessions shape).
type Descriptor struct {
	NotebookPath   string              `json:"notebook_path"`
	Found          bool                `json:"found"`
	PID            int                 `json:"pid"`
	StartEpoch     int64               `json:"start_epoch"`
	CreatedAt      time.Time           `json:"created_at"`
	Status         store.SessionStatus `json:"status"`
	EnvFingerprint string              `json:"env_fingerprint"`
}

// SyncStrategy is one of the three handoff reconciliation strategies
// (§4.9.4).
type SyncStrategy string

const (
	StrategyIncremental SyncStrategy = "incremental"
	StrategySmart        SyncStrategy = "smart"
	StrategyFull          SyncStrategy = "full"
	StrategyNone          SyncStrategy = "none"
)

// SyncPlan is detect_sync_needed's result.
type SyncPlan struct {
	SyncNeeded          bool         `json:"sync_needed"`
	Reason              string       `json:"reason"`
	DirtyCells          []int        `json:"dirty_cells"`
	RecommendedStrategy SyncStrategy `json:"recommended_strategy"`
}

// HistoryEntry is one row of notebook_history (§4.9.6).
type HistoryEntry struct {
	CellIndex      int    `json:"cell_index"`
	ExecutionCount int    `json:"execution_count"`
	Outputs        []byte `json:"outputs"`
}
