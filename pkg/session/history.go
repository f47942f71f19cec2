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

package session

// NotebookHistory implements §4.9.6's output rehydration: a UI reattaching
// to a notebook without a live session (or after a restart) can still pull
// the last durable outputs per cell straight out of C1.
func (m *Manager) NotebookHistory(notebookPath string, limit int) ([]*HistoryEntry, error) {
	tasks, err := m.db.HistoryFor(notebookPath, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]*HistoryEntry, 0, len(tasks))
	for _, t := range tasks {
		entries = append(entries, &HistoryEntry{
			CellIndex:      t.CellIndex,
			ExecutionCount: t.ExecutionCount,
			Outputs:        t.OutputsBlob,
		})
	}
	return entries, nil
}
