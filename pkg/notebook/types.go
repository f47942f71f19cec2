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

// Package notebook implements C2, the Notebook File Manager: atomic
// .ipynb read/write, advisory per-path locking, cell operations, and
// source-hash/dirty tracking.
package notebook

import "encoding/json"

// CellType distinguishes executable cells from prose.
type CellType string

const (
	CellCode     CellType = "code"
	CellMarkdown CellType = "markdown"
	CellRaw      CellType = "raw"
)

// CellMetadata carries the dirty-tracking hashes (§4.2) plus whatever
// arbitrary key/value pairs a caller has attached via the metadata
// operations (§6.1's per-cell get/set/delete/list_metadata).
type CellMetadata struct {
	SourceHash       string
	LastExecutedHash string
	Extra            map[string]any
}

// MarshalJSON flattens Extra alongside the two hash fields, so a notebook
// file never carries a nested "extra" object a hand-editing user would find
// surprising; set_metadata keys just show up as plain top-level fields.
func (c CellMetadata) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.Extra)+2)
	for k, v := range c.Extra {
		out[k] = v
	}
	if c.SourceHash != "" {
		out["source_hash"] = c.SourceHash
	}
	if c.LastExecutedHash != "" {
		out["last_executed_hash"] = c.LastExecutedHash
	}
	return json.Marshal(out)
}

// UnmarshalJSON reverses MarshalJSON: the two known hash fields are lifted
// out, everything else becomes Extra.
func (c *CellMetadata) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if v, ok := raw["source_hash"].(string); ok {
		c.SourceHash = v
		delete(raw, "source_hash")
	}
	if v, ok := raw["last_executed_hash"].(string); ok {
		c.LastExecutedHash = v
		delete(raw, "last_executed_hash")
	}
	if len(raw) > 0 {
		c.Extra = raw
	}
	return nil
}

// Cell is one addressable unit of a notebook (§3).
type Cell struct {
	ID             string          `json:"id"`
	Type           CellType        `json:"cell_type"`
	Source         string          `json:"source"`
	ExecutionCount *int            `json:"execution_count"`
	Outputs        json.RawMessage `json:"outputs,omitempty"`
	Metadata       CellMetadata    `json:"metadata"`
}

// Dirty reports whether the cell's source has changed since it was last
// executed (§4.2): source_hash != last_executed_hash.
func (c *Cell) Dirty() bool {
	return c.Metadata.SourceHash != c.Metadata.LastExecutedHash
}

// Notebook is the file-backed, ordered sequence of cells (§3).
type Notebook struct {
	Path     string         `json:"-"`
	Cells    []*Cell        `json:"cells"`
	Metadata map[string]any `json:"metadata,omitempty"`
	NbFormat int            `json:"nbformat"`
	NbMinor  int            `json:"nbformat_minor"`
}

// CellByID returns the cell with the given id, or nil.
func (n *Notebook) CellByID(id string) *Cell {
	for _, c := range n.Cells {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// IndexOf returns the 0-based index of the cell with the given id, or -1.
func (n *Notebook) IndexOf(id string) int {
	for i, c := range n.Cells {
		if c.ID == id {
			return i
		}
	}
	return -1
}
