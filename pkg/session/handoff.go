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

import (
	"fmt"
	"regexp"

	"github.com/notebookd/notebookd/pkg/notebook"
)

// DetectSyncNeeded implements §4.9.4's detect_sync_needed: compares each
// code cell's current source hash against the hash it was last executed
// with and reports which cells drifted, recommending a strategy.
func (m *Manager) DetectSyncNeeded(notebookPath string) (*SyncPlan, error) {
	nb, err := m.notebooks.Read(notebookPath)
	if err != nil {
		return nil, err
	}

	var dirty []int
	for i, c := range nb.Cells {
		if c.Type != notebook.CellCode {
			continue
		}
		if c.Dirty() {
			dirty = append(dirty, i)
		}
	}

	if len(dirty) == 0 {
		return &SyncPlan{SyncNeeded: false, RecommendedStrategy: StrategyNone}, nil
	}

	strategy := StrategyIncremental
	if len(dirty) > 1 {
		strategy = StrategySmart
	}
	return &SyncPlan{
		SyncNeeded:          true,
		Reason:              fmt.Sprintf("%d cell(s) edited since last execution", len(dirty)),
		DirtyCells:          dirty,
		RecommendedStrategy: strategy,
	}, nil
}

// SyncStateFromDisk implements §4.9.4's reconciliation: returns the ordered
// set of cell indices that must be re-executed under the chosen strategy.
// It never executes anything itself — callers feed the result to
// Scheduler.Submit in order.
func (m *Manager) SyncStateFromDisk(notebookPath string, strategy SyncStrategy) ([]int, error) {
	nb, err := m.notebooks.Read(notebookPath)
	if err != nil {
		return nil, err
	}

	firstDirty := -1
	for i, c := range nb.Cells {
		if c.Type == notebook.CellCode && c.Dirty() {
			firstDirty = i
			break
		}
	}
	if firstDirty == -1 {
		return nil, nil
	}

	switch strategy {
	case StrategyFull:
		indices := make([]int, 0, len(nb.Cells))
		for i, c := range nb.Cells {
			if c.Type == notebook.CellCode {
				indices = append(indices, i)
			}
		}
		return indices, nil

	case StrategyIncremental:
		indices := make([]int, 0, len(nb.Cells)-firstDirty)
		for i := firstDirty; i < len(nb.Cells); i++ {
			if nb.Cells[i].Type == notebook.CellCode {
				indices = append(indices, i)
			}
		}
		return indices, nil

	case StrategySmart:
		return smartClosure(nb, firstDirty), nil

	default:
		return nil, nil
	}
}

// assignRe matches a simple top-level assignment target; def/class headers
// count as defining their own name too. This is a heuristic over source
// text, not a real parse: it exists to keep the common case (independent
// analysis cells sharing only a few top-level names) cheap, not to handle
// every construct a notebook author might write.
var (
	assignRe = regexp.MustCompile(`(?m)^([A-Za-z_][A-Za-z0-9_]*)\s*(?:,\s*[A-Za-z_][A-Za-z0-9_]*\s*)*=[^=]`)
	defRe    = regexp.MustCompile(`(?m)^(?:def|class)\s+([A-Za-z_][A-Za-z0-9_]*)`)
	identRe  = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)
)

func cellDefines(source string) []string {
	var names []string
	for _, m := range assignRe.FindAllStringSubmatch(source, -1) {
		names = append(names, m[1])
	}
	for _, m := range defRe.FindAllStringSubmatch(source, -1) {
		names = append(names, m[1])
	}
	return names
}

func cellUses(source string) map[string]bool {
	uses := make(map[string]bool)
	for _, tok := range identRe.FindAllString(source, -1) {
		uses[tok] = true
	}
	return uses
}

// smartClosure builds a defines/uses graph across code cells and returns
// the transitive closure from firstDirty itself, in source order, per
// §4.9.4's smart strategy: a cell is only pulled in if it actually uses a
// name defined by a cell already in the closure, not merely because its
// index comes after firstDirty.
func smartClosure(nb *notebook.Notebook, firstDirty int) []int {
	codeIdx := make([]int, 0, len(nb.Cells))
	for i, c := range nb.Cells {
		if c.Type == notebook.CellCode {
			codeIdx = append(codeIdx, i)
		}
	}

	definedBy := make(map[string]int) // name -> earliest defining cell index
	uses := make(map[int]map[string]bool, len(codeIdx))
	for _, i := range codeIdx {
		uses[i] = cellUses(nb.Cells[i].Source)
		for _, name := range cellDefines(nb.Cells[i].Source) {
			if _, ok := definedBy[name]; !ok {
				definedBy[name] = i
			}
		}
	}

	needed := make(map[int]bool)
	needed[firstDirty] = true

	// Propagate: any cell whose uses overlap a defining cell already in the
	// needed set is itself needed, since it may observe stale state.
	// Iterate to a fixed point; codeIdx is small enough that this never
	// runs more than a handful of passes.
	for changed := true; changed; {
		changed = false
		for _, i := range codeIdx {
			if needed[i] {
				continue
			}
			for name := range uses[i] {
				if def, ok := definedBy[name]; ok && needed[def] {
					needed[i] = true
					changed = true
					break
				}
			}
		}
	}

	out := make([]int, 0, len(needed))
	for _, i := range codeIdx {
		if needed[i] {
			out = append(out, i)
		}
	}
	return out
}
