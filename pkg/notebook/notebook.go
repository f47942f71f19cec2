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

package notebook

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/notebookd/notebookd/pkg/errtax"
)

// Manager is C2: it parses/serializes notebook files, guarantees atomic
// rewrites, and serializes access to each path behind the advisory lock
// manager.
type Manager struct {
	locks       *LockManager
	lockTimeout time.Duration
}

// NewManager returns a Manager whose per-path locks are rooted at lockDir.
func NewManager(lockDir string, lockTimeout time.Duration) *Manager {
	return &Manager{locks: NewLockManager(lockDir), lockTimeout: lockTimeout}
}

// SourceHash computes the canonical content hash used for dirty tracking.
func SourceHash(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// Read loads and parses a notebook. Readers do not take the advisory lock
// (§4.2: "Readers may proceed without the lock").
func (m *Manager) Read(path string) (*Notebook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errtax.New(errtax.NotFound, "notebook not found: %s", path)
		}
		return nil, fmt.Errorf("read notebook: %w", err)
	}
	var nb Notebook
	if err := json.Unmarshal(data, &nb); err != nil {
		return nil, errtax.New(errtax.InvalidInput, "malformed notebook %s: %v", path, err)
	}
	nb.Path = path
	return &nb, nil
}

// Create writes a brand-new empty notebook file, failing if one already
// exists at path.
func (m *Manager) Create(path string) (*Notebook, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, errtax.New(errtax.InvalidInput, "notebook already exists: %s", path)
	}
	nb := &Notebook{Path: path, Cells: []*Cell{}, NbFormat: 4, NbMinor: 5}
	if err := m.writeAtomic(nb); err != nil {
		return nil, err
	}
	return nb, nil
}

// writeAtomic implements the write-temp-then-rename discipline (§4.2) so a
// crash mid-write never leaves a truncated notebook file on disk.
func (m *Manager) writeAtomic(nb *Notebook) error {
	data, err := json.MarshalIndent(nb, "", " ")
	if err != nil {
		return fmt.Errorf("encode notebook: %w", err)
	}

	dir := filepath.Dir(nb.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create notebook dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".notebookd-tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	return os.Rename(tmpPath, nb.Path)
}

// mutate is the read-modify-rewrite template every mutating cell operation
// goes through: it takes the advisory lock for the duration of the
// operation, as required by §4.2.
func (m *Manager) mutate(path string, fn func(nb *Notebook) error) (*Notebook, error) {
	var result *Notebook
	err := m.locks.WithLock(path, m.lockTimeout, func() error {
		nb, err := m.Read(path)
		if err != nil {
			return err
		}
		if err := fn(nb); err != nil {
			return err
		}
		if err := m.writeAtomic(nb); err != nil {
			return err
		}
		result = nb
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func validIndex(nb *Notebook, index int) error {
	if index < 0 || index > len(nb.Cells) {
		return errtax.New(errtax.InvalidInput, "cell index %d out of range [0,%d]", index, len(nb.Cells))
	}
	return nil
}

func existingIndex(nb *Notebook, index int) error {
	if index < 0 || index >= len(nb.Cells) {
		return errtax.New(errtax.InvalidInput, "cell index %d out of range [0,%d)", index, len(nb.Cells))
	}
	return nil
}

// InsertCell inserts a new cell at index, assigning it a fresh stable id.
func (m *Manager) InsertCell(path string, index int, cellType CellType, source string) (*Notebook, error) {
	return m.mutate(path, func(nb *Notebook) error {
		if err := validIndex(nb, index); err != nil {
			return err
		}
		cell := &Cell{
			ID:     uuid.NewString(),
			Type:   cellType,
			Source: source,
			Metadata: CellMetadata{
				SourceHash: SourceHash(source),
			},
		}
		nb.Cells = append(nb.Cells, nil)
		copy(nb.Cells[index+1:], nb.Cells[index:])
		nb.Cells[index] = cell
		return nil
	})
}

// AppendCell appends a new cell at the end of the notebook.
func (m *Manager) AppendCell(path string, cellType CellType, source string) (*Notebook, error) {
	nb, err := m.Read(path)
	if err != nil {
		return nil, err
	}
	return m.InsertCell(path, len(nb.Cells), cellType, source)
}

// EditCell overwrites a cell's source text and recomputes its source_hash.
// Concurrent editors racing on the same index are serialized by the
// advisory lock: whichever write wins, the on-disk result is exactly one
// caller's text, never a mixed/partial write (Scenario F, §8).
func (m *Manager) EditCell(path string, index int, source string) (*Notebook, error) {
	return m.mutate(path, func(nb *Notebook) error {
		if err := existingIndex(nb, index); err != nil {
			return err
		}
		nb.Cells[index].Source = source
		nb.Cells[index].Metadata.SourceHash = SourceHash(source)
		return nil
	})
}

// DeleteCell removes a cell at index. insert_cell;delete_cell round-trips
// to a bit-identical file (§8) because delete just removes the slice
// element without touching any sibling's id, source, or hash.
func (m *Manager) DeleteCell(path string, index int) (*Notebook, error) {
	return m.mutate(path, func(nb *Notebook) error {
		if err := existingIndex(nb, index); err != nil {
			return err
		}
		nb.Cells = append(nb.Cells[:index], nb.Cells[index+1:]...)
		return nil
	})
}

// MoveCell relocates the cell at from to position to.
func (m *Manager) MoveCell(path string, from, to int) (*Notebook, error) {
	return m.mutate(path, func(nb *Notebook) error {
		if err := existingIndex(nb, from); err != nil {
			return err
		}
		if err := validIndex(nb, to); err != nil {
			return err
		}
		cell := nb.Cells[from]
		nb.Cells = append(nb.Cells[:from], nb.Cells[from+1:]...)
		if to > from {
			to--
		}
		nb.Cells = append(nb.Cells, nil)
		copy(nb.Cells[to+1:], nb.Cells[to:])
		nb.Cells[to] = cell
		return nil
	})
}

// CopyCell duplicates a cell's content into a new cell immediately after it,
// with a fresh id (copies never share identity with their source).
func (m *Manager) CopyCell(path string, index int) (*Notebook, error) {
	return m.mutate(path, func(nb *Notebook) error {
		if err := existingIndex(nb, index); err != nil {
			return err
		}
		src := nb.Cells[index]
		dup := &Cell{
			ID:     uuid.NewString(),
			Type:   src.Type,
			Source: src.Source,
			Metadata: CellMetadata{
				SourceHash: src.Metadata.SourceHash,
			},
		}
		nb.Cells = append(nb.Cells, nil)
		copy(nb.Cells[index+2:], nb.Cells[index+1:])
		nb.Cells[index+1] = dup
		return nil
	})
}

// MergeCells folds cell at index+1 into the cell at index (sources joined
// by a blank line) and removes the trailing cell.
func (m *Manager) MergeCells(path string, index int) (*Notebook, error) {
	return m.mutate(path, func(nb *Notebook) error {
		if err := existingIndex(nb, index); err != nil {
			return err
		}
		if err := existingIndex(nb, index+1); err != nil {
			return errtax.New(errtax.InvalidInput, "no cell after index %d to merge", index)
		}
		first, second := nb.Cells[index], nb.Cells[index+1]
		first.Source = first.Source + "\n\n" + second.Source
		first.Metadata.SourceHash = SourceHash(first.Source)
		nb.Cells = append(nb.Cells[:index+1], nb.Cells[index+2:]...)
		return nil
	})
}

// SplitCell splits the cell at index at the given byte offset into two
// cells, both of the original cell's type.
func (m *Manager) SplitCell(path string, index, offset int) (*Notebook, error) {
	return m.mutate(path, func(nb *Notebook) error {
		if err := existingIndex(nb, index); err != nil {
			return err
		}
		src := nb.Cells[index]
		if offset < 0 || offset > len(src.Source) {
			return errtax.New(errtax.InvalidInput, "split offset %d out of range", offset)
		}
		left, right := src.Source[:offset], src.Source[offset:]
		src.Source = left
		src.Metadata.SourceHash = SourceHash(left)

		newCell := &Cell{
			ID:   uuid.NewString(),
			Type: src.Type,
			Source: right,
			Metadata: CellMetadata{
				SourceHash: SourceHash(right),
			},
		}
		nb.Cells = append(nb.Cells, nil)
		copy(nb.Cells[index+2:], nb.Cells[index+1:])
		nb.Cells[index+1] = newCell
		return nil
	})
}

// ChangeCellType retypes a cell (e.g. code -> markdown).
func (m *Manager) ChangeCellType(path string, index int, newType CellType) (*Notebook, error) {
	return m.mutate(path, func(nb *Notebook) error {
		if err := existingIndex(nb, index); err != nil {
			return err
		}
		nb.Cells[index].Type = newType
		return nil
	})
}

// MarkExecuted sets last_executed_hash = source_hash for a cell after a
// successful execution (§4.2), clearing its dirty flag.
func (m *Manager) MarkExecuted(path string, index int, executionCount int, outputs json.RawMessage) (*Notebook, error) {
	return m.mutate(path, func(nb *Notebook) error {
		if err := existingIndex(nb, index); err != nil {
			return err
		}
		cell := nb.Cells[index]
		cell.Metadata.LastExecutedHash = cell.Metadata.SourceHash
		cell.ExecutionCount = &executionCount
		cell.Outputs = outputs
		return nil
	})
}

// ClearOutputs erases the stored outputs of a cell without touching source
// or hashes (supports progress-bar style `clear` control messages, §4.7).
func (m *Manager) ClearOutputs(path string, index int) (*Notebook, error) {
	return m.mutate(path, func(nb *Notebook) error {
		if err := existingIndex(nb, index); err != nil {
			return err
		}
		nb.Cells[index].Outputs = nil
		return nil
	})
}

// Move atomically renames the notebook file on the filesystem and returns
// the new absolute path. It does not itself update sessions — the Session
// Manager (C9) does that in a single enclosing transaction (§4.2).
func (m *Manager) Move(oldPath, newPath string) (string, error) {
	var finalPath string
	err := m.locks.WithLock(oldPath, m.lockTimeout, func() error {
		return m.locks.WithLock(newPath, m.lockTimeout, func() error {
			abs, err := filepath.Abs(newPath)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
				return err
			}
			if err := os.Rename(oldPath, abs); err != nil {
				return errtax.New(errtax.MigrationFailed, "rename %s -> %s: %v", oldPath, abs, err)
			}
			finalPath = abs
			return nil
		})
	})
	if err != nil {
		return "", err
	}
	return finalPath, nil
}

// LockTimeout exposes the manager's configured lock timeout.
func (m *Manager) LockTimeout() time.Duration { return m.lockTimeout }

// Locks exposes the underlying lock manager so C9 can take both-path locks
// during migration (§4.9.3) without going through a single-path mutate call.
func (m *Manager) Locks() *LockManager { return m.locks }
