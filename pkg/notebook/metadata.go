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

// GetMetadata reads one notebook-level metadata key (§6.1's get_metadata).
func (m *Manager) GetMetadata(path, key string) (any, bool, error) {
	nb, err := m.Read(path)
	if err != nil {
		return nil, false, err
	}
	v, ok := nb.Metadata[key]
	return v, ok, nil
}

// ListMetadata returns every notebook-level metadata key/value pair.
func (m *Manager) ListMetadata(path string) (map[string]any, error) {
	nb, err := m.Read(path)
	if err != nil {
		return nil, err
	}
	return nb.Metadata, nil
}

// SetMetadata upserts a notebook-level metadata key.
func (m *Manager) SetMetadata(path, key string, value any) (*Notebook, error) {
	return m.mutate(path, func(nb *Notebook) error {
		if nb.Metadata == nil {
			nb.Metadata = make(map[string]any)
		}
		nb.Metadata[key] = value
		return nil
	})
}

// DeleteMetadata removes a notebook-level metadata key.
func (m *Manager) DeleteMetadata(path, key string) (*Notebook, error) {
	return m.mutate(path, func(nb *Notebook) error {
		delete(nb.Metadata, key)
		return nil
	})
}

// GetCellMetadata reads one per-cell metadata key.
func (m *Manager) GetCellMetadata(path string, index int, key string) (any, bool, error) {
	nb, err := m.Read(path)
	if err != nil {
		return nil, false, err
	}
	if err := existingIndex(nb, index); err != nil {
		return nil, false, err
	}
	v, ok := nb.Cells[index].Metadata.Extra[key]
	return v, ok, nil
}

// ListCellMetadata returns every per-cell metadata key/value pair.
func (m *Manager) ListCellMetadata(path string, index int) (map[string]any, error) {
	nb, err := m.Read(path)
	if err != nil {
		return nil, err
	}
	if err := existingIndex(nb, index); err != nil {
		return nil, err
	}
	return nb.Cells[index].Metadata.Extra, nil
}

// SetCellMetadata upserts a per-cell metadata key.
func (m *Manager) SetCellMetadata(path string, index int, key string, value any) (*Notebook, error) {
	return m.mutate(path, func(nb *Notebook) error {
		if err := existingIndex(nb, index); err != nil {
			return err
		}
		if nb.Cells[index].Metadata.Extra == nil {
			nb.Cells[index].Metadata.Extra = make(map[string]any)
		}
		nb.Cells[index].Metadata.Extra[key] = value
		return nil
	})
}

// DeleteCellMetadata removes a per-cell metadata key.
func (m *Manager) DeleteCellMetadata(path string, index int, key string) (*Notebook, error) {
	return m.mutate(path, func(nb *Notebook) error {
		if err := existingIndex(nb, index); err != nil {
			return err
		}
		delete(nb.Cells[index].Metadata.Extra, key)
		return nil
	})
}
