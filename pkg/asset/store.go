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

package asset

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/notebookd/notebookd/pkg/errtax"
	"github.com/notebookd/notebookd/pkg/store"
)

// Store is C3: a content-addressed directory tree co-located with each
// notebook, deduplicated by content hash, backed by C1 for lease bookkeeping.
type Store struct {
	db         *store.Store
	defaultTTL time.Duration
}

// New returns an asset store that renews leases through db.
func New(db *store.Store, defaultTTL time.Duration) *Store {
	return &Store{db: db, defaultTTL: defaultTTL}
}

// assetsDir returns <notebook_dir>/assets for a notebook path.
func assetsDir(notebookPath string) string {
	return filepath.Join(filepath.Dir(notebookPath), "assets")
}

// Store writes bytes content-addressed under the notebook's assets
// directory, returning the canonical path. Writing is a no-op if the
// content hash is already present (§4.3).
func (s *Store) Store(notebookPath, mime string, content []byte) (string, error) {
	sum := sha256.Sum256(content)
	hash := hex.EncodeToString(sum[:])
	dir := assetsDir(notebookPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create assets dir: %w", err)
	}

	name := fmt.Sprintf("%s_%s%s", mimeKind(mime), hash, mimeExtension(mime))
	path := filepath.Join(dir, name)

	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	tmp, err := os.CreateTemp(dir, ".asset-tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp asset: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write asset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp asset: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return "", fmt.Errorf("rename asset: %w", err)
	}

	if err := s.Renew(path, notebookPath, mime, int64(len(content)), s.defaultTTL); err != nil {
		return "", err
	}
	return path, nil
}

// Renew delegates lease renewal to C1 (§4.3).
func (s *Store) Renew(assetPath, notebookPath, mime string, size int64, ttl time.Duration) error {
	if ttl == 0 {
		ttl = s.defaultTTL
	}
	return s.db.RenewLease(assetPath, notebookPath, mime, size, ttl)
}

// Read implements read_asset's {range|search|head|tail} modes, so a caller
// can inspect a multi-MB log without materializing it (§4.3).
func (s *Store) Read(assetPath string, req ReadRequest) (*ReadResult, error) {
	data, err := os.ReadFile(assetPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errtax.New(errtax.NotFound, "asset not found: %s", assetPath)
		}
		return nil, fmt.Errorf("read asset: %w", err)
	}

	lines := strings.Split(string(data), "\n")
	total := len(lines)

	switch req.Mode {
	case ReadModeRange:
		start := req.StartLine - 1
		if start < 0 {
			start = 0
		}
		end := req.EndLine
		if end > total {
			end = total
		}
		if start >= end {
			return &ReadResult{Content: "", TotalLines: total}, nil
		}
		return &ReadResult{Content: strings.Join(lines[start:end], "\n"), TotalLines: total}, nil

	case ReadModeSearch:
		var matches []string
		for _, line := range lines {
			if strings.Contains(line, req.Search) {
				matches = append(matches, line)
			}
		}
		return &ReadResult{Content: strings.Join(matches, "\n"), TotalLines: total}, nil

	case ReadModeHead:
		n := req.Lines
		if n <= 0 || n > total {
			n = total
		}
		return &ReadResult{Content: strings.Join(lines[:n], "\n"), TotalLines: total, Truncated: n < total}, nil

	case ReadModeTail:
		n := req.Lines
		if n <= 0 || n > total {
			n = total
		}
		return &ReadResult{Content: strings.Join(lines[total-n:], "\n"), TotalLines: total, Truncated: n < total}, nil

	default:
		return &ReadResult{Content: string(data), TotalLines: total}, nil
	}
}
