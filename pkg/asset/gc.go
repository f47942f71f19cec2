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
	"bytes"
	"context"
	"os"
	"time"

	"github.com/notebookd/notebookd/pkg/log"
	"github.com/notebookd/notebookd/pkg/notebook"
	"github.com/notebookd/notebookd/pkg/util/glob"
)

// GCExpired enumerates expired leases (invariant 5, §8): for each, it
// verifies the asset is not referenced by the current on-disk notebook;
// unreferenced assets are deleted, referenced ones are renewed instead.
// Failure to delete one asset must not abort the sweep (§4.3). patterns
// scopes the sweep to assets whose path glob-matches one of them (§6.1
// prune_unused_assets); a nil/empty slice sweeps every expired lease, as
// the background schedule in RunGCLoop always does.
func (s *Store) GCExpired(now time.Time, notebooks *notebook.Manager, patterns []string) (deleted, renewed int) {
	leases, err := s.db.ExpiredLeases(now)
	if err != nil {
		log.Error("asset gc: list expired leases: %v", err)
		return 0, 0
	}

	for _, lease := range leases {
		if !glob.MatchesAny(patterns, lease.AssetPath) {
			continue
		}
		referenced, err := s.referencedByNotebook(lease.AssetPath, lease.NotebookPath, notebooks)
		if err != nil {
			log.Warn("asset gc: check references for %s: %v", lease.AssetPath, err)
		}
		if referenced {
			if err := s.Renew(lease.AssetPath, lease.NotebookPath, lease.Mime, lease.Size, s.defaultTTL); err != nil {
				log.Error("asset gc: renew %s: %v", lease.AssetPath, err)
				continue
			}
			renewed++
			continue
		}

		if err := os.Remove(lease.AssetPath); err != nil && !os.IsNotExist(err) {
			log.Error("asset gc: delete %s: %v", lease.AssetPath, err)
			continue
		}
		if err := s.db.DeleteLease(lease.AssetPath); err != nil {
			log.Error("asset gc: forget lease %s: %v", lease.AssetPath, err)
			continue
		}
		deleted++
	}
	return deleted, renewed
}

// referencedByNotebook reports whether assetPath appears in any cell's
// stored outputs for the current on-disk notebook.
func (s *Store) referencedByNotebook(assetPath, notebookPath string, notebooks *notebook.Manager) (bool, error) {
	nb, err := notebooks.Read(notebookPath)
	if err != nil {
		// A deleted/renamed notebook can't reference anything; GC proceeds
		// to delete, which is the correct outcome for an orphaned asset.
		return false, nil
	}
	needle := []byte(assetPath)
	for _, cell := range nb.Cells {
		if bytes.Contains(cell.Outputs, needle) {
			return true, nil
		}
	}
	return false, nil
}

// RunGCLoop runs GCExpired on a fixed schedule (default hourly, §4.3),
// independent of client activity, until ctx is cancelled.
func (s *Store) RunGCLoop(ctx context.Context, interval time.Duration, notebooks *notebook.Manager) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, renewed := s.GCExpired(time.Now(), notebooks, nil)
			log.Info("asset gc sweep: deleted=%d renewed=%d", deleted, renewed)
		}
	}
}
