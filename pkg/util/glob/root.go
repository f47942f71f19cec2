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

package glob

import "path/filepath"

// WithinRoot reports whether path, once cleaned and resolved relative to
// root, still falls under root. Every notebook/asset path a client
// supplies is checked against the process's allowed root before it ever
// reaches C2/C3, so a "../../etc/passwd"-style path never resolves
// outside the sandboxed workspace.
//
// Containment itself is decided by PathMatch against root's "**" subtree
// pattern rather than a plain string-prefix comparison: a path cleaned
// down to something outside root (any ".."-escaped or absolute path
// pointing elsewhere) simply fails to match the pattern, with no special
// casing of "..". The exact-root case (path == root) is checked
// separately since "root/**" does not match root itself.
func WithinRoot(root, path string) bool {
	root = filepath.Clean(root)
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	resolved := filepath.Clean(path)
	if resolved == root {
		return true
	}
	matched, err := PathMatch(filepath.Join(root, "**"), resolved)
	if err != nil {
		return false
	}
	return matched
}

// MatchesAny reports whether path matches any of patterns, used to scope
// C3's prune sweep to a caller-supplied subset of assets (§6.1
// prune_unused_assets). An empty pattern list matches everything.
func MatchesAny(patterns []string, path string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, pattern := range patterns {
		if matched, err := PathMatch(pattern, path); err == nil && matched {
			return true
		}
	}
	return false
}
