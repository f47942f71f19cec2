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

package checkpoint

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/notebookd/notebookd/pkg/errtax"
	"github.com/notebookd/notebookd/pkg/iomux"
	"github.com/notebookd/notebookd/pkg/kernelmgr"
	"github.com/notebookd/notebookd/pkg/log"
)

// Manager is C8: it drives a kernel to (de)serialize its own namespace and
// signs/verifies every payload it writes to disk.
type Manager struct {
	dir     string
	secret  []byte
	kernels *kernelmgr.Manager
	hubs    *iomux.Registry
	timeout time.Duration
}

// New returns a checkpoint manager rooted at dir (typically
// config.CheckpointsDir()), keyed by secret (config.CheckpointSecret).
func New(dir string, secret []byte, kernels *kernelmgr.Manager, hubs *iomux.Registry, timeout time.Duration) *Manager {
	return &Manager{dir: dir, secret: secret, kernels: kernels, hubs: hubs, timeout: timeout}
}

func notebookHash(notebookPath string) string {
	sum := sha256.Sum256([]byte(notebookPath))
	return hex.EncodeToString(sum[:])[:16]
}

func (m *Manager) payloadPath(notebookPath, name string) string {
	return filepath.Join(m.dir, fmt.Sprintf("%s_%s.bin", notebookHash(notebookPath), name))
}

func (m *Manager) metaPath(notebookPath, name string) string {
	return filepath.Join(m.dir, fmt.Sprintf("%s_%s.meta.json", notebookHash(notebookPath), name))
}

// Save serializes the named variables out of notebookPath's live kernel,
// signs the payload, and durably records it alongside a frozen dependency
// manifest (§4.8 save).
func (m *Manager) Save(notebookPath, name string, variableNames []string) (string, error) {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return "", fmt.Errorf("create checkpoints dir: %w", err)
	}

	stdout, err := m.runCapture(notebookPath, serializeCode(variableNames))
	if err != nil {
		return "", err
	}
	encoded, ok := extractPayload(stdout)
	if !ok {
		return "", errtax.New(errtax.ExecutionFailed, "kernel did not produce a checkpoint payload for %s", notebookPath)
	}
	payload, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", errtax.New(errtax.ExecutionFailed, "decode checkpoint payload: %v", err)
	}

	mac := computeMAC(m.secret, payload)

	finalPath := m.payloadPath(notebookPath, name)
	if err := writeAtomic(finalPath, append(append([]byte(hex.EncodeToString(mac)), '\n'), payload...)); err != nil {
		return "", fmt.Errorf("write checkpoint payload: %w", err)
	}

	deps, err := m.dependencyManifest(notebookPath)
	if err != nil {
		log.Warn("checkpoint: could not capture dependency manifest for %s: %v", notebookPath, err)
		deps = map[string]string{}
	}
	version, err := m.runCapture(notebookPath, versionCode)
	if err != nil {
		log.Warn("checkpoint: could not capture interpreter version for %s: %v", notebookPath, err)
	}

	meta := &Checkpoint{
		Name:               name,
		NotebookPath:       notebookPath,
		CreatedAt:          time.Now(),
		InterpreterVersion: strings.TrimSpace(version),
		PayloadSize:        int64(len(payload)),
		Dependencies:       deps,
	}
	metaRaw, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal checkpoint metadata: %w", err)
	}
	if err := writeAtomic(m.metaPath(notebookPath, name), metaRaw); err != nil {
		return "", fmt.Errorf("write checkpoint metadata: %w", err)
	}

	return finalPath, nil
}

// Load verifies a checkpoint's MAC in constant time, optionally reconciles
// its frozen dependency manifest against the live environment, then has
// the kernel merge the deserialized variables into its namespace (§4.8 load).
func (m *Manager) Load(notebookPath, name string, autoInstall bool) error {
	meta, err := m.readMeta(notebookPath, name)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(m.payloadPath(notebookPath, name))
	if err != nil {
		return errtax.New(errtax.NotFound, "checkpoint %s not found for %s", name, notebookPath)
	}
	nl := strings.IndexByte(string(raw), '\n')
	if nl < 0 {
		return errtax.New(errtax.CheckpointTampered, "checkpoint %s for %s is malformed", name, notebookPath)
	}
	storedMAC, err := hex.DecodeString(string(raw[:nl]))
	if err != nil {
		return errtax.New(errtax.CheckpointTampered, "checkpoint %s for %s has an unreadable MAC", name, notebookPath)
	}
	payload := raw[nl+1:]

	if !hmac.Equal(storedMAC, computeMAC(m.secret, payload)) {
		return errtax.New(errtax.CheckpointTampered, "checkpoint %s for %s failed MAC verification", name, notebookPath).
			WithContext("notebook_path", notebookPath, "checkpoint", name)
	}

	if autoInstall {
		if missing := m.missingDependencies(notebookPath, meta.Dependencies); len(missing) > 0 {
			if _, err := m.runCapture(notebookPath, installCode(missing)); err != nil {
				return fmt.Errorf("auto-install checkpoint dependencies: %w", err)
			}
		}
	}

	encoded := base64.StdEncoding.EncodeToString(payload)
	if _, err := m.runCapture(notebookPath, deserializeCode(encoded)); err != nil {
		return fmt.Errorf("deserialize checkpoint into kernel namespace: %w", err)
	}
	return nil
}

// List enumerates the checkpoints recorded for a notebook path.
func (m *Manager) List(notebookPath string) ([]*Checkpoint, error) {
	prefix := notebookHash(notebookPath) + "_"
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list checkpoints dir: %w", err)
	}

	var out []*Checkpoint
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".meta.json") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(m.dir, name))
		if err != nil {
			continue
		}
		var cp Checkpoint
		if err := json.Unmarshal(raw, &cp); err != nil {
			continue
		}
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Delete removes both the payload and metadata for one checkpoint.
func (m *Manager) Delete(notebookPath, name string) error {
	err1 := os.Remove(m.payloadPath(notebookPath, name))
	err2 := os.Remove(m.metaPath(notebookPath, name))
	if err1 != nil && !os.IsNotExist(err1) {
		return fmt.Errorf("delete checkpoint payload: %w", err1)
	}
	if err2 != nil && !os.IsNotExist(err2) {
		return fmt.Errorf("delete checkpoint metadata: %w", err2)
	}
	if os.IsNotExist(err1) && os.IsNotExist(err2) {
		return errtax.New(errtax.NotFound, "checkpoint %s not found for %s", name, notebookPath)
	}
	return nil
}

func (m *Manager) readMeta(notebookPath, name string) (*Checkpoint, error) {
	raw, err := os.ReadFile(m.metaPath(notebookPath, name))
	if err != nil {
		return nil, errtax.New(errtax.NotFound, "checkpoint %s not found for %s", name, notebookPath)
	}
	var cp Checkpoint
	if err := json.Unmarshal(raw, &cp); err != nil {
		return nil, fmt.Errorf("decode checkpoint metadata: %w", err)
	}
	return &cp, nil
}

func (m *Manager) dependencyManifest(notebookPath string) (map[string]string, error) {
	stdout, err := m.runCapture(notebookPath, dependencyManifestCode)
	if err != nil {
		return nil, err
	}
	var deps map[string]string
	if err := json.Unmarshal([]byte(strings.TrimSpace(stdout)), &deps); err != nil {
		return nil, fmt.Errorf("decode dependency manifest: %w", err)
	}
	return deps, nil
}

// missingDependencies compares a frozen manifest against the kernel's
// current environment, returning only the entries whose installed version
// differs (or is absent).
func (m *Manager) missingDependencies(notebookPath string, frozen map[string]string) map[string]string {
	current, err := m.dependencyManifest(notebookPath)
	if err != nil {
		log.Warn("checkpoint: could not compare dependency manifest for %s: %v", notebookPath, err)
		return nil
	}
	missing := make(map[string]string)
	for name, version := range frozen {
		if current[name] != version {
			missing[name] = version
		}
	}
	return missing
}

func computeMAC(secret, payload []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return mac.Sum(nil)
}

func writeAtomic(path string, content []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".checkpoint-tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
