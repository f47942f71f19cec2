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

package introspect

import (
	"encoding/json"
	"regexp"

	"github.com/notebookd/notebookd/pkg/errtax"
)

// packageNameRe rejects shell metacharacters before a package name ever
// reaches a pip invocation run inside the kernel (§6.1's
// install_package: "validated against shell metacharacters").
var packageNameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._=<>!+,-]*$`)

// InstallPackage runs pip install for name inside the kernel's own
// interpreter, so the installed package is visible to the running
// namespace without a restart (§6.1 Environment & packages).
func (m *Manager) InstallPackage(notebookPath, name string) error {
	if !packageNameRe.MatchString(name) {
		return errtax.New(errtax.InvalidInput, "%q is not a valid package spec", name)
	}
	stdout, err := m.runCapture(notebookPath, installPackageCode(name))
	if err != nil {
		return err
	}
	encoded, ok := extractPayload(stdout)
	if !ok {
		return errtax.New(errtax.ExecutionFailed, "kernel did not confirm installation of %s", name)
	}
	var result struct {
		ReturnCode int    `json:"return_code"`
		Output     string `json:"output"`
	}
	if err := json.Unmarshal([]byte(encoded), &result); err != nil {
		return errtax.New(errtax.ExecutionFailed, "decode install result: %v", err)
	}
	if result.ReturnCode != 0 {
		return errtax.New(errtax.ExecutionFailed, "pip install %s exited %d: %s", name, result.ReturnCode, result.Output).
			WithContext("package", name)
	}
	return nil
}

// ListKernelPackages returns the kernel interpreter's installed
// distributions and versions (§6.1 list_kernel_packages).
func (m *Manager) ListKernelPackages(notebookPath string) (map[string]string, error) {
	stdout, err := m.runCapture(notebookPath, listPackagesCode())
	if err != nil {
		return nil, err
	}
	encoded, ok := extractPayload(stdout)
	if !ok {
		return nil, errtax.New(errtax.ExecutionFailed, "kernel did not produce a package listing for %s", notebookPath)
	}
	var out map[string]string
	if err := json.Unmarshal([]byte(encoded), &out); err != nil {
		return nil, errtax.New(errtax.ExecutionFailed, "decode package listing: %v", err)
	}
	return out, nil
}

// GetWorkingDirectory returns the kernel interpreter's current working
// directory (§6.1 check_working_directory).
func (m *Manager) GetWorkingDirectory(notebookPath string) (string, error) {
	stdout, err := m.runCapture(notebookPath, getWorkingDirectoryCode())
	if err != nil {
		return "", err
	}
	encoded, ok := extractPayload(stdout)
	if !ok {
		return "", errtax.New(errtax.ExecutionFailed, "kernel did not report a working directory for %s", notebookPath)
	}
	var dir string
	if err := json.Unmarshal([]byte(encoded), &dir); err != nil {
		return "", errtax.New(errtax.ExecutionFailed, "decode working directory: %v", err)
	}
	return dir, nil
}

// SetWorkingDirectory chdirs the kernel interpreter (§6.1
// set_working_directory), returning the resolved absolute path.
func (m *Manager) SetWorkingDirectory(notebookPath, dir string) (string, error) {
	stdout, err := m.runCapture(notebookPath, setWorkingDirectoryCode(dir))
	if err != nil {
		return "", err
	}
	encoded, ok := extractPayload(stdout)
	if !ok {
		return "", errtax.New(errtax.ExecutionFailed, "kernel did not confirm the working directory change for %s", notebookPath)
	}
	var resolved string
	if err := json.Unmarshal([]byte(encoded), &resolved); err != nil {
		return "", errtax.New(errtax.ExecutionFailed, "decode working directory: %v", err)
	}
	return resolved, nil
}
