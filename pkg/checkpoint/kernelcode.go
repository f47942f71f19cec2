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
	"encoding/json"
	"fmt"
	"strings"
)

// payloadMarker prefixes the one stdout line carrying the base64 payload,
// so it can be pulled out of whatever else the user's session may have
// already printed to stdout.
const payloadMarker = "__notebookd_checkpoint_payload__:"

// serializeCode asks the kernel to pickle the named variables into a dict
// and print it base64-encoded on one marked line. A generic pickling
// library is all the spec requires (§4.8); it handles functions, closures,
// and the common numeric/dataframe types the Non-goals don't exclude.
func serializeCode(variables []string) string {
	names := make([]string, len(variables))
	for i, v := range variables {
		names[i] = fmt.Sprintf("%q", v)
	}
	return fmt.Sprintf(`
import pickle as __ckpt_pickle, base64 as __ckpt_base64
__ckpt_names = [%s]
__ckpt_ns = {n: globals()[n] for n in __ckpt_names if n in globals()}
__ckpt_blob = __ckpt_base64.b64encode(__ckpt_pickle.dumps(__ckpt_ns)).decode("ascii")
print(%q + __ckpt_blob)
del __ckpt_pickle, __ckpt_base64, __ckpt_names, __ckpt_ns, __ckpt_blob
`, strings.Join(names, ", "), payloadMarker)
}

// deserializeCode asks the kernel to unpickle a base64 payload and merge
// its variables into the live namespace.
func deserializeCode(payloadB64 string) string {
	return fmt.Sprintf(`
import pickle as __ckpt_pickle, base64 as __ckpt_base64
globals().update(__ckpt_pickle.loads(__ckpt_base64.b64decode(%q)))
del __ckpt_pickle, __ckpt_base64
`, payloadB64)
}

// versionCode reports the interpreter version the payload was produced
// under, for the metadata record.
const versionCode = `
import sys as __ckpt_sys
print(__ckpt_sys.version.split()[0])
del __ckpt_sys
`

// dependencyManifestCode asks the kernel to enumerate its installed
// distributions as a JSON object of name -> version, by querying its own
// package installer (§4.8's "frozen dependency manifest").
const dependencyManifestCode = `
import json as __ckpt_json, importlib.metadata as __ckpt_meta
__ckpt_deps = {d.metadata["Name"]: d.version for d in __ckpt_meta.distributions() if d.metadata.get("Name")}
print(__ckpt_json.dumps(__ckpt_deps))
del __ckpt_json, __ckpt_meta, __ckpt_deps
`

// installCode pins the given name==version entries via the kernel's own
// package installer, for load(..., auto_install=true).
func installCode(pins map[string]string) string {
	specs := make([]string, 0, len(pins))
	for name, version := range pins {
		specs = append(specs, fmt.Sprintf("%s==%s", name, version))
	}
	argv, _ := json.Marshal(specs)
	return fmt.Sprintf(`
import subprocess as __ckpt_subprocess, sys as __ckpt_sys
__ckpt_subprocess.run([__ckpt_sys.executable, "-m", "pip", "install", "-q"] + %s, check=True)
del __ckpt_subprocess, __ckpt_sys
`, string(argv))
}

// extractPayload pulls the marked base64 line out of a capture's full
// stdout text.
func extractPayload(stdout string) (string, bool) {
	for _, line := range strings.Split(stdout, "\n") {
		if strings.HasPrefix(line, payloadMarker) {
			return strings.TrimPrefix(line, payloadMarker), true
		}
	}
	return "", false
}
