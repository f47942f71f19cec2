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

package sanitize

import (
	"encoding/base64"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notebookd/notebookd/pkg/asset"
	"github.com/notebookd/notebookd/pkg/jupyter/execute"
	"github.com/notebookd/notebookd/pkg/store"
)

func newTestSanitizer(t *testing.T) (*Sanitizer, string) {
	t.Helper()
	dir := t.TempDir()
	db, err := store.Open(filepath.Join(dir, "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	assets := asset.New(db, time.Hour)
	return New(assets, 2048, 50), filepath.Join(dir, "nb.ipynb")
}

func TestTextExactlyAtThresholdStaysInline(t *testing.T) {
	s, nbPath := newTestSanitizer(t)
	text := strings.Repeat("a", 2048)

	out, err := s.Stream(nbPath, &execute.StreamOutput{Name: execute.StreamStdout, Text: text})
	require.NoError(t, err)
	assert.Empty(t, out.AssetPath, "exactly T_text bytes must not be offloaded")
	assert.Equal(t, text, out.MimeBundle["stdout"])
}

func TestTextOneByteOverThresholdOffloads(t *testing.T) {
	s, nbPath := newTestSanitizer(t)
	text := strings.Repeat("a", 2049)

	out, err := s.Stream(nbPath, &execute.StreamOutput{Name: execute.StreamStdout, Text: text})
	require.NoError(t, err)
	assert.NotEmpty(t, out.AssetPath, "one byte over T_text must be offloaded")
	assert.True(t, out.Stub)
}

func TestBinaryOutputAlwaysOffloaded(t *testing.T) {
	s, nbPath := newTestSanitizer(t)
	png := base64.StdEncoding.EncodeToString([]byte("not a real png but bytes"))

	out, err := s.DisplayData(nbPath, &execute.DisplayData{
		Data: map[string]interface{}{"image/png": png},
	})
	require.NoError(t, err)
	assert.Equal(t, "image/png", out.AssetMime)
	assert.NotEmpty(t, out.AssetPath)
}

func TestAnsiEscapesStripped(t *testing.T) {
	s, nbPath := newTestSanitizer(t)
	out, err := s.Stream(nbPath, &execute.StreamOutput{Name: execute.StreamStdout, Text: "\x1b[31mred\x1b[0m"})
	require.NoError(t, err)
	assert.Equal(t, "red", out.MimeBundle["stdout"])
}

func TestLargeTableSummarized(t *testing.T) {
	s, nbPath := newTestSanitizer(t)
	var b strings.Builder
	b.WriteString("<table>")
	for i := 0; i < 15; i++ {
		b.WriteString("<tr>")
		for j := 0; j < 15; j++ {
			b.WriteString("<td>x</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</table>")

	out, err := s.ExecuteResult(nbPath, &execute.ExecuteResult{
		Data: map[string]interface{}{"text/html": b.String()},
	})
	require.NoError(t, err)
	assert.Contains(t, out.MimeBundle["text/html"], "summarized")
}

func TestSmallTableKeptInline(t *testing.T) {
	s, nbPath := newTestSanitizer(t)
	html := "<table><tr><td>1</td></tr></table>"

	out, err := s.ExecuteResult(nbPath, &execute.ExecuteResult{
		Data: map[string]interface{}{"text/html": html},
	})
	require.NoError(t, err)
	assert.Equal(t, html, out.MimeBundle["text/html"])
}
