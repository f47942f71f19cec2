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
	"fmt"
	"regexp"
	"strings"

	"github.com/notebookd/notebookd/pkg/asset"
	"github.com/notebookd/notebookd/pkg/jupyter/execute"
)

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

var binaryMimes = map[string]bool{
	"image/png":     true,
	"image/jpeg":    true,
	"image/gif":     true,
	"image/svg+xml": true,
	"image/webp":    true,
	"application/pdf": true,
}

// interactiveMimes never get demoted to a static fallback (§4.7's
// "interactive MIME priority"); they are kept inline regardless of which
// other representations are present in the same bundle.
var interactiveMimes = map[string]bool{
	"application/vnd.jupyter.widget-view+json": true,
	"application/json":                         true,
}

// Sanitizer is C7: it turns raw kernel wire content into durable Output
// records, offloading anything oversized or binary to C3.
type Sanitizer struct {
	assets       *asset.Store
	thresholdB   int
	thresholdLns int
}

// New returns a sanitizer bound to an asset store, with the text offload
// threshold from config (§6.4's offload-threshold settings; default 2 KiB
// or 50 lines, §4.7).
func New(assets *asset.Store, thresholdBytes, thresholdLines int) *Sanitizer {
	return &Sanitizer{assets: assets, thresholdB: thresholdBytes, thresholdLns: thresholdLines}
}

// Stream canonicalizes a stdout/stderr stream chunk.
func (s *Sanitizer) Stream(notebookPath string, so *execute.StreamOutput) (*Output, error) {
	text := stripANSI(so.Text)
	out := &Output{Type: OutputStream}
	return s.textPayload(notebookPath, out, string(so.Name), text)
}

// Error canonicalizes a kernel error message. Tracebacks are typically
// small and always kept inline (they are diagnostic, not data).
func (s *Sanitizer) Error(eo *execute.ErrorOutput) *Output {
	return &Output{
		Type:       OutputError,
		ErrorName:  eo.EName,
		ErrorValue: eo.EValue,
		Traceback:  stripANSIAll(eo.Traceback),
	}
}

// Clear produces the control-marker Output for a clear_output message. It
// does not itself touch any asset lease (see DESIGN.md Open Question #2).
func (s *Sanitizer) Clear() *Output {
	return &Output{Type: OutputClear}
}

// ExecuteResult canonicalizes an execute_result's mime bundle.
func (s *Sanitizer) ExecuteResult(notebookPath string, er *execute.ExecuteResult) (*Output, error) {
	out := &Output{Type: OutputExecuteResult, ExecutionCt: er.ExecutionCount}
	return s.mimeBundle(notebookPath, out, er.Data)
}

// DisplayData canonicalizes a display_data mime bundle.
func (s *Sanitizer) DisplayData(notebookPath string, dd *execute.DisplayData) (*Output, error) {
	out := &Output{Type: OutputDisplay}
	return s.mimeBundle(notebookPath, out, dd.Data)
}

// mimeBundle applies interactive-priority retention, binary offloading,
// table abbreviation, and text offloading across every representation in a
// kernel mime bundle (§4.7).
func (s *Sanitizer) mimeBundle(notebookPath string, out *Output, data map[string]interface{}) (*Output, error) {
	out.MimeBundle = make(map[string]string)

	for mime, value := range data {
		text, isText := value.(string)
		if !isText {
			continue
		}

		switch {
		case binaryMimes[mime]:
			raw, err := base64.StdEncoding.DecodeString(text)
			if err != nil {
				return nil, fmt.Errorf("decode %s payload: %w", mime, err)
			}
			path, err := s.assets.Store(notebookPath, mime, raw)
			if err != nil {
				return nil, fmt.Errorf("offload %s asset: %w", mime, err)
			}
			out.AssetPath = path
			out.AssetMime = mime
			out.Stub = true
			out.TotalBytes = len(raw)

		case mime == "text/html" && looksLikeTable(text):
			summary, rows, cols := abbreviateTable(text)
			if rows > 10 || cols > 10 {
				out.MimeBundle[mime] = summary
			} else {
				out.MimeBundle[mime] = text
			}

		case interactiveMimes[mime]:
			out.MimeBundle[mime] = text

		case mime == "text/plain" || mime == "text/html":
			if _, err := s.textPayload(notebookPath, out, mime, stripANSI(text)); err != nil {
				return nil, err
			}

		default:
			out.MimeBundle[mime] = text
		}
	}

	return out, nil
}

// textPayload applies the offload-threshold decision to one piece of text,
// either storing it inline or offloading it with a head-and-tail preview
// (§4.7, testable property: exactly T_text bytes is not offloaded, one
// byte more is).
func (s *Sanitizer) textPayload(notebookPath string, out *Output, key, text string) (*Output, error) {
	lines := strings.Count(text, "\n") + 1
	if len(text) <= s.thresholdB && lines <= s.thresholdLns {
		if out.MimeBundle == nil {
			out.MimeBundle = make(map[string]string)
		}
		out.MimeBundle[key] = text
		return out, nil
	}

	path, err := s.assets.Store(notebookPath, "text/plain", []byte(text))
	if err != nil {
		return nil, fmt.Errorf("offload text asset: %w", err)
	}
	out.AssetPath = path
	out.AssetMime = "text/plain"
	out.Stub = true
	out.TotalBytes = len(text)
	out.TotalLines = lines
	out.Preview = headAndTail(text, 5)
	return out, nil
}

func headAndTail(text string, n int) string {
	lines := strings.Split(text, "\n")
	if len(lines) <= 2*n {
		return text
	}
	head := strings.Join(lines[:n], "\n")
	tail := strings.Join(lines[len(lines)-n:], "\n")
	return fmt.Sprintf("%s\n... (%d lines omitted) ...\n%s", head, len(lines)-2*n, tail)
}

func stripANSI(s string) string {
	return ansiEscape.ReplaceAllString(s, "")
}

func stripANSIAll(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = stripANSI(l)
	}
	return out
}

func looksLikeTable(html string) bool {
	return strings.Contains(html, "<table")
}

// abbreviateTable counts an HTML table's rows/cols and, when it exceeds
// 10x10, replaces it with a short textual summary (§4.7).
func abbreviateTable(html string) (summary string, rows, cols int) {
	rows = strings.Count(html, "<tr")
	if firstRow := indexOfRow(html); firstRow != "" {
		cols = strings.Count(firstRow, "<td") + strings.Count(firstRow, "<th")
	}
	if rows > 10 || cols > 10 {
		return fmt.Sprintf("<table summarized: %d rows x %d cols too large to inline>", rows, cols), rows, cols
	}
	return html, rows, cols
}

func indexOfRow(html string) string {
	start := strings.Index(html, "<tr")
	if start == -1 {
		return ""
	}
	end := strings.Index(html[start:], "</tr>")
	if end == -1 {
		return html[start:]
	}
	return html[start : start+end]
}
