package toolmap

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Default preview bounds for tool results.
const (
	DefaultPreviewLines = 5
	DefaultPreviewWidth = 200
)

// ResultText extracts display text from a tool_result payload. A JSON string
// is returned as-is, an array of {"type":"text"} items is joined with
// newlines, and anything else is rendered as compact JSON.
func ResultText(payload json.RawMessage) string {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		return ""
	}

	var s string
	if err := json.Unmarshal(payload, &s); err == nil {
		return s
	}

	var items []struct {
		Type string  `json:"type"`
		Text *string `json:"text"`
	}
	if err := json.Unmarshal(payload, &items); err == nil && len(items) > 0 {
		texts := make([]string, 0, len(items))
		for _, item := range items {
			if item.Type != "text" || item.Text == nil {
				texts = nil
				break
			}
			texts = append(texts, *item.Text)
		}
		if texts != nil {
			return strings.Join(texts, "\n")
		}
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, payload); err != nil {
		return string(payload)
	}
	return buf.String()
}

// Preview bounds s to maxLines lines, each truncated to maxWidth display
// columns. Non-positive bounds fall back to the defaults.
func Preview(s string, maxLines, maxWidth int) string {
	if maxLines <= 0 {
		maxLines = DefaultPreviewLines
	}
	if maxWidth <= 0 {
		maxWidth = DefaultPreviewWidth
	}

	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	for i, line := range lines {
		lines[i] = runewidth.Truncate(line, maxWidth, "…")
	}
	return strings.Join(lines, "\n")
}
