package toolmap

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
)

func TestMapToolName(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"Bash":         "shell",
		"BashOutput":   "shell_output",
		"KillShell":    "shell_kill",
		"Read":         "read_file",
		"Write":        "write_file",
		"Edit":         "edit_file",
		"MultiEdit":    "edit_file",
		"NotebookEdit": "edit_notebook",
		"Glob":         "glob",
		"Grep":         "grep",
		"WebFetch":     "web_fetch",
		"WebSearch":    "web_search",
		"TodoWrite":    "todo_write",
		"Task":         "subagent",
		"mcp__foo":     "mcp__foo",
		"":             "",
		Unknown:        Unknown,
	}
	for in, want := range tests {
		assert.Equal(t, want, MapToolName(in), "MapToolName(%q)", in)
	}
}

func TestMapParams_RenamesPath(t *testing.T) {
	t.Parallel()
	in := map[string]any{"file_path": "/tmp/a.go", "offset": 10.0}
	out := MapParams("Read", in)

	assert.Equal(t, map[string]any{"path": "/tmp/a.go", "offset": 10.0}, out)
	assert.Equal(t, map[string]any{"file_path": "/tmp/a.go", "offset": 10.0}, in, "input must not be mutated")
}

func TestMapParams_Notebook(t *testing.T) {
	t.Parallel()
	out := MapParams("NotebookEdit", map[string]any{"notebook_path": "n.ipynb", "cell_id": "c1"})
	assert.Equal(t, map[string]any{"path": "n.ipynb", "cell_id": "c1"}, out)
}

func TestMapParams_Passthrough(t *testing.T) {
	t.Parallel()
	in := map[string]any{"command": "ls", "file_path": "x"}
	assert.Equal(t, in, MapParams("Bash", in))
	assert.Equal(t, in, MapParams("SomethingNew", in))
	assert.Empty(t, MapParams("Bash", nil))
}

func TestResultText(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{"absent", ``, ``},
		{"null", `null`, ``},
		{"string", `"file1\nfile2"`, "file1\nfile2"},
		{"text items", `[{"type":"text","text":"a"},{"type":"text","text":"b"}]`, "a\nb"},
		{"mixed items", `[{"type":"text","text":"a"},{"type":"image","source":{}}]`, `[{"type":"text","text":"a"},{"type":"image","source":{}}]`},
		{"object", `{ "exit_code" : 1 }`, `{"exit_code":1}`},
		{"number", `42`, `42`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ResultText(json.RawMessage(tt.payload)))
		})
	}
}

func TestPreview_LimitsLines(t *testing.T) {
	t.Parallel()
	in := "l1\nl2\nl3\nl4\nl5\nl6\nl7\n"
	assert.Equal(t, "l1\nl2\nl3\nl4\nl5", Preview(in, 0, 0))
	assert.Equal(t, "l1\nl2", Preview(in, 2, 80))
}

func TestPreview_LimitsWidth(t *testing.T) {
	t.Parallel()
	long := strings.Repeat("x", 300)
	got := Preview(long, 5, 200)
	assert.LessOrEqual(t, runewidth.StringWidth(got), 200)
	assert.True(t, strings.HasSuffix(got, "…"))

	wide := strings.Repeat("世", 20)
	got = Preview(wide, 1, 10)
	assert.LessOrEqual(t, runewidth.StringWidth(got), 10)
}

func TestPreview_ShortInputUnchanged(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "file1\nfile2", Preview("file1\nfile2", 5, 200))
}
