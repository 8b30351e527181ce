// Package toolmap translates the agent CLI's tool vocabulary into the names
// and parameter keys renderers display.
package toolmap

// Unknown is the name reported for a tool result whose tool_use id was never
// seen.
const Unknown = "unknown"

type mapping struct {
	name   string
	params map[string]string
}

var pathParam = map[string]string{"file_path": "path"}

var table = map[string]mapping{
	"Bash":         {name: "shell"},
	"BashOutput":   {name: "shell_output"},
	"KillShell":    {name: "shell_kill"},
	"Read":         {name: "read_file", params: pathParam},
	"Write":        {name: "write_file", params: pathParam},
	"Edit":         {name: "edit_file", params: pathParam},
	"MultiEdit":    {name: "edit_file", params: pathParam},
	"NotebookEdit": {name: "edit_notebook", params: map[string]string{"notebook_path": "path"}},
	"Glob":         {name: "glob"},
	"Grep":         {name: "grep"},
	"WebFetch":     {name: "web_fetch"},
	"WebSearch":    {name: "web_search"},
	"TodoWrite":    {name: "todo_write"},
	"Task":         {name: "subagent"},
}

// MapToolName returns the display name for an upstream tool name. Names not
// in the table pass through unchanged.
func MapToolName(name string) string {
	if m, ok := table[name]; ok {
		return m.name
	}
	return name
}

// MapParams returns a copy of params with keys renamed for the given
// upstream tool. The input map is never modified.
func MapParams(name string, params map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	renames := table[name].params
	for k, v := range params {
		if renamed, ok := renames[k]; ok {
			k = renamed
		}
		out[k] = v
	}
	return out
}
