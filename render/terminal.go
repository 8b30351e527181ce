package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

const toolArgWidth = 80

// primaryParams are shown inline after a tool name, first match wins.
var primaryParams = []string{"command", "path", "pattern", "url", "query", "description", "prompt"}

type styles struct {
	thinking lipgloss.Style
	tool     lipgloss.Style
	ok       lipgloss.Style
	failed   lipgloss.Style
	dim      lipgloss.Style
	warn     lipgloss.Style
}

func newStyles(out io.Writer, noColor bool) styles {
	if noColor {
		plain := lipgloss.NewStyle()
		return styles{thinking: plain, tool: plain, ok: plain, failed: plain, dim: plain, warn: plain}
	}
	r := lipgloss.NewRenderer(out)
	return styles{
		thinking: r.NewStyle().Faint(true).Italic(true),
		tool:     r.NewStyle().Foreground(lipgloss.Color("6")).Bold(true),
		ok:       r.NewStyle().Foreground(lipgloss.Color("2")),
		failed:   r.NewStyle().Foreground(lipgloss.Color("1")),
		dim:      r.NewStyle().Faint(true),
		warn:     r.NewStyle().Foreground(lipgloss.Color("3")),
	}
}

// Terminal renders a session as human-readable terminal output.
type Terminal struct {
	out         io.Writer
	st          styles
	mu          sync.Mutex
	verbose     bool
	inThinking  bool
	atLineStart bool
}

// NewTerminal creates a renderer writing to out. Colors are disabled when
// noColor is set or out is not a terminal. In verbose mode full tool results
// are printed instead of their previews.
func NewTerminal(out io.Writer, verbose, noColor bool) *Terminal {
	if !noColor {
		noColor = !isTerminal(out)
	}
	return &Terminal{
		out:         out,
		st:          newStyles(out, noColor),
		verbose:     verbose,
		atLineStart: true,
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (t *Terminal) write(s string) {
	if s == "" {
		return
	}
	fmt.Fprint(t.out, s)
	t.atLineStart = strings.HasSuffix(s, "\n")
}

// newline ends the current line if anything has been written to it.
func (t *Terminal) newline() {
	if !t.atLineStart {
		t.write("\n")
	}
}

func (t *Terminal) OnResponseStart() {}

func (t *Terminal) OnTextChunk(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.inThinking {
		t.newline()
		t.inThinking = false
	}
	t.write(text)
}

func (t *Terminal) OnResponseEnd() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.newline()
}

func (t *Terminal) OnThinkingChunk(text string, isStart, isEnd bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch {
	case isStart:
		t.newline()
		t.inThinking = true
	case isEnd:
		t.newline()
		t.inThinking = false
	default:
		t.write(t.st.thinking.Render(text))
	}
}

func (t *Terminal) OnToolCall(name string, params map[string]any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.newline()
	line := t.st.tool.Render("▸ " + name)
	if arg := summarizeParams(params); arg != "" {
		line += " " + arg
	}
	t.write(line + "\n")
}

func (t *Terminal) OnToolResult(name string, success bool, summary, full string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.newline()
	mark := t.st.ok.Render("✓")
	if !success {
		mark = t.st.failed.Render("✗")
	}
	body := summary
	if t.verbose {
		body = full
	}
	t.write(fmt.Sprintf("  %s %s\n", mark, t.st.dim.Render(name)))
	if body == "" {
		return
	}
	for _, line := range strings.Split(strings.TrimRight(body, "\n"), "\n") {
		t.write("    " + t.st.dim.Render(line) + "\n")
	}
}

func (t *Terminal) OnFinalResult(success bool, message string, iterations int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if success {
		return
	}
	t.newline()
	t.write(t.st.failed.Render("✗ "+message) + "\n")
}

func (t *Terminal) OnComplete(elapsedMs int64, toolCount int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.newline()
	t.write(t.st.dim.Render(fmt.Sprintf("── %.1fs · %d tool calls", float64(elapsedMs)/1000, toolCount)) + "\n")
}

func (t *Terminal) OnError(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.newline()
	t.write(t.st.failed.Render("error: "+message) + "\n")
}

func (t *Terminal) OnForceStop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inThinking = false
	t.newline()
	t.write(t.st.warn.Render("[interrupted]") + "\n")
}

// summarizeParams picks the most descriptive parameter for a one-line
// display, falling back to the whole map as JSON.
func summarizeParams(params map[string]any) string {
	if len(params) == 0 {
		return ""
	}
	for _, key := range primaryParams {
		if v, ok := params[key].(string); ok && v != "" {
			return oneLine(v)
		}
	}
	b, err := json.Marshal(params)
	if err != nil {
		return ""
	}
	return oneLine(string(b))
}

func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return runewidth.Truncate(s, toolArgWidth, "…")
}

var _ Renderer = (*Terminal)(nil)
