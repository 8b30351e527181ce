package render

import (
	"encoding/json"
	"io"
	"maps"
	"sync"
)

// JSONLines writes each callback as one JSON object per line, using the same
// Event shape Capture records. Write errors are remembered and reported by Err.
type JSONLines struct {
	enc *json.Encoder
	err error
	mu  sync.Mutex
}

// NewJSONLines returns a renderer writing to w.
func NewJSONLines(w io.Writer) *JSONLines {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONLines{enc: enc}
}

// Err returns the first write error, if any.
func (j *JSONLines) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

func (j *JSONLines) emit(e Event) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.err != nil {
		return
	}
	j.err = j.enc.Encode(e)
}

func (j *JSONLines) OnResponseStart() { j.emit(Event{Kind: EventResponseStart}) }

func (j *JSONLines) OnTextChunk(text string) { j.emit(Event{Kind: EventTextChunk, Text: text}) }

func (j *JSONLines) OnResponseEnd() { j.emit(Event{Kind: EventResponseEnd}) }

func (j *JSONLines) OnThinkingChunk(text string, isStart, isEnd bool) {
	j.emit(Event{Kind: EventThinkingChunk, Text: text, IsStart: isStart, IsEnd: isEnd})
}

func (j *JSONLines) OnToolCall(name string, params map[string]any) {
	j.emit(Event{Kind: EventToolCall, Name: name, Params: maps.Clone(params)})
}

func (j *JSONLines) OnToolResult(name string, success bool, summary, full string) {
	j.emit(Event{Kind: EventToolResult, Name: name, Success: success, Summary: summary, Full: full})
}

func (j *JSONLines) OnFinalResult(success bool, message string, iterations int) {
	j.emit(Event{Kind: EventFinalResult, Success: success, Text: message, Iterations: iterations})
}

func (j *JSONLines) OnComplete(elapsedMs int64, toolCount int) {
	j.emit(Event{Kind: EventComplete, ElapsedMs: elapsedMs, ToolCount: toolCount})
}

func (j *JSONLines) OnError(message string) { j.emit(Event{Kind: EventError, Text: message}) }

func (j *JSONLines) OnForceStop() { j.emit(Event{Kind: EventForceStop}) }

var _ Renderer = (*JSONLines)(nil)
