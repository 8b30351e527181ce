// Package render defines the boundary between a session and whatever
// displays it, plus a few stock implementations.
package render

// Renderer receives the application-level events of one prompt, in order.
// Calls are made from the goroutine running the prompt.
type Renderer interface {
	OnResponseStart()
	OnTextChunk(text string)
	OnResponseEnd()
	// OnThinkingChunk streams reasoning. A region opens with isStart set and
	// closes with isEnd set; both carry empty text.
	OnThinkingChunk(text string, isStart, isEnd bool)
	OnToolCall(name string, params map[string]any)
	OnToolResult(name string, success bool, summary, full string)
	OnFinalResult(success bool, message string, iterations int)
	OnComplete(elapsedMs int64, toolCount int)
	OnError(message string)
	OnForceStop()
}

// NoOp discards every event.
type NoOp struct{}

func (NoOp) OnResponseStart() {}
func (NoOp) OnTextChunk(string) {}
func (NoOp) OnResponseEnd() {}
func (NoOp) OnThinkingChunk(string, bool, bool) {}
func (NoOp) OnToolCall(string, map[string]any) {}
func (NoOp) OnToolResult(string, bool, string, string) {}
func (NoOp) OnFinalResult(bool, string, int) {}
func (NoOp) OnComplete(int64, int) {}
func (NoOp) OnError(string) {}
func (NoOp) OnForceStop() {}

var _ Renderer = NoOp{}
