package render

import (
	"maps"
	"strings"
	"sync"
)

// EventKind names a Renderer callback.
type EventKind string

const (
	EventResponseStart EventKind = "response_start"
	EventTextChunk     EventKind = "text"
	EventResponseEnd   EventKind = "response_end"
	EventThinkingChunk EventKind = "thinking"
	EventToolCall      EventKind = "tool_call"
	EventToolResult    EventKind = "tool_result"
	EventFinalResult   EventKind = "final_result"
	EventComplete      EventKind = "complete"
	EventError         EventKind = "error"
	EventForceStop     EventKind = "force_stop"
)

// Event is one recorded Renderer callback. Only the fields relevant to Kind
// are set.
type Event struct {
	Params     map[string]any `json:"params,omitempty"`
	Kind       EventKind      `json:"kind"`
	Text       string         `json:"text,omitempty"`
	Name       string         `json:"name,omitempty"`
	Summary    string         `json:"summary,omitempty"`
	Full       string         `json:"full,omitempty"`
	ElapsedMs  int64          `json:"elapsed_ms,omitempty"`
	Iterations int            `json:"iterations,omitempty"`
	ToolCount  int            `json:"tool_count,omitempty"`
	Success    bool           `json:"success,omitempty"`
	IsStart    bool           `json:"is_start,omitempty"`
	IsEnd      bool           `json:"is_end,omitempty"`
}

// Capture records every callback in order. It is safe for concurrent use.
type Capture struct {
	events []Event
	mu     sync.Mutex
}

// NewCapture returns an empty Capture.
func NewCapture() *Capture {
	return &Capture{}
}

func (c *Capture) add(e Event) {
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (c *Capture) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

// Kinds returns the kind of every recorded event, in order.
func (c *Capture) Kinds() []EventKind {
	events := c.Events()
	kinds := make([]EventKind, len(events))
	for i, e := range events {
		kinds[i] = e.Kind
	}
	return kinds
}

// Filter returns the recorded events of the given kind.
func (c *Capture) Filter(kind EventKind) []Event {
	var out []Event
	for _, e := range c.Events() {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Text concatenates all text chunks.
func (c *Capture) Text() string {
	var b strings.Builder
	for _, e := range c.Filter(EventTextChunk) {
		b.WriteString(e.Text)
	}
	return b.String()
}

// Reset drops everything recorded so far.
func (c *Capture) Reset() {
	c.mu.Lock()
	c.events = nil
	c.mu.Unlock()
}

func (c *Capture) OnResponseStart() { c.add(Event{Kind: EventResponseStart}) }

func (c *Capture) OnTextChunk(text string) { c.add(Event{Kind: EventTextChunk, Text: text}) }

func (c *Capture) OnResponseEnd() { c.add(Event{Kind: EventResponseEnd}) }

func (c *Capture) OnThinkingChunk(text string, isStart, isEnd bool) {
	c.add(Event{Kind: EventThinkingChunk, Text: text, IsStart: isStart, IsEnd: isEnd})
}

// OnToolCall records a copy of params so later mutation by the caller does
// not leak into the record.
func (c *Capture) OnToolCall(name string, params map[string]any) {
	c.add(Event{Kind: EventToolCall, Name: name, Params: maps.Clone(params)})
}

func (c *Capture) OnToolResult(name string, success bool, summary, full string) {
	c.add(Event{Kind: EventToolResult, Name: name, Success: success, Summary: summary, Full: full})
}

func (c *Capture) OnFinalResult(success bool, message string, iterations int) {
	c.add(Event{Kind: EventFinalResult, Success: success, Text: message, Iterations: iterations})
}

func (c *Capture) OnComplete(elapsedMs int64, toolCount int) {
	c.add(Event{Kind: EventComplete, ElapsedMs: elapsedMs, ToolCount: toolCount})
}

func (c *Capture) OnError(message string) { c.add(Event{Kind: EventError, Text: message}) }

func (c *Capture) OnForceStop() { c.add(Event{Kind: EventForceStop}) }

var _ Renderer = (*Capture)(nil)
