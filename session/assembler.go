package session

import (
	"log/slog"
	"strings"
	"time"

	"github.com/bazelment/agentpipe/protocol"
	"github.com/bazelment/agentpipe/render"
	"github.com/bazelment/agentpipe/toolmap"
)

// assembler turns the line stream of one turn into Renderer calls.
//
// Text and thinking are rendered from stream deltas only. Tool calls are
// rendered from the complete assistant message, never from stream events.
type assembler struct {
	turn         *turnState
	tools        *toolTracker
	decoder      InputDecoder
	r            render.Renderer
	log          *slog.Logger
	previewLines int
	previewWidth int
}

func (a *assembler) handleStreamEvent(ev *protocol.StreamEvent) {
	if ev == nil {
		return
	}
	switch ev.Type {
	case protocol.StreamEventTypeContentBlockStart:
		a.blockStart(ev)
	case protocol.StreamEventTypeContentBlockDelta:
		a.blockDelta(ev)
	case protocol.StreamEventTypeContentBlockStop:
		a.closeThinking()
		a.turn.inTextBlock = false
	}
}

func (a *assembler) blockStart(ev *protocol.StreamEvent) {
	block := ev.BlockStart
	if block == nil {
		return
	}
	switch block.Type {
	case protocol.BlockTypeThinking:
		a.turn.inThinkingBlock = true
		a.r.OnThinkingChunk("", true, false)
	case protocol.BlockTypeText:
		a.turn.inTextBlock = true
	case protocol.BlockTypeToolUse:
		a.tools.recordName(block.ID, block.Name)
		a.turn.pendingToolArgs[ev.Index] = &strings.Builder{}
		if block.ID != "" {
			a.turn.indexByID[block.ID] = ev.Index
		}
	}
}

func (a *assembler) blockDelta(ev *protocol.StreamEvent) {
	d := ev.Delta
	if d == nil {
		return
	}
	switch d.Type {
	case protocol.DeltaTypeThinking:
		if d.Thinking == "" {
			return
		}
		a.r.OnThinkingChunk(d.Thinking, false, false)
		a.turn.hasEmittedAnyChunk = true
	case protocol.DeltaTypeText:
		if d.Text == "" {
			return
		}
		a.closeThinking()
		a.r.OnTextChunk(d.Text)
		a.turn.hasEmittedAnyChunk = true
	case protocol.DeltaTypeInputJSON:
		b, ok := a.turn.pendingToolArgs[ev.Index]
		if !ok {
			b = &strings.Builder{}
			a.turn.pendingToolArgs[ev.Index] = b
		}
		b.WriteString(d.PartialJSON)
	}
}

func (a *assembler) closeThinking() {
	if !a.turn.inThinkingBlock {
		return
	}
	a.turn.inThinkingBlock = false
	a.r.OnThinkingChunk("", false, true)
}

// handleAssistant renders each tool_use block of a complete assistant
// message once per tool id and returns the names it rendered. Text and
// thinking blocks were already streamed.
func (a *assembler) handleAssistant(blocks []protocol.ContentBlock) []string {
	var rendered []string
	for _, block := range blocks {
		if block.Type != protocol.BlockTypeToolUse {
			continue
		}
		name := block.Name
		if name == "" {
			name = a.tools.name(block.ID)
		} else {
			a.tools.recordName(block.ID, name)
		}

		params := a.decodeInput(block)
		a.tools.recordInput(block.ID, params)

		if !a.tools.markRendered(block.ID) {
			continue
		}
		display := toolmap.MapToolName(name)
		a.r.OnToolCall(display, toolmap.MapParams(name, params))
		a.turn.toolCount++
		rendered = append(rendered, display)
	}
	return rendered
}

func (a *assembler) decodeInput(block protocol.ContentBlock) map[string]any {
	raw := block.Input
	if !block.HasInput() {
		streamed, ok := a.turn.pendingArgs(block.ID)
		if !ok {
			return map[string]any{}
		}
		raw = []byte(streamed)
	}
	params, err := a.decoder.DecodeInput(raw)
	if err != nil {
		a.log.Warn("failed to decode tool input", "tool_id", block.ID, "tool", block.Name, "error", err)
		return map[string]any{}
	}
	return params
}

// handleToolResults renders every tool_result block of a user message.
func (a *assembler) handleToolResults(blocks []protocol.ContentBlock) {
	for _, block := range blocks {
		if block.Type != protocol.BlockTypeToolResult {
			continue
		}
		name := toolmap.MapToolName(a.tools.name(block.ToolUseID))
		full := toolmap.ResultText(block.ResultPayload)
		summary := toolmap.Preview(full, a.previewLines, a.previewWidth)
		a.r.OnToolResult(name, !block.Failed(), summary, full)
	}
}

// finish emits the closing events for a result line and builds the Outcome.
func (a *assembler) finish(msg *protocol.LineMessage, sessionID string) *Outcome {
	if !a.turn.hasEmittedAnyChunk && msg.Result != "" {
		a.r.OnTextChunk(msg.Result)
	}
	a.closeThinking()
	a.turn.inTextBlock = false

	elapsed := time.Since(a.turn.started)
	a.r.OnResponseEnd()
	a.r.OnFinalResult(!msg.IsError, msg.Result, msg.NumTurns)
	a.r.OnComplete(elapsed.Milliseconds(), a.turn.toolCount)

	state := StateSucceeded
	if msg.IsError {
		state = StateFailed
	}
	return &Outcome{
		State:      state,
		Result:     msg.Result,
		Subtype:    msg.Subtype,
		SessionID:  sessionID,
		NumTurns:   msg.NumTurns,
		ToolCount:  a.turn.toolCount,
		Elapsed:    elapsed,
		DurationMs: msg.DurationMs,
		CostUSD:    msg.TotalCostUSD,
	}
}
