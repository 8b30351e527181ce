package protocol

import (
	"encoding/json"
	"fmt"
)

// StreamEventType discriminates between stream event kinds.
type StreamEventType string

const (
	StreamEventTypeMessageStart      StreamEventType = "message_start"
	StreamEventTypeContentBlockStart StreamEventType = "content_block_start"
	StreamEventTypeContentBlockDelta StreamEventType = "content_block_delta"
	StreamEventTypeContentBlockStop  StreamEventType = "content_block_stop"
	StreamEventTypeMessageDelta      StreamEventType = "message_delta"
	StreamEventTypeMessageStop       StreamEventType = "message_stop"
)

// DeltaType discriminates between content_block_delta payloads.
type DeltaType string

const (
	DeltaTypeText      DeltaType = "text_delta"
	DeltaTypeThinking  DeltaType = "thinking_delta"
	DeltaTypeInputJSON DeltaType = "input_json_delta"
)

// NoIndex is the StreamEvent.Index of events that carry no block index.
const NoIndex = -1

// StreamEvent is the inner "event" object of a stream_event line.
type StreamEvent struct {
	BlockStart *ContentBlock
	Delta      *Delta
	Type       StreamEventType
	Index      int
}

// Delta is the payload of a content_block_delta event.
type Delta struct {
	Type        DeltaType `json:"type"`
	Text        string    `json:"text,omitempty"`
	Thinking    string    `json:"thinking,omitempty"`
	PartialJSON string    `json:"partial_json,omitempty"`
}

type wireStreamEvent struct {
	Index        *int            `json:"index"`
	ContentBlock *ContentBlock   `json:"content_block"`
	Type         StreamEventType `json:"type"`
	Delta        json.RawMessage `json:"delta"`
}

// ParseStreamEvent decodes the "event" object of a stream_event line.
// Event types this package does not model still decode; only their Type is
// filled in.
func ParseStreamEvent(data json.RawMessage) (*StreamEvent, error) {
	var w wireStreamEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode stream event: %w", err)
	}
	if w.Type == "" {
		return nil, fmt.Errorf("stream event has no type")
	}

	ev := &StreamEvent{Type: w.Type, Index: NoIndex}
	if w.Index != nil {
		ev.Index = *w.Index
	}

	switch w.Type {
	case StreamEventTypeContentBlockStart:
		ev.BlockStart = w.ContentBlock
	case StreamEventTypeContentBlockDelta:
		if present(w.Delta) {
			var d Delta
			if err := json.Unmarshal(w.Delta, &d); err != nil {
				return nil, fmt.Errorf("decode content block delta: %w", err)
			}
			ev.Delta = &d
		}
	}
	return ev, nil
}
