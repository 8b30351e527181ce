package protocol

import (
	"bytes"
	"encoding/json"
)

// BlockType discriminates between content block kinds.
type BlockType string

const (
	BlockTypeText       BlockType = "text"
	BlockTypeThinking   BlockType = "thinking"
	BlockTypeToolUse    BlockType = "tool_use"
	BlockTypeToolResult BlockType = "tool_result"
)

// ContentBlock is one element of an assistant or user message's content
// array. It is a flat union: which fields are set depends on Type.
type ContentBlock struct {
	IsError       *bool           `json:"is_error,omitempty"`
	Type          BlockType       `json:"type"`
	Text          string          `json:"text,omitempty"`
	Thinking      string          `json:"thinking,omitempty"`
	ID            string          `json:"id,omitempty"`
	Name          string          `json:"name,omitempty"`
	ToolUseID     string          `json:"tool_use_id,omitempty"`
	Input         json.RawMessage `json:"input,omitempty"`
	ResultPayload json.RawMessage `json:"content,omitempty"`
}

// HasInput reports whether the block carries a non-null tool input.
func (b ContentBlock) HasInput() bool {
	return present(b.Input)
}

// Failed reports whether a tool_result block is explicitly marked as an error.
// An absent is_error means success.
func (b ContentBlock) Failed() bool {
	return b.IsError != nil && *b.IsError
}

func present(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// decodeContent accepts either a bare string (treated as a single text block)
// or an array of blocks. Array elements that fail to decode are dropped so a
// single odd block never costs the whole message.
func decodeContent(raw json.RawMessage) []ContentBlock {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		return []ContentBlock{{Type: BlockTypeText, Text: s}}
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil
		}
		blocks := make([]ContentBlock, 0, len(items))
		for _, item := range items {
			var b ContentBlock
			if err := json.Unmarshal(item, &b); err != nil {
				continue
			}
			blocks = append(blocks, b)
		}
		return blocks
	default:
		return nil
	}
}
