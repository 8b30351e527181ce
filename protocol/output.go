package protocol

import (
	"encoding/json"
	"fmt"
)

// UserPrompt is the line written to the CLI to start a turn.
type UserPrompt struct {
	Type      MessageType     `json:"type"`
	SessionID string          `json:"session_id,omitempty"`
	Message   UserPromptInner `json:"message"`
}

// UserPromptInner is the "message" object of a UserPrompt.
type UserPromptInner struct {
	Role    string        `json:"role"`
	Content []TextContent `json:"content"`
}

// TextContent is a single text item of an outbound message.
type TextContent struct {
	Type BlockType `json:"type"`
	Text string    `json:"text"`
}

// NewUserPrompt builds a prompt line. sessionID may be empty before the CLI
// has announced one; the field is then omitted.
func NewUserPrompt(text, sessionID string) UserPrompt {
	return UserPrompt{
		Type:      MessageTypeUser,
		SessionID: sessionID,
		Message: UserPromptInner{
			Role:    "user",
			Content: []TextContent{{Type: BlockTypeText, Text: text}},
		},
	}
}

// Marshal serializes the prompt to a JSON line ready to write to the CLI.
func (m UserPrompt) Marshal() ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal UserPrompt: %w", err)
	}
	return b, nil
}

// ControlRequest is a control line we send to the CLI.
type ControlRequest struct {
	Type      MessageType        `json:"type"`
	RequestID string             `json:"request_id"`
	Request   ControlRequestBody `json:"request"`
}

// ControlRequestBody is the "request" object of a ControlRequest.
type ControlRequestBody struct {
	Subtype string `json:"subtype"`
}

// NewInterrupt constructs a control_request that interrupts the current turn.
func NewInterrupt(requestID string) ControlRequest {
	return ControlRequest{
		Type:      MessageTypeControlRequest,
		RequestID: requestID,
		Request:   ControlRequestBody{Subtype: "interrupt"},
	}
}

// Marshal serializes the control request to a JSON line ready to write to the CLI.
func (m ControlRequest) Marshal() ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal ControlRequest: %w", err)
	}
	return b, nil
}
