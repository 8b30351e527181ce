package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoType is returned by Decode for JSON objects without a string "type".
var ErrNoType = errors.New("line has no type field")

type wireMessage struct {
	Content json.RawMessage `json:"content"`
}

// Decode parses one line of CLI output. Each field is decoded independently
// so that an unexpected shape in one field does not reject the line.
func Decode(line []byte) (*LineMessage, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, errors.New("empty line")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(line, &fields); err != nil {
		return nil, fmt.Errorf("decode line: %w", err)
	}

	var typ string
	if !field(fields, "type", &typ) || typ == "" {
		return nil, ErrNoType
	}

	msg := &LineMessage{
		Raw:  json.RawMessage(append([]byte(nil), line...)),
		Type: MessageType(typ),
		Kind: KindOf(MessageType(typ)),
	}
	field(fields, "subtype", &msg.Subtype)
	field(fields, "session_id", &msg.SessionID)

	switch msg.Kind {
	case KindAssistant, KindUser:
		var inner wireMessage
		if field(fields, "message", &inner) {
			msg.Content = decodeContent(inner.Content)
		}
	case KindResult:
		msg.Result = resultText(fields["result"])
		field(fields, "is_error", &msg.IsError)
		field(fields, "num_turns", &msg.NumTurns)
		field(fields, "duration_ms", &msg.DurationMs)
		field(fields, "total_cost_usd", &msg.TotalCostUSD)
	case KindStreamEvent:
		raw, ok := fields["event"]
		if !ok || !present(raw) {
			return nil, errors.New("stream_event has no event")
		}
		ev, err := ParseStreamEvent(raw)
		if err != nil {
			return nil, err
		}
		msg.StreamEvent = ev
	}
	return msg, nil
}

// ParseLine is Decode without the reason. It reports false for any line that
// cannot be used; callers treat that as noise and keep reading.
func ParseLine(line []byte) (*LineMessage, bool) {
	msg, err := Decode(line)
	if err != nil {
		return nil, false
	}
	return msg, true
}

func field(fields map[string]json.RawMessage, name string, dst any) bool {
	raw, ok := fields[name]
	if !ok || !present(raw) {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

// resultText returns the result field as display text. Non-string results
// are kept as their compact JSON.
func resultText(raw json.RawMessage) string {
	if !present(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
