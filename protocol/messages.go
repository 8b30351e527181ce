// Package protocol models the newline-delimited JSON protocol spoken by the
// agent CLI when it runs with --input-format/--output-format stream-json.
package protocol

import "encoding/json"

// MessageType is the wire value of a line's "type" field.
type MessageType string

const (
	MessageTypeSystem         MessageType = "system"
	MessageTypeAssistant      MessageType = "assistant"
	MessageTypeUser           MessageType = "user"
	MessageTypeResult         MessageType = "result"
	MessageTypeStreamEvent    MessageType = "stream_event"
	MessageTypeControlRequest MessageType = "control_request"
)

// Kind classifies an inbound line. Lines whose type is not recognized map to
// KindUnknown rather than failing to parse.
type Kind int

const (
	KindUnknown Kind = iota
	KindSystem
	KindAssistant
	KindUser
	KindResult
	KindStreamEvent
)

var kindNames = [...]string{
	KindUnknown:     "unknown",
	KindSystem:      "system",
	KindAssistant:   "assistant",
	KindUser:        "user",
	KindResult:      "result",
	KindStreamEvent: "stream_event",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// KindOf maps a wire type to its Kind.
func KindOf(t MessageType) Kind {
	switch t {
	case MessageTypeSystem:
		return KindSystem
	case MessageTypeAssistant:
		return KindAssistant
	case MessageTypeUser:
		return KindUser
	case MessageTypeResult:
		return KindResult
	case MessageTypeStreamEvent:
		return KindStreamEvent
	default:
		return KindUnknown
	}
}

// SubtypeInit is the system subtype that carries the session id.
const SubtypeInit = "init"

// LineMessage is one parsed line of CLI output. Only the fields relevant to
// the line's Kind are populated; Raw always holds the original bytes.
type LineMessage struct {
	StreamEvent  *StreamEvent
	Type         MessageType
	Subtype      string
	SessionID    string
	Result       string
	Raw          json.RawMessage
	Content      []ContentBlock
	Kind         Kind
	NumTurns     int
	DurationMs   int64
	TotalCostUSD float64
	IsError      bool
}

// IsInit reports whether the line is the system/init handshake.
func (m *LineMessage) IsInit() bool {
	return m.Kind == KindSystem && m.Subtype == SubtypeInit
}
