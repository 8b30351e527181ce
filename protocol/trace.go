package protocol

import (
	"encoding/json"
	"time"
)

// Trace directions.
const (
	DirectionSent     = "sent"
	DirectionReceived = "received"
)

// TraceEntry is one record of a side log. Trace files wrap raw protocol lines
// with metadata so they can be inspected or replayed later.
type TraceEntry struct {
	ID         string          `json:"id"`
	Timestamp  string          `json:"timestamp"`
	Direction  string          `json:"direction"`
	Message    json.RawMessage `json:"message"`
	TurnNumber int             `json:"turnNumber,omitempty"`
}

// NewTraceEntry wraps a raw line. Lines that are not valid JSON are stored as
// a JSON string so the trace file itself stays valid JSONL.
func NewTraceEntry(id, direction string, line []byte, at time.Time) TraceEntry {
	msg := json.RawMessage(append([]byte(nil), line...))
	if !json.Valid(msg) {
		quoted, _ := json.Marshal(string(line))
		msg = quoted
	}
	return TraceEntry{
		ID:        id,
		Timestamp: at.UTC().Format(time.RFC3339Nano),
		Direction: direction,
		Message:   msg,
	}
}

// ParseTraceEntry extracts the wrapped line and its direction. A line that is
// not a TraceEntry is treated as a raw received protocol line, so captures of
// plain CLI stdout replay too.
func ParseTraceEntry(line []byte) (raw []byte, direction string) {
	var entry TraceEntry
	if err := json.Unmarshal(line, &entry); err != nil || len(entry.Message) == 0 || entry.Direction == "" {
		return line, DirectionReceived
	}
	return entry.Message, entry.Direction
}
