package transport

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/bazelment/agentpipe/protocol"
)

// sideLog appends every raw line crossing the pipe to a JSONL trace file.
// A nil *sideLog is valid and records nothing.
type sideLog struct {
	f      *os.File
	enc    *json.Encoder
	err    error
	seq    int
	mu     sync.Mutex
	closed bool
}

func openSideLog(path string) (*sideLog, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open side log: %w", err)
	}
	return &sideLog{f: f, enc: json.NewEncoder(f)}, nil
}

func (l *sideLog) record(direction string, line []byte) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || l.err != nil {
		return
	}
	l.seq++
	entry := protocol.NewTraceEntry(strconv.Itoa(l.seq), direction, line, time.Now())
	l.err = l.enc.Encode(entry)
}

// Close is idempotent.
func (l *sideLog) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.f.Close()
}
