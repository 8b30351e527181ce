package transport

import (
	"strings"
	"sync"
)

// RingBuffer keeps the last N lines written to it.
type RingBuffer struct {
	lines []string
	next  int
	full  bool
	mu    sync.Mutex
}

// NewRingBuffer returns a buffer holding up to size lines. size must be
// positive.
func NewRingBuffer(size int) *RingBuffer {
	if size <= 0 {
		size = 1
	}
	return &RingBuffer{lines: make([]string, size)}
}

// Add appends a line, evicting the oldest when full.
func (b *RingBuffer) Add(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines[b.next] = line
	b.next = (b.next + 1) % len(b.lines)
	if b.next == 0 {
		b.full = true
	}
}

// Lines returns the retained lines, oldest first.
func (b *RingBuffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.full {
		return append([]string(nil), b.lines[:b.next]...)
	}
	out := make([]string, 0, len(b.lines))
	out = append(out, b.lines[b.next:]...)
	return append(out, b.lines[:b.next]...)
}

// String joins the retained lines with newlines.
func (b *RingBuffer) String() string {
	return strings.Join(b.Lines(), "\n")
}
