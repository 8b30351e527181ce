package session

import (
	"strings"
	"sync"
	"time"

	"github.com/bazelment/agentpipe/toolmap"
)

// turnState is reset at the start of every prompt.
type turnState struct {
	started time.Time
	// pendingToolArgs accumulates input_json_delta fragments per block index.
	pendingToolArgs map[int]*strings.Builder
	// indexByID remembers which block index a tool_use id streamed on.
	indexByID          map[string]int
	toolCount          int
	inThinkingBlock    bool
	inTextBlock        bool
	hasEmittedAnyChunk bool
}

func newTurnState() *turnState {
	return &turnState{
		started:         time.Now(),
		pendingToolArgs: make(map[int]*strings.Builder),
		indexByID:       make(map[string]int),
	}
}

// pendingArgs returns the streamed input fragments for a tool id, if any.
func (t *turnState) pendingArgs(id string) (string, bool) {
	idx, ok := t.indexByID[id]
	if !ok {
		return "", false
	}
	b, ok := t.pendingToolArgs[idx]
	if !ok || b.Len() == 0 {
		return "", false
	}
	return b.String(), true
}

// toolTracker lives as long as the CLI process. Its maps only grow: a tool
// id seen in one turn can be answered by a result in a later one.
type toolTracker struct {
	nameByID  map[string]string
	inputByID map[string]map[string]any
	rendered  map[string]struct{}
	mu        sync.Mutex
}

func newToolTracker() *toolTracker {
	return &toolTracker{
		nameByID:  make(map[string]string),
		inputByID: make(map[string]map[string]any),
		rendered:  make(map[string]struct{}),
	}
}

func (t *toolTracker) recordName(id, name string) {
	if id == "" || name == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nameByID[id] = name
}

// name returns the upstream tool name for id, or toolmap.Unknown.
func (t *toolTracker) name(id string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if name, ok := t.nameByID[id]; ok {
		return name
	}
	return toolmap.Unknown
}

func (t *toolTracker) recordInput(id string, input map[string]any) {
	if id == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inputByID[id] = input
}

// markRendered reports whether id had not been rendered before. An empty id
// cannot be deduplicated and is always reported as new.
func (t *toolTracker) markRendered(id string) bool {
	if id == "" {
		return true
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rendered[id]; ok {
		return false
	}
	t.rendered[id] = struct{}{}
	return true
}

func (t *toolTracker) known() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.nameByID)
}
