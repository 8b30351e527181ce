package session

import "sync"

// State is the lifecycle state of a Driver.
type State int

const (
	StateIdle State = iota
	StateSending
	StateStreaming
	StateSucceeded
	StateFailed
	StateCancelled
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateStreaming:
		return "streaming"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Terminal reports whether s ends a prompt.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateCancelled
}

// stateManager guards transitions between States.
type stateManager struct {
	mu    sync.RWMutex
	state State
}

func newStateManager() *stateManager {
	return &stateManager{state: StateIdle}
}

func (m *stateManager) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// BeginPrompt moves to Sending from Idle or any terminal state.
func (m *stateManager) BeginPrompt() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case m.state == StateClosed:
		return ErrClosed
	case m.state == StateIdle || m.state.Terminal():
		m.state = StateSending
		return nil
	default:
		return ErrPromptInFlight
	}
}

func (m *stateManager) SetStreaming() {
	m.set(StateSending, StateStreaming)
}

// Finish records the prompt's terminal state unless the driver was closed
// in the meantime.
func (m *stateManager) Finish(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateClosed {
		m.state = s
	}
}

func (m *stateManager) SetClosed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateClosed
}

func (m *stateManager) set(from, to State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == from {
		m.state = to
	}
}
