package transport

import (
	"errors"
	"fmt"
)

var (
	ErrNotStarted = errors.New("process not started")
	ErrStopped    = errors.New("process stopped")
)

// ProcessError is a failure to set up or start the CLI process.
type ProcessError struct {
	Cause   error
	Message string
}

func (e *ProcessError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("process error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("process error: %s", e.Message)
}

func (e *ProcessError) Unwrap() error {
	return e.Cause
}

// CLINotFoundError indicates the CLI binary could not be located.
type CLINotFoundError struct {
	Cause error
	Path  string
}

func (e *CLINotFoundError) Error() string {
	return fmt.Sprintf("CLI binary not found at %q: %v", e.Path, e.Cause)
}

func (e *CLINotFoundError) Unwrap() error {
	return e.Cause
}
