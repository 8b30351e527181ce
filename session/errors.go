package session

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common error conditions.
var (
	ErrAlreadyStarted = errors.New("session already started")
	ErrNotStarted     = errors.New("session not started")
	ErrClosed         = errors.New("session is closed")
	ErrPromptInFlight = errors.New("a prompt is already in progress")
	ErrProcessExited  = errors.New("process exited unexpectedly")
)

// ProcessExitedError reports that the CLI's stdout ended before the turn's
// result arrived.
type ProcessExitedError struct {
	Cause    error
	Stderr   string
	ExitCode int
}

func (e *ProcessExitedError) Error() string {
	msg := ErrProcessExited.Error()
	if e.ExitCode >= 0 {
		msg = fmt.Sprintf("%s (exit code %d)", msg, e.ExitCode)
	}
	if e.Stderr != "" {
		msg += ": " + lastLine(e.Stderr)
	}
	return msg
}

func (e *ProcessExitedError) Is(target error) bool {
	return target == ErrProcessExited
}

func (e *ProcessExitedError) Unwrap() error {
	return e.Cause
}

func lastLine(s string) string {
	s = strings.TrimRight(s, "\n")
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
