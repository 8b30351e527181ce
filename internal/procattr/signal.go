package procattr

import (
	"errors"
	"os"
	"syscall"
	"time"
)

// SignalGroup delivers sig to every process in p's group. A group that has
// already exited is not an error.
func SignalGroup(p *os.Process, sig syscall.Signal) error {
	if p == nil {
		return nil
	}
	if err := syscall.Kill(-p.Pid, sig); err != nil && !errors.Is(err, syscall.ESRCH) {
		return err
	}
	return nil
}

// KillGroup sends SIGKILL to p's process group.
func KillGroup(p *os.Process) error {
	return SignalGroup(p, syscall.SIGKILL)
}

// Terminate asks p's group to exit with SIGTERM and escalates to SIGKILL if
// exited is not closed within grace. It reports whether escalation was needed.
func Terminate(p *os.Process, exited <-chan struct{}, grace time.Duration) (killed bool, err error) {
	if p == nil {
		return false, nil
	}
	if err := SignalGroup(p, syscall.SIGTERM); err != nil {
		return false, err
	}
	select {
	case <-exited:
		return false, nil
	case <-time.After(grace):
	}
	return true, KillGroup(p)
}
