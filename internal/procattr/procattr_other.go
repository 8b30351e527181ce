//go:build !linux

// Package procattr configures agent subprocesses so that they, and anything
// they spawn, can be signalled as one process group.
package procattr

import (
	"os/exec"
	"syscall"
)

// Set puts the child in its own process group. Pdeathsig is Linux-only, so
// the parent must clean up the group itself.
func Set(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}
