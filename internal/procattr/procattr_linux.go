//go:build linux

// Package procattr configures agent subprocesses so that they, and anything
// they spawn, can be signalled as one process group.
package procattr

import (
	"os/exec"
	"syscall"
)

// Set puts the child in its own process group and asks the kernel to send it
// SIGTERM if this process dies first.
func Set(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: syscall.SIGTERM,
	}
}
