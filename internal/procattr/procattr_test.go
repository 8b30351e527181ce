package procattr

import (
	"os/exec"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startInGroup(t *testing.T, name string, args ...string) (*exec.Cmd, <-chan struct{}) {
	t.Helper()
	cmd := exec.Command(name, args...)
	Set(cmd)
	require.NoError(t, cmd.Start())
	exited := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(exited)
	}()
	return cmd, exited
}

func TestSet_CreatesProcessGroup(t *testing.T) {
	t.Parallel()
	cmd := exec.Command("true")
	require.Nil(t, cmd.SysProcAttr)

	Set(cmd)

	require.NotNil(t, cmd.SysProcAttr)
	assert.True(t, cmd.SysProcAttr.Setpgid)
}

func TestNilProcess(t *testing.T) {
	t.Parallel()
	assert.NoError(t, SignalGroup(nil, syscall.SIGTERM))
	assert.NoError(t, KillGroup(nil))
	killed, err := Terminate(nil, nil, time.Millisecond)
	assert.NoError(t, err)
	assert.False(t, killed)
}

func TestKillGroup_ReachesGrandchildren(t *testing.T) {
	t.Parallel()
	cmd, exited := startInGroup(t, "/bin/sh", "-c", "sleep 60 & wait")

	require.NoError(t, KillGroup(cmd.Process))

	select {
	case <-exited:
	case <-time.After(5 * time.Second):
		t.Fatal("process group did not exit after SIGKILL")
	}
}

func TestKillGroup_AlreadyExited(t *testing.T) {
	t.Parallel()
	cmd, exited := startInGroup(t, "true")
	<-exited
	assert.NoError(t, KillGroup(cmd.Process))
}

func TestTerminate_GracefulExit(t *testing.T) {
	t.Parallel()
	cmd, exited := startInGroup(t, "sleep", "60")

	killed, err := Terminate(cmd.Process, exited, 5*time.Second)
	require.NoError(t, err)
	assert.False(t, killed, "sleep exits on SIGTERM")
}

func TestTerminate_EscalatesWhenIgnored(t *testing.T) {
	t.Parallel()
	cmd, exited := startInGroup(t, "/bin/sh", "-c", "trap '' TERM; while :; do sleep 0.05; done")
	// Give the shell a moment to install its trap.
	time.Sleep(100 * time.Millisecond)

	killed, err := Terminate(cmd.Process, exited, 200*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, killed)

	select {
	case <-exited:
	case <-time.After(5 * time.Second):
		t.Fatal("process did not exit after escalation")
	}
}
