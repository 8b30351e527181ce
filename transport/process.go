// Package transport runs the agent CLI as a child process and exchanges
// newline-delimited JSON with it.
package transport

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bazelment/agentpipe/internal/ndjson"
	"github.com/bazelment/agentpipe/internal/procattr"
	"github.com/bazelment/agentpipe/protocol"
)

const (
	// DefaultCLIPath is looked up on $PATH when Config.Path is empty.
	DefaultCLIPath = "claude"

	DefaultStderrLines = 200
	DefaultGracePeriod = 500 * time.Millisecond

	lineBuffer = 64
)

// Config describes how to launch the CLI.
type Config struct {
	Env          map[string]string
	Logger       *slog.Logger
	Path         string
	Dir          string
	SideLogPath  string
	Args         []string
	StderrLines  int
	MaxLineBytes int
	// GracePeriod bounds each step of Close: the wait after closing stdin
	// and the wait after SIGTERM.
	GracePeriod time.Duration
}

// Process is a running CLI child. All methods are safe for concurrent use.
type Process struct {
	stdin   io.WriteCloser
	cmd     *exec.Cmd
	writer  *bufio.Writer
	lines   chan []byte
	killed  chan struct{}
	exited  chan struct{}
	stderr  *RingBuffer
	sideLog *sideLog
	log     *slog.Logger
	readErr error
	waitErr error

	grace     time.Duration
	exitCode  int
	writeMu   sync.Mutex
	killOnce  sync.Once
	closeOnce sync.Once
}

// Start spawns the CLI and begins draining its stdout and stderr. ctx only
// bounds startup; the process lives until Close or KillHard.
func Start(ctx context.Context, cfg Config) (*Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := cfg.Path
	if path == "" {
		path = DefaultCLIPath
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	stderrLines := cfg.StderrLines
	if stderrLines <= 0 {
		stderrLines = DefaultStderrLines
	}
	grace := cfg.GracePeriod
	if grace <= 0 {
		grace = DefaultGracePeriod
	}

	cmd := exec.Command(path, cfg.Args...)
	cmd.Env = mergeEnv(os.Environ(), cfg.Env)
	cmd.Dir = cfg.Dir
	procattr.Set(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, &ProcessError{Message: "failed to create stdin pipe", Cause: err}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &ProcessError{Message: "failed to create stdout pipe", Cause: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, &ProcessError{Message: "failed to create stderr pipe", Cause: err}
	}

	side, err := openSideLog(cfg.SideLogPath)
	if err != nil {
		return nil, &ProcessError{Message: "failed to open side log", Cause: err}
	}

	if err := cmd.Start(); err != nil {
		_ = side.Close()
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
			return nil, &CLINotFoundError{Path: path, Cause: err}
		}
		return nil, &ProcessError{Message: "failed to start CLI process", Cause: err}
	}

	p := &Process{
		cmd:      cmd,
		stdin:    stdin,
		writer:   bufio.NewWriter(stdin),
		lines:    make(chan []byte, lineBuffer),
		killed:   make(chan struct{}),
		exited:   make(chan struct{}),
		stderr:   NewRingBuffer(stderrLines),
		sideLog:  side,
		log:      logger.With("pid", cmd.Process.Pid),
		grace:    grace,
		exitCode: -1,
	}
	p.log.Debug("started CLI process", "path", path, "args", cfg.Args)

	var g errgroup.Group
	g.Go(func() error { return p.readStdout(ndjson.NewReaderSize(stdout, cfg.MaxLineBytes)) })
	g.Go(func() error { return p.drainStderr(stderr) })
	go p.reap(&g)

	return p, nil
}

func mergeEnv(base []string, extra map[string]string) []string {
	if len(extra) == 0 {
		return base
	}
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	env := append([]string(nil), base...)
	for _, k := range keys {
		env = append(env, k+"="+extra[k])
	}
	return env
}

func (p *Process) readStdout(r *ndjson.Reader) error {
	defer close(p.lines)
	for {
		line, err := r.ReadLine()
		if errors.Is(err, ndjson.ErrLineTooLong) {
			p.log.Warn("dropping oversized stdout line")
			continue
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				p.readErr = err
			}
			return nil
		}
		p.sideLog.record(protocol.DirectionReceived, line)
		select {
		case p.lines <- line:
		case <-p.killed:
			return nil
		}
	}
}

func (p *Process) drainStderr(r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		p.stderr.Add(line)
		p.log.Debug("cli stderr", "line", line)
	}
	// Keep draining past an overlong line so the child never blocks on a
	// full stderr pipe.
	_, _ = io.Copy(io.Discard, r)
	return nil
}

// reap waits for both pipes to drain before calling cmd.Wait, as os/exec
// requires.
func (p *Process) reap(g *errgroup.Group) {
	_ = g.Wait()
	err := p.cmd.Wait()
	if p.cmd.ProcessState != nil {
		p.exitCode = p.cmd.ProcessState.ExitCode()
	}
	p.waitErr = err
	_ = p.sideLog.Close()
	p.log.Info("CLI process exited", "exit_code", p.exitCode)
	close(p.exited)
}

// PID returns the child's process id.
func (p *Process) PID() int {
	return p.cmd.Process.Pid
}

// WriteLine writes line plus a newline to the child's stdin and flushes
// immediately.
func (p *Process) WriteLine(line []byte) error {
	if p == nil {
		return ErrNotStarted
	}
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	select {
	case <-p.killed:
		return ErrStopped
	default:
	}

	// Record first so the trace never shows a reply ahead of its request.
	p.sideLog.record(protocol.DirectionSent, line)
	if _, err := p.writer.Write(line); err != nil {
		return err
	}
	if err := p.writer.WriteByte('\n'); err != nil {
		return err
	}
	return p.writer.Flush()
}

// ReadLine returns the next stdout line. It returns io.EOF once stdout is
// closed and every buffered line has been consumed, ctx.Err() if ctx ends
// first, and ErrStopped after KillHard.
func (p *Process) ReadLine(ctx context.Context) ([]byte, error) {
	if p == nil {
		return nil, ErrNotStarted
	}
	select {
	case line, ok := <-p.lines:
		if !ok {
			if p.readErr != nil {
				return nil, p.readErr
			}
			return nil, io.EOF
		}
		return line, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.killed:
		return nil, ErrStopped
	}
}

// Wait blocks until the process exits and returns its exit code, or -1 if it
// was killed by a signal.
func (p *Process) Wait(ctx context.Context) (int, error) {
	if p == nil {
		return -1, ErrNotStarted
	}
	select {
	case <-p.exited:
		return p.exitCode, p.waitErr
	case <-ctx.Done():
		return -1, ctx.Err()
	}
}

// Exited is closed once the process has been reaped.
func (p *Process) Exited() <-chan struct{} {
	return p.exited
}

// StderrTail returns the most recent stderr lines.
func (p *Process) StderrTail() string {
	if p == nil {
		return ""
	}
	return p.stderr.String()
}

// KillHard terminates the whole process group immediately. It is idempotent
// and unblocks any pending ReadLine.
func (p *Process) KillHard() error {
	if p == nil {
		return nil
	}
	var err error
	p.killOnce.Do(func() {
		close(p.killed)
		select {
		case <-p.exited:
		default:
			err = procattr.KillGroup(p.cmd.Process)
		}
		_ = p.stdin.Close()
		_ = p.sideLog.Close()
		p.log.Debug("killed CLI process group")
	})
	return err
}

// Close shuts the process down gracefully: stdin is closed so the CLI can
// finish on its own, then SIGTERM, then KillHard. It returns once the process
// has exited or the last step has been taken.
func (p *Process) Close() error {
	if p == nil {
		return nil
	}
	p.closeOnce.Do(func() {
		p.writeMu.Lock()
		_ = p.stdin.Close()
		p.writeMu.Unlock()

		select {
		case <-p.exited:
			return
		case <-time.After(p.grace):
		}

		killed, err := procattr.Terminate(p.cmd.Process, p.exited, p.grace)
		if err != nil {
			p.log.Warn("failed to signal CLI process group", "error", err)
		}
		if killed {
			p.log.Debug("CLI ignored SIGTERM, escalated to SIGKILL")
		}
	})
	err := p.KillHard()

	select {
	case <-p.exited:
	case <-time.After(p.grace):
	}
	return err
}
