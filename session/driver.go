// Package session drives one agent CLI process through a sequence of
// prompts and turns its stream-json output into Renderer calls.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/bazelment/agentpipe/protocol"
	"github.com/bazelment/agentpipe/render"
	"github.com/bazelment/agentpipe/tracing"
	"github.com/bazelment/agentpipe/transport"
)

const tracerName = "github.com/bazelment/agentpipe/session"

// Driver owns one CLI process. Prompts are answered one at a time; Stop and
// Kill may be called from any goroutine.
type Driver struct {
	transport Transport
	conv      *conversation
	state     *stateManager
	tracer    trace.Tracer
	log       *slog.Logger
	config    Config
	mu        sync.Mutex
	closed    bool
}

// New creates a Driver. Call Start before the first prompt.
func New(opts ...Option) *Driver {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = tracing.Tracer(tracerName)
	}
	return &Driver{
		config: cfg,
		conv:   newConversation(cfg),
		state:  newStateManager(),
		tracer: tracer,
		log:    cfg.Logger,
	}
}

// Start launches the CLI process.
func (d *Driver) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}
	if d.transport != nil {
		return ErrAlreadyStarted
	}

	t, err := d.config.Launcher(ctx, transport.Config{
		Path:        d.config.CLIPath,
		Args:        transport.BuildArgs(d.config.Launch),
		Dir:         d.config.WorkDir,
		Env:         d.config.Env,
		SideLogPath: d.config.SideLogPath,
		StderrLines: d.config.StderrLines,
		Logger:      d.log,
	})
	if err != nil {
		return fmt.Errorf("start CLI: %w", err)
	}
	d.transport = t
	return nil
}

func (d *Driver) activeTransport() (Transport, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrClosed
	}
	if d.transport == nil {
		return nil, ErrNotStarted
	}
	return d.transport, nil
}

func (d *Driver) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// SessionID returns the id announced by the CLI, or "" before the first
// system/init line.
func (d *Driver) SessionID() string {
	return d.conv.SessionID()
}

// State returns the current lifecycle state.
func (d *Driver) State() State {
	return d.state.Current()
}

// KnownTools returns how many distinct tool ids this process has reported.
func (d *Driver) KnownTools() int {
	return d.conv.tools.known()
}

// PromptAndRespond sends prompt and renders the response until the turn's
// result arrives.
//
// A result flagged as an error yields an Outcome in StateFailed and a nil
// error. Cancelling ctx interrupts the turn and yields StateCancelled, also
// with a nil error. A Go error is returned only when no Outcome can be
// produced, such as the process exiting mid-turn.
func (d *Driver) PromptAndRespond(ctx context.Context, prompt string, r render.Renderer) (*Outcome, error) {
	if r == nil {
		r = render.NoOp{}
	}
	t, err := d.activeTransport()
	if err != nil {
		return nil, err
	}
	if err := d.state.BeginPrompt(); err != nil {
		return nil, err
	}

	ctx, span := tracing.StartPrompt(ctx, d.tracer, d.SessionID(), len(prompt))
	turn := newTurnState()

	out, err := d.exchange(ctx, t, turn, prompt, r)

	res := tracing.PromptResult{Err: err, SessionID: d.SessionID(), ToolCount: turn.toolCount}
	if out != nil {
		d.state.Finish(out.State)
		res.State = out.State.String()
		res.NumTurns = out.NumTurns
		res.DurationMs = out.DurationMs
		res.CostUSD = out.CostUSD
	} else {
		d.state.Finish(StateFailed)
		res.State = StateFailed.String()
	}
	tracing.EndPrompt(span, res)
	return out, err
}

func (d *Driver) exchange(ctx context.Context, t Transport, turn *turnState, prompt string, r render.Renderer) (*Outcome, error) {
	line, err := protocol.NewUserPrompt(prompt, d.SessionID()).Marshal()
	if err == nil {
		err = t.WriteLine(line)
	}
	if err != nil {
		err = fmt.Errorf("send prompt: %w", err)
		r.OnError(err.Error())
		return nil, err
	}

	r.OnResponseStart()
	d.state.SetStreaming()

	out, err := d.conv.runTurn(ctx, t, turn, r)
	if err == nil {
		return out, nil
	}
	return d.abort(ctx, t, turn, r, err)
}

// abort classifies a read failure that ended a turn before its result.
func (d *Driver) abort(ctx context.Context, t Transport, turn *turnState, r render.Renderer, err error) (*Outcome, error) {
	switch {
	case ctx.Err() != nil:
		d.interrupt(t)
		r.OnForceStop()
		return d.cancelled(turn), nil

	case d.isClosed() || errors.Is(err, transport.ErrStopped):
		r.OnForceStop()
		return d.cancelled(turn), nil

	case errors.Is(err, io.EOF):
		waitCtx, cancel := context.WithTimeout(context.Background(), d.config.ExitWait)
		code, _ := t.Wait(waitCtx)
		cancel()
		exitErr := &ProcessExitedError{ExitCode: code, Stderr: t.StderrTail()}
		d.log.Error("CLI process exited mid-turn", "exit_code", code, "stderr", exitErr.Stderr)
		r.OnError(exitErr.Error())
		return nil, exitErr

	default:
		err = fmt.Errorf("read from CLI: %w", err)
		r.OnError(err.Error())
		return nil, err
	}
}

// interrupt asks the CLI to abandon the current turn. The turn's remaining
// lines, up to its result, are skipped by the next prompt.
func (d *Driver) interrupt(t Transport) {
	d.conv.markStale()
	line, err := protocol.NewInterrupt(uuid.NewString()).Marshal()
	if err == nil {
		err = t.WriteLine(line)
	}
	if err != nil {
		d.log.Warn("failed to send interrupt", "error", err)
	}
}

func (d *Driver) cancelled(turn *turnState) *Outcome {
	return &Outcome{
		State:     StateCancelled,
		SessionID: d.SessionID(),
		ToolCount: turn.toolCount,
		Elapsed:   time.Since(turn.started),
	}
}

// Stop shuts the CLI down gracefully: stdin is closed, then the process is
// signalled if it lingers. An in-flight prompt ends as cancelled. Stop is
// idempotent.
func (d *Driver) Stop() error {
	t := d.close()
	if t == nil {
		return nil
	}
	return t.Close()
}

// Kill terminates the CLI immediately, including while a Stop is still
// waiting for the process. It is idempotent.
func (d *Driver) Kill() error {
	d.close()
	d.mu.Lock()
	t := d.transport
	d.mu.Unlock()
	if t == nil {
		return nil
	}
	return t.KillHard()
}

// close marks the driver closed and returns the transport to shut down, or
// nil if there is nothing left to do.
func (d *Driver) close() Transport {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	d.state.SetClosed()
	return d.transport
}
