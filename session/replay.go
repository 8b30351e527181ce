package session

import (
	"context"
	"errors"
	"io"

	"github.com/bazelment/agentpipe/internal/ndjson"
	"github.com/bazelment/agentpipe/protocol"
	"github.com/bazelment/agentpipe/render"
)

// ErrIncompleteTurn is returned by Replay when the trace ends after a turn
// started but before its result.
var ErrIncompleteTurn = errors.New("trace ended before the turn's result")

// traceSource yields the received lines of a trace file, unwrapping
// TraceEntry records and skipping lines we sent.
type traceSource struct {
	r       *ndjson.Reader
	pending []byte
}

func (s *traceSource) ReadLine(ctx context.Context) ([]byte, error) {
	if s.pending != nil {
		line := s.pending
		s.pending = nil
		return line, nil
	}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line, err := s.r.ReadLine()
		if errors.Is(err, ndjson.ErrLineTooLong) {
			continue
		}
		if err != nil {
			return nil, err
		}
		raw, dir := protocol.ParseTraceEntry(line)
		if dir != protocol.DirectionReceived {
			continue
		}
		return raw, nil
	}
}

// more reports whether another received line exists, keeping it for the
// next ReadLine.
func (s *traceSource) more(ctx context.Context) (bool, error) {
	if s.pending != nil {
		return true, nil
	}
	line, err := s.ReadLine(ctx)
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	s.pending = line
	return true, nil
}

// Replay renders a recorded trace, as written by the side log, through the
// same parsing and assembly path a live session uses. Each result in the
// trace ends one turn. Options that configure the process are ignored.
func Replay(ctx context.Context, in io.Reader, r render.Renderer, opts ...Option) ([]*Outcome, error) {
	if r == nil {
		r = render.NoOp{}
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	conv := newConversation(cfg)
	src := &traceSource{r: ndjson.NewReader(in)}

	var outcomes []*Outcome
	for {
		ok, err := src.more(ctx)
		if err != nil {
			return outcomes, err
		}
		if !ok {
			return outcomes, nil
		}

		r.OnResponseStart()
		out, err := conv.runTurn(ctx, src, newTurnState(), r)
		if errors.Is(err, io.EOF) {
			r.OnResponseEnd()
			return outcomes, ErrIncompleteTurn
		}
		if err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, out)
	}
}
