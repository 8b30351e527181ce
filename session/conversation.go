package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/bazelment/agentpipe/protocol"
	"github.com/bazelment/agentpipe/render"
	"github.com/bazelment/agentpipe/tracing"
)

// Outcome summarizes a finished prompt.
type Outcome struct {
	Result     string
	Subtype    string
	SessionID  string
	State      State
	Elapsed    time.Duration
	DurationMs int64
	CostUSD    float64
	NumTurns   int
	ToolCount  int
}

// Success reports whether the prompt ended with a non-error result.
func (o *Outcome) Success() bool {
	return o != nil && o.State == StateSucceeded
}

type lineSource interface {
	ReadLine(ctx context.Context) ([]byte, error)
}

// conversation holds what outlives a single turn: the tool tracker, the
// sticky session id, and whether leftovers of an interrupted turn are still
// in the pipe.
type conversation struct {
	tools        *toolTracker
	decoder      InputDecoder
	log          *slog.Logger
	sessionID    string
	previewLines int
	previewWidth int
	mu           sync.RWMutex
	discardStale bool
}

func newConversation(cfg Config) *conversation {
	return &conversation{
		tools:        newToolTracker(),
		decoder:      cfg.Decoder,
		log:          cfg.Logger,
		previewLines: cfg.PreviewLines,
		previewWidth: cfg.PreviewWidth,
	}
}

func (c *conversation) SessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}

func (c *conversation) captureSessionID(id string) {
	if id == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sessionID == "" {
		c.sessionID = id
		c.log.Info("session initialized", "session_id", id)
	}
}

// markStale makes the next turn skip lines up to and including the next
// result, which belongs to the interrupted turn.
func (c *conversation) markStale() {
	c.discardStale = true
}

// runTurn reads lines until a result arrives and returns its Outcome. Any
// read error, including io.EOF and context cancellation, is returned as-is
// for the caller to classify.
func (c *conversation) runTurn(ctx context.Context, src lineSource, turn *turnState, r render.Renderer) (*Outcome, error) {
	a := &assembler{
		turn:         turn,
		tools:        c.tools,
		decoder:      c.decoder,
		r:            r,
		log:          c.log,
		previewLines: c.previewLines,
		previewWidth: c.previewWidth,
	}

	for {
		line, err := src.ReadLine(ctx)
		if err != nil {
			return nil, err
		}

		msg, err := protocol.Decode(line)
		if err != nil {
			c.log.Debug("dropping unparseable line", "error", err, "line", truncateForLog(line))
			continue
		}

		if c.discardStale {
			if msg.Kind == protocol.KindResult {
				c.discardStale = false
				c.log.Debug("discarded result of interrupted turn", "subtype", msg.Subtype)
			}
			continue
		}

		switch msg.Kind {
		case protocol.KindSystem:
			if msg.IsInit() {
				c.captureSessionID(msg.SessionID)
			}
		case protocol.KindStreamEvent:
			a.handleStreamEvent(msg.StreamEvent)
		case protocol.KindAssistant:
			for _, name := range a.handleAssistant(msg.Content) {
				tracing.ToolCall(ctx, name)
			}
		case protocol.KindUser:
			a.handleToolResults(msg.Content)
		case protocol.KindResult:
			return a.finish(msg, c.SessionID()), nil
		default:
			c.log.Debug("ignoring message", "type", msg.Type)
		}
	}
}

func truncateForLog(line []byte) string {
	const limit = 200
	if len(line) <= limit {
		return string(line)
	}
	return string(line[:limit]) + "..."
}
