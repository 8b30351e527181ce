package session

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bazelment/agentpipe/transport"
)

// fakeTransport is an in-memory Transport. Lines queued with push are
// returned by ReadLine; every WriteLine is recorded and may trigger respond.
type fakeTransport struct {
	lines    chan []byte
	killed   chan struct{}
	respond  func(sent []byte) []string
	writeErr error
	stderr   string
	sent     [][]byte
	exitCode int
	mu       sync.Mutex
	killOnce sync.Once
	eofOnce  sync.Once
	closed   bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		lines:    make(chan []byte, 1024),
		killed:   make(chan struct{}),
		exitCode: -1,
	}
}

func (f *fakeTransport) push(lines ...string) {
	for _, l := range lines {
		f.lines <- []byte(l)
	}
}

// eof simulates stdout closing.
func (f *fakeTransport) eof() {
	f.eofOnce.Do(func() { close(f.lines) })
}

func (f *fakeTransport) WriteLine(line []byte) error {
	f.mu.Lock()
	if f.writeErr != nil {
		f.mu.Unlock()
		return f.writeErr
	}
	f.sent = append(f.sent, append([]byte(nil), line...))
	respond := f.respond
	f.mu.Unlock()
	if respond != nil {
		f.push(respond(line)...)
	}
	return nil
}

func (f *fakeTransport) ReadLine(ctx context.Context) ([]byte, error) {
	select {
	case line, ok := <-f.lines:
		if !ok {
			return nil, io.EOF
		}
		return line, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-f.killed:
		return nil, transport.ErrStopped
	}
}

func (f *fakeTransport) Wait(ctx context.Context) (int, error) {
	return f.exitCode, nil
}

func (f *fakeTransport) StderrTail() string {
	return f.stderr
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	f.eof()
	return nil
}

func (f *fakeTransport) KillHard() error {
	f.killOnce.Do(func() { close(f.killed) })
	return nil
}

func (f *fakeTransport) sentLines() []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]map[string]any, 0, len(f.sent))
	for _, line := range f.sent {
		var m map[string]any
		if err := json.Unmarshal(line, &m); err == nil {
			out = append(out, m)
		}
	}
	return out
}

// startDriver returns a started Driver wired to a fresh fake transport.
func startDriver(t *testing.T, opts ...Option) (*Driver, *fakeTransport) {
	t.Helper()
	ft := newFakeTransport()
	opts = append([]Option{WithLauncher(func(context.Context, transport.Config) (Transport, error) {
		return ft, nil
	})}, opts...)
	d := New(opts...)
	require.NoError(t, d.Start(context.Background()))
	t.Cleanup(func() { _ = d.Kill() })
	return d, ft
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// Wire-format builders for the lines the CLI emits.

func initLine(sessionID string) string {
	return `{"type":"system","subtype":"init","session_id":"` + sessionID + `","tools":["Bash","Read"]}`
}

func blockStart(index int, block string) string {
	return `{"type":"stream_event","event":{"type":"content_block_start","index":` + itoa(index) + `,"content_block":` + block + `}}`
}

func textStart(index int) string {
	return blockStart(index, `{"type":"text","text":""}`)
}

func thinkingStart(index int) string {
	return blockStart(index, `{"type":"thinking","thinking":""}`)
}

func toolStart(index int, id, name string) string {
	return blockStart(index, `{"type":"tool_use","id":"`+id+`","name":"`+name+`","input":{}}`)
}

func delta(index int, d map[string]string) string {
	b, _ := json.Marshal(map[string]any{
		"type":  "stream_event",
		"event": map[string]any{"type": "content_block_delta", "index": index, "delta": d},
	})
	return string(b)
}

func textDelta(index int, text string) string {
	return delta(index, map[string]string{"type": "text_delta", "text": text})
}

func thinkingDelta(index int, text string) string {
	return delta(index, map[string]string{"type": "thinking_delta", "thinking": text})
}

func inputDelta(index int, partial string) string {
	return delta(index, map[string]string{"type": "input_json_delta", "partial_json": partial})
}

func blockStop(index int) string {
	return `{"type":"stream_event","event":{"type":"content_block_stop","index":` + itoa(index) + `}}`
}

func assistant(blocks ...string) string {
	out := `{"type":"assistant","message":{"role":"assistant","content":[`
	for i, b := range blocks {
		if i > 0 {
			out += ","
		}
		out += b
	}
	return out + `]}}`
}

func toolUse(id, name, input string) string {
	if input == "" {
		return `{"type":"tool_use","id":"` + id + `","name":"` + name + `"}`
	}
	return `{"type":"tool_use","id":"` + id + `","name":"` + name + `","input":` + input + `}`
}

func toolResult(id, content string, isError bool) string {
	b, _ := json.Marshal(map[string]any{
		"type": "user",
		"message": map[string]any{
			"role": "user",
			"content": []map[string]any{{
				"type": "tool_result", "tool_use_id": id, "content": content, "is_error": isError,
			}},
		},
	})
	return string(b)
}

func resultLine(text string, isError bool, numTurns int) string {
	b, _ := json.Marshal(map[string]any{
		"type": "result", "subtype": "success", "is_error": isError, "result": text,
		"num_turns": numTurns, "duration_ms": 1234, "total_cost_usd": 0.5,
	})
	return string(b)
}

func itoa(i int) string {
	b, _ := json.Marshal(i)
	return string(b)
}
