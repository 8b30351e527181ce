package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine_Noise(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		line string
	}{
		{"empty", ""},
		{"whitespace", "   \t "},
		{"plain text", "Loading configuration..."},
		{"truncated json", `{"type":"assistant","message":{`},
		{"array", `[1,2,3]`},
		{"string", `"hello"`},
		{"no type", `{"subtype":"init"}`},
		{"numeric type", `{"type":42}`},
		{"empty type", `{"type":""}`},
		{"stream event without event", `{"type":"stream_event"}`},
		{"stream event with bad event", `{"type":"stream_event","event":"oops"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			msg, ok := ParseLine([]byte(tt.line))
			assert.False(t, ok)
			assert.Nil(t, msg)
		})
	}
}

func TestParseLine_UnknownType(t *testing.T) {
	t.Parallel()
	msg, ok := ParseLine([]byte(`{"type":"rate_limit","retry_after":3}`))
	require.True(t, ok)
	assert.Equal(t, KindUnknown, msg.Kind)
	assert.Equal(t, MessageType("rate_limit"), msg.Type)
	assert.Equal(t, "unknown", msg.Kind.String())
}

func TestParseLine_SystemInit(t *testing.T) {
	t.Parallel()
	msg, ok := ParseLine([]byte(`{"type":"system","subtype":"init","session_id":"S1","tools":["Bash"]}`))
	require.True(t, ok)
	assert.Equal(t, KindSystem, msg.Kind)
	assert.True(t, msg.IsInit())
	assert.Equal(t, "S1", msg.SessionID)
	assert.JSONEq(t, `{"type":"system","subtype":"init","session_id":"S1","tools":["Bash"]}`, string(msg.Raw))
}

func TestParseLine_AssistantBlocks(t *testing.T) {
	t.Parallel()
	line := `{"type":"assistant","message":{"role":"assistant","content":[` +
		`{"type":"text","text":"hi"},` +
		`{"type":"tool_use","id":"t1","name":"Bash","input":{"command":"ls"}},` +
		`{"type":"tool_use","id":"t2","name":"Read","input":null},` +
		`{"type":"server_tool_use","id":"s1"}` +
		`]}}`
	msg, ok := ParseLine([]byte(line))
	require.True(t, ok)
	assert.Equal(t, KindAssistant, msg.Kind)
	require.Len(t, msg.Content, 4)

	assert.Equal(t, BlockTypeText, msg.Content[0].Type)
	assert.Equal(t, "hi", msg.Content[0].Text)

	assert.Equal(t, BlockTypeToolUse, msg.Content[1].Type)
	assert.Equal(t, "t1", msg.Content[1].ID)
	assert.Equal(t, "Bash", msg.Content[1].Name)
	assert.True(t, msg.Content[1].HasInput())
	assert.JSONEq(t, `{"command":"ls"}`, string(msg.Content[1].Input))

	assert.False(t, msg.Content[2].HasInput())
	assert.Equal(t, BlockType("server_tool_use"), msg.Content[3].Type)
}

func TestParseLine_StringContent(t *testing.T) {
	t.Parallel()
	msg, ok := ParseLine([]byte(`{"type":"user","message":{"role":"user","content":"plain words"}}`))
	require.True(t, ok)
	assert.Equal(t, KindUser, msg.Kind)
	require.Len(t, msg.Content, 1)
	assert.Equal(t, BlockTypeText, msg.Content[0].Type)
	assert.Equal(t, "plain words", msg.Content[0].Text)
}

func TestParseLine_SkipsUndecodableBlocks(t *testing.T) {
	t.Parallel()
	line := `{"type":"user","message":{"content":[` +
		`{"type":"tool_result","tool_use_id":"t1","content":"ok"},` +
		`{"type":"text","text":42},` +
		`"stray string"` +
		`]}}`
	msg, ok := ParseLine([]byte(line))
	require.True(t, ok)
	require.Len(t, msg.Content, 1)
	assert.Equal(t, "t1", msg.Content[0].ToolUseID)
	assert.JSONEq(t, `"ok"`, string(msg.Content[0].ResultPayload))
	assert.False(t, msg.Content[0].Failed())
}

func TestParseLine_BadMessageShapeKeepsLine(t *testing.T) {
	t.Parallel()
	msg, ok := ParseLine([]byte(`{"type":"assistant","message":"not an object"}`))
	require.True(t, ok)
	assert.Equal(t, KindAssistant, msg.Kind)
	assert.Empty(t, msg.Content)
}

func TestParseLine_ToolResultError(t *testing.T) {
	t.Parallel()
	line := `{"type":"user","message":{"content":[{"type":"tool_result","tool_use_id":"t9","is_error":true,"content":[{"type":"text","text":"boom"}]}]}}`
	msg, ok := ParseLine([]byte(line))
	require.True(t, ok)
	require.Len(t, msg.Content, 1)
	assert.True(t, msg.Content[0].Failed())
	assert.JSONEq(t, `[{"type":"text","text":"boom"}]`, string(msg.Content[0].ResultPayload))
}

func TestParseLine_Result(t *testing.T) {
	t.Parallel()
	line := `{"type":"result","subtype":"success","is_error":false,"result":"Done.","num_turns":3,"duration_ms":1500,"total_cost_usd":0.0123,"session_id":"S1"}`
	msg, ok := ParseLine([]byte(line))
	require.True(t, ok)
	assert.Equal(t, KindResult, msg.Kind)
	assert.Equal(t, "success", msg.Subtype)
	assert.Equal(t, "Done.", msg.Result)
	assert.False(t, msg.IsError)
	assert.Equal(t, 3, msg.NumTurns)
	assert.Equal(t, int64(1500), msg.DurationMs)
	assert.InDelta(t, 0.0123, msg.TotalCostUSD, 1e-9)
}

func TestParseLine_ResultNonStringPayload(t *testing.T) {
	t.Parallel()
	msg, ok := ParseLine([]byte(`{"type":"result","is_error":true,"result":{"code": 7}}`))
	require.True(t, ok)
	assert.True(t, msg.IsError)
	assert.Equal(t, `{"code":7}`, msg.Result)
}

func TestParseLine_StreamEvents(t *testing.T) {
	t.Parallel()
	tests := []struct {
		check func(t *testing.T, ev *StreamEvent)
		name  string
		line  string
	}{
		{
			name: "block start tool_use",
			line: `{"type":"stream_event","event":{"type":"content_block_start","index":1,"content_block":{"type":"tool_use","id":"t1","name":"Bash","input":{}}}}`,
			check: func(t *testing.T, ev *StreamEvent) {
				assert.Equal(t, StreamEventTypeContentBlockStart, ev.Type)
				assert.Equal(t, 1, ev.Index)
				require.NotNil(t, ev.BlockStart)
				assert.Equal(t, BlockTypeToolUse, ev.BlockStart.Type)
				assert.Equal(t, "t1", ev.BlockStart.ID)
				assert.Equal(t, "Bash", ev.BlockStart.Name)
			},
		},
		{
			name: "text delta",
			line: `{"type":"stream_event","event":{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hel"}}}`,
			check: func(t *testing.T, ev *StreamEvent) {
				require.NotNil(t, ev.Delta)
				assert.Equal(t, DeltaTypeText, ev.Delta.Type)
				assert.Equal(t, "Hel", ev.Delta.Text)
			},
		},
		{
			name: "thinking delta",
			line: `{"type":"stream_event","event":{"type":"content_block_delta","index":0,"delta":{"type":"thinking_delta","thinking":"hmm"}}}`,
			check: func(t *testing.T, ev *StreamEvent) {
				require.NotNil(t, ev.Delta)
				assert.Equal(t, DeltaTypeThinking, ev.Delta.Type)
				assert.Equal(t, "hmm", ev.Delta.Thinking)
			},
		},
		{
			name: "input json delta",
			line: `{"type":"stream_event","event":{"type":"content_block_delta","index":2,"delta":{"type":"input_json_delta","partial_json":"{\"q\":"}}}`,
			check: func(t *testing.T, ev *StreamEvent) {
				require.NotNil(t, ev.Delta)
				assert.Equal(t, DeltaTypeInputJSON, ev.Delta.Type)
				assert.Equal(t, `{"q":`, ev.Delta.PartialJSON)
				assert.Equal(t, 2, ev.Index)
			},
		},
		{
			name: "message stop without index",
			line: `{"type":"stream_event","event":{"type":"message_stop"}}`,
			check: func(t *testing.T, ev *StreamEvent) {
				assert.Equal(t, StreamEventTypeMessageStop, ev.Type)
				assert.Equal(t, NoIndex, ev.Index)
				assert.Nil(t, ev.Delta)
				assert.Nil(t, ev.BlockStart)
			},
		},
		{
			name: "message delta keeps type only",
			line: `{"type":"stream_event","event":{"type":"message_delta","delta":{"stop_reason":"end_turn","stop_sequence":null}}}`,
			check: func(t *testing.T, ev *StreamEvent) {
				assert.Equal(t, StreamEventTypeMessageDelta, ev.Type)
				assert.Nil(t, ev.Delta)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			msg, ok := ParseLine([]byte(tt.line))
			require.True(t, ok)
			assert.Equal(t, KindStreamEvent, msg.Kind)
			require.NotNil(t, msg.StreamEvent)
			tt.check(t, msg.StreamEvent)
		})
	}
}

func TestKindOf(t *testing.T) {
	t.Parallel()
	assert.Equal(t, KindSystem, KindOf("system"))
	assert.Equal(t, KindAssistant, KindOf("assistant"))
	assert.Equal(t, KindUser, KindOf("user"))
	assert.Equal(t, KindResult, KindOf("result"))
	assert.Equal(t, KindStreamEvent, KindOf("stream_event"))
	assert.Equal(t, KindUnknown, KindOf("control_response"))
	assert.Equal(t, "stream_event", KindStreamEvent.String())
	assert.Equal(t, "unknown", Kind(99).String())
}
