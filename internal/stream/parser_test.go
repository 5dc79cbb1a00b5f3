package stream

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine_System(t *testing.T) {
	p := NewParser()
	events := p.ParseLine([]byte(`{"type":"system","session_id":"s1"}`))
	require.Len(t, events, 1)
	assert.Equal(t, InitEvent{SessionID: "s1"}, events[0])
}

func TestParseLine_AssistantTextAndToolUse(t *testing.T) {
	p := NewParser()
	line := `{"type":"assistant","message":{"content":[
		{"type":"text","text":"hello"},
		{"type":"tool_use","id":"t1","name":"Read","input":{"path":"a.go"}}
	]}}`
	events := p.ParseLine([]byte(line))
	require.Len(t, events, 2)
	assert.Equal(t, AssistantTextEvent{Text: "hello"}, events[0])
	toolUse, ok := events[1].(ToolUseEvent)
	require.True(t, ok)
	assert.Equal(t, "Read", toolUse.Name)
}

func TestParseLine_AskQuestionStructured(t *testing.T) {
	p := NewParser()
	line := `{"type":"assistant","message":{"content":[
		{"type":"tool_use","id":"t2","name":"AskUserQuestion","input":{"questions":[{"question":"What language?"}]}}
	]}}`
	events := p.ParseLine([]byte(line))
	require.Len(t, events, 2)
	ask, ok := events[1].(AskQuestionEvent)
	require.True(t, ok)
	assert.Equal(t, []string{"What language?"}, ask.Questions)
}

func TestParseLine_AskQuestionUnstructuredFallsBackToWholeInput(t *testing.T) {
	p := NewParser()
	line := `{"type":"assistant","message":{"content":[
		{"type":"tool_use","id":"t3","name":"AskUserQuestion","input":{"freeform":"pick one"}}
	]}}`
	events := p.ParseLine([]byte(line))
	require.Len(t, events, 2)
	ask, ok := events[1].(AskQuestionEvent)
	require.True(t, ok)
	require.Len(t, ask.Questions, 1)
	assert.Contains(t, ask.Questions[0], "freeform")
}

func TestParseLine_ToolResultPermissionDenied(t *testing.T) {
	p := NewParser()
	line := `{"type":"user","message":{"content":[
		{"type":"tool_result","tool_use_id":"t1","content":"Permission denied for Bash","is_error":true}
	]}}`
	events := p.ParseLine([]byte(line))
	require.Len(t, events, 2)
	_, ok := events[0].(ToolResultEvent)
	require.True(t, ok)
	denied, ok := events[1].(PermissionDeniedEvent)
	require.True(t, ok)
	assert.Equal(t, "t1", denied.ToolUseID)
}

func TestParseLine_Result(t *testing.T) {
	p := NewParser()
	line := `{"type":"result","stop_reason":"end_turn","duration_ms":1500,"usage":{"input_tokens":10,"output_tokens":20}}`
	events := p.ParseLine([]byte(line))
	require.Len(t, events, 1)
	result, ok := events[0].(ResultEvent)
	require.True(t, ok)
	assert.Equal(t, int64(10), result.Usage.Input)
	assert.Equal(t, int64(20), result.Usage.Output)
	assert.Equal(t, int64(1500), result.DurationMs)
}

func TestParseLine_MalformedJSONIsUnknownNotFatal(t *testing.T) {
	p := NewParser()
	events := p.ParseLine([]byte("NOT JSON"))
	require.Len(t, events, 1)
	unknown, ok := events[0].(UnknownEvent)
	require.True(t, ok)
	assert.Equal(t, "NOT JSON", unknown.Raw)
}

func TestParseLine_EmptyLineProducesNoEvents(t *testing.T) {
	p := NewParser()
	assert.Empty(t, p.ParseLine([]byte("   ")))
}

// TestParseLines_Scenario6MalformedLineDoesNotAbortStream verifies that a
// stream whose middle line is garbage still yields the session id from the
// first line, an Unknown event for the bad line, and continues parsing.
func TestParseLines_Scenario6MalformedLineDoesNotAbortStream(t *testing.T) {
	input := strings.Join([]string{
		`{"type":"system","session_id":"s1"}`,
		`NOT JSON`,
		`{"type":"assistant","message":{"content":[{"type":"text","text":"done"}]}}`,
		`{"type":"result","stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":2}}`,
	}, "\n")

	p := NewParser()
	agg := NewAggregator()
	err := p.ParseLines(strings.NewReader(input), agg.Consume)
	require.NoError(t, err)

	resp := agg.Response()
	assert.Equal(t, "s1", resp.SessionID)
	assert.Equal(t, "done", resp.Text)
	assert.Equal(t, 1, resp.UnknownCount)
	assert.Equal(t, int64(1), resp.Usage.Input)
}
