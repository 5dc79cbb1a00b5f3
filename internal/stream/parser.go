package stream

import (
	"bufio"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
)

// wireMessage is the outer envelope of one newline-delimited JSON line from
// the LLM CLI's stream-json output. It mirrors the shape documented by the
// upstream CLI: top-level "type" discriminates system/assistant/user/result
// events, with assistant/user content nested one level down.
type wireMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`

	Message *wireAssistantMessage `json:"message,omitempty"`

	// result-event fields
	DurationMs int64         `json:"duration_ms,omitempty"`
	Usage      *wireUsage    `json:"usage,omitempty"`
	StopReason string        `json:"stop_reason,omitempty"`
}

type wireAssistantMessage struct {
	Content    []wireContentBlock `json:"content"`
	StopReason string             `json:"stop_reason,omitempty"`
	Usage      *wireUsage         `json:"usage,omitempty"`
}

// wireContentBlock covers both assistant content blocks (text/thinking/
// tool_use) and user content blocks (tool_result).
type wireContentBlock struct {
	Type string `json:"type"`

	// text / thinking
	Text string `json:"text,omitempty"`

	// tool_use
	ID    string         `json:"id,omitempty"`
	Name  string         `json:"name,omitempty"`
	Input map[string]any `json:"input,omitempty"`

	// tool_result
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   any    `json:"content,omitempty"`
	IsError   bool   `json:"is_error,omitempty"`
}

type wireUsage struct {
	InputTokens              int64 `json:"input_tokens,omitempty"`
	OutputTokens             int64 `json:"output_tokens,omitempty"`
	CacheCreationInputTokens int64 `json:"cache_creation_input_tokens,omitempty"`
	CacheReadInputTokens     int64 `json:"cache_read_input_tokens,omitempty"`
}

func (u *wireUsage) toTokenUsage() TokenUsage {
	if u == nil {
		return TokenUsage{}
	}
	return TokenUsage{
		Input:              u.InputTokens,
		Output:             u.OutputTokens,
		CacheCreationInput: u.CacheCreationInputTokens,
		CacheReadInput:     u.CacheReadInputTokens,
	}
}

// permissionDeniedMarkers are substrings that indicate a tool_result content
// block represents a permission refusal by the upstream CLI. The upstream
// protocol has no dedicated event type for this, so the signal is textual.
var permissionDeniedMarkers = []string{
	"permission denied",
	"permission to use",
	"requires approval",
	"not permitted",
}

// Parser decodes individual stream-json lines into Events. It keeps no
// state: every InitEvent is emitted, and the "first session id wins" rule
// is enforced by the Aggregator.
type Parser struct{}

// NewParser returns a ready-to-use Parser. Parsers hold no per-run state and
// may be reused across subprocess runs.
func NewParser() *Parser { return &Parser{} }

// ParseLine decodes a single line of stream-json output into zero or more
// Events. A line may produce several events (an assistant message with
// multiple content blocks yields one event per block, plus an extra
// AskQuestionEvent when a tool_use block is the ask-question tool).
//
// ParseLine never returns an error: malformed JSON produces a single
// UnknownEvent, matching the "lenient" requirement on the stream parser —
// a single bad line must never abort parsing of the rest of the stream.
func (p *Parser) ParseLine(line []byte) []Event {
	trimmed := strings.TrimSpace(string(line))
	if trimmed == "" {
		return nil
	}

	var msg wireMessage
	if err := json.Unmarshal(line, &msg); err != nil {
		slog.Debug("stream: malformed json line, recording as unknown", "error", err)
		return []Event{UnknownEvent{Raw: trimmed}}
	}

	switch msg.Type {
	case "system":
		if msg.SessionID == "" {
			return []Event{UnknownEvent{Raw: trimmed}}
		}
		return []Event{InitEvent{SessionID: msg.SessionID}}

	case "assistant":
		if msg.Message == nil {
			return []Event{UnknownEvent{Raw: trimmed}}
		}
		return parseAssistantBlocks(msg.Message.Content)

	case "user":
		if msg.Message == nil {
			return []Event{UnknownEvent{Raw: trimmed}}
		}
		return parseUserBlocks(msg.Message.Content)

	case "result":
		return []Event{ResultEvent{
			StopReason: msg.StopReason,
			Usage:      msg.Usage.toTokenUsage(),
			DurationMs: msg.DurationMs,
		}}

	default:
		return []Event{UnknownEvent{Raw: trimmed}}
	}
}

func parseAssistantBlocks(blocks []wireContentBlock) []Event {
	events := make([]Event, 0, len(blocks))
	for _, b := range blocks {
		switch b.Type {
		case "text":
			events = append(events, AssistantTextEvent{Text: b.Text})
		case "thinking":
			events = append(events, AssistantThinkingEvent{Text: b.Text})
		case "tool_use":
			events = append(events, ToolUseEvent{ID: b.ID, Name: b.Name, Input: b.Input})
			if b.Name == AskQuestionTool {
				events = append(events, AskQuestionEvent{
					ToolUseID: b.ID,
					Questions: extractQuestions(b.Input),
				})
			}
		default:
			events = append(events, UnknownEvent{Raw: b.Type})
		}
	}
	return events
}

func parseUserBlocks(blocks []wireContentBlock) []Event {
	events := make([]Event, 0, len(blocks))
	for _, b := range blocks {
		if b.Type != "tool_result" {
			continue
		}
		content := stringifyContent(b.Content)
		events = append(events, ToolResultEvent{
			ToolUseID: b.ToolUseID,
			Content:   content,
			IsError:   b.IsError,
		})
		if denialReason, denied := detectPermissionDenial(content, b.IsError); denied {
			events = append(events, PermissionDeniedEvent{ToolUseID: b.ToolUseID, Reason: denialReason})
		}
	}
	return events
}

// extractQuestions pulls the question list out of an AskUserQuestion tool's
// input. The structured shape is {"questions": [{"question": "..."}]}; any
// other shape is treated as a single opaque question (the whole input
// serialized back to a readable string).
func extractQuestions(input map[string]any) []string {
	raw, ok := input["questions"]
	if !ok {
		return []string{stringifyInput(input)}
	}

	list, ok := raw.([]any)
	if !ok || len(list) == 0 {
		return []string{stringifyInput(input)}
	}

	questions := make([]string, 0, len(list))
	for _, item := range list {
		switch v := item.(type) {
		case string:
			questions = append(questions, v)
		case map[string]any:
			if q, ok := v["question"].(string); ok {
				questions = append(questions, q)
			}
		}
	}
	if len(questions) == 0 {
		return []string{stringifyInput(input)}
	}
	return questions
}

func stringifyInput(input map[string]any) string {
	b, err := json.Marshal(input)
	if err != nil {
		return ""
	}
	return string(b)
}

func stringifyContent(content any) string {
	switch v := content.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func detectPermissionDenial(content string, isError bool) (string, bool) {
	if !isError {
		return "", false
	}
	lower := strings.ToLower(content)
	for _, marker := range permissionDeniedMarkers {
		if strings.Contains(lower, marker) {
			return content, true
		}
	}
	return "", false
}

// ParseLines reads newline-delimited JSON from r, decoding each line and
// invoking emit for every produced Event in order. It returns a non-nil
// error only for a fatal I/O failure on r — never for malformed JSON lines,
// which are surfaced as UnknownEvent values through emit.
func (p *Parser) ParseLines(r io.Reader, emit func(Event)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		for _, ev := range p.ParseLine(scanner.Bytes()) {
			emit(ev)
		}
	}
	return scanner.Err()
}
