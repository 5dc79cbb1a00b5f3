// Package stream decodes the newline-delimited JSON event stream produced by
// the LLM CLI's --output-format stream-json mode into a closed set of typed
// events, and aggregates those events into a single response per subprocess
// run.
package stream

// Kind discriminates the closed set of stream event variants.
type Kind string

const (
	KindInit             Kind = "init"
	KindAssistantText    Kind = "assistant_text"
	KindAssistantThink   Kind = "assistant_thinking"
	KindToolUse          Kind = "tool_use"
	KindToolResult       Kind = "tool_result"
	KindAskQuestion      Kind = "ask_question"
	KindResult           Kind = "result"
	KindPermissionDenied Kind = "permission_denied"
	KindUnknown          Kind = "unknown"
)

// AskQuestionTool is the sentinel tool name the upstream CLI uses for its
// built-in interactive question tool.
const AskQuestionTool = "AskUserQuestion"

// Event is implemented by every stream event variant. The set is closed and
// small, so a tagged union (Kind + concrete struct) is used instead of an
// inheritance hierarchy.
type Event interface {
	Kind() Kind
}

// InitEvent carries the session id from a "system" event. Only the first one
// observed per subprocess run is authoritative (see Aggregator).
type InitEvent struct {
	SessionID string
}

func (InitEvent) Kind() Kind { return KindInit }

// AssistantTextEvent is a "text" content block from an assistant message.
type AssistantTextEvent struct {
	Text string
}

func (AssistantTextEvent) Kind() Kind { return KindAssistantText }

// AssistantThinkingEvent is a "thinking" content block from an assistant
// message.
type AssistantThinkingEvent struct {
	Text string
}

func (AssistantThinkingEvent) Kind() Kind { return KindAssistantThink }

// ToolUseEvent is a "tool_use" content block from an assistant message.
type ToolUseEvent struct {
	ID    string
	Name  string
	Input map[string]any
}

func (ToolUseEvent) Kind() Kind { return KindToolUse }

// AskQuestionEvent is the semantic subtype of ToolUseEvent whose tool name
// equals AskQuestionTool. Questions are extracted from the block's input:
// a structured {questions: [{question: "..."}]} shape when present, or the
// whole input wrapped as a single-element list otherwise.
type AskQuestionEvent struct {
	ToolUseID string
	Questions []string
}

func (AskQuestionEvent) Kind() Kind { return KindAskQuestion }

// ToolResultEvent is a "tool_result" content block from a "user" event.
type ToolResultEvent struct {
	ToolUseID string
	Content   string
	IsError   bool
}

func (ToolResultEvent) Kind() Kind { return KindToolResult }

// PermissionDeniedEvent is emitted alongside a ToolResultEvent whose content
// indicates the upstream CLI refused a tool invocation. The parser only
// knows ToolUseID; ToolName is filled in by the Aggregator, which has
// already seen the matching ToolUseEvent and can resolve the name from it.
type PermissionDeniedEvent struct {
	ToolUseID string
	ToolName  string
	Reason    string
}

func (PermissionDeniedEvent) Kind() Kind { return KindPermissionDenied }

// TokenUsage holds the four nonnegative token counters the upstream CLI
// reports. Addition is always componentwise — callers must never overwrite
// a running total with a fresh TokenUsage, only Add into it.
type TokenUsage struct {
	Input              int64
	Output             int64
	CacheCreationInput int64
	CacheReadInput     int64
}

// Add returns the componentwise sum of u and other. It does not mutate
// either operand.
func (u TokenUsage) Add(other TokenUsage) TokenUsage {
	return TokenUsage{
		Input:              u.Input + other.Input,
		Output:             u.Output + other.Output,
		CacheCreationInput: u.CacheCreationInput + other.CacheCreationInput,
		CacheReadInput:     u.CacheReadInput + other.CacheReadInput,
	}
}

// ResultEvent is the terminal "result" event of a subprocess run.
type ResultEvent struct {
	StopReason string
	Usage      TokenUsage
	DurationMs int64
}

func (ResultEvent) Kind() Kind { return KindResult }

// UnknownEvent preserves a line that did not match any recognized shape, for
// logging. It is never fatal to the parser.
type UnknownEvent struct {
	Raw string
}

func (UnknownEvent) Kind() Kind { return KindUnknown }
