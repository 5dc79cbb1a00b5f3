package stream

import "strings"

// Response is the aggregate built from all events consumed within one
// subprocess run: concatenated assistant text, the first session id seen,
// every tool use in order, deduplicated pending questions, summed token
// usage, and every permission denial (with the tool name resolved).
type Response struct {
	Text              string
	SessionID         string
	ToolUses          []ToolUseEvent
	Questions         []string
	Usage             TokenUsage
	PermissionDenials int
	Denials           []PermissionDeniedEvent
	UnknownCount      int

	sawSessionID  bool
	seenQuestions map[string]struct{}
	toolNames     map[string]string // tool_use id -> tool name, for denial enrichment
	textBuilder   strings.Builder
}

// NewAggregator returns an empty Aggregator ready to consume a fresh
// subprocess run's events.
func NewAggregator() *Aggregator {
	return &Aggregator{
		resp: Response{
			seenQuestions: make(map[string]struct{}),
			toolNames:     make(map[string]string),
		},
	}
}

// Aggregator builds a Response by consuming Events in the exact order the
// child process emitted them on stdout.
type Aggregator struct {
	resp Response
}

// Consume folds one Event into the aggregate. It is not safe for concurrent
// use; callers must serialize delivery (the Iteration Engine's single
// consumer task does this naturally).
func (a *Aggregator) Consume(ev Event) {
	switch e := ev.(type) {
	case InitEvent:
		if !a.resp.sawSessionID {
			a.resp.SessionID = e.SessionID
			a.resp.sawSessionID = true
		}
	case AssistantTextEvent:
		a.resp.textBuilder.WriteString(e.Text)
	case AssistantThinkingEvent:
		// Thinking blocks are not part of the authoritative response text;
		// they are observability-only per the stream protocol.
	case ToolUseEvent:
		a.resp.ToolUses = append(a.resp.ToolUses, e)
		a.resp.toolNames[e.ID] = e.Name
	case ToolResultEvent:
		// Tool results are not aggregated into Response directly; callers
		// observing the live stream see them as they arrive.
	case AskQuestionEvent:
		for _, q := range e.Questions {
			if _, seen := a.resp.seenQuestions[q]; seen {
				continue
			}
			a.resp.seenQuestions[q] = struct{}{}
			a.resp.Questions = append(a.resp.Questions, q)
		}
	case ResultEvent:
		a.resp.Usage = a.resp.Usage.Add(e.Usage)
	case PermissionDeniedEvent:
		e.ToolName = a.resp.toolNames[e.ToolUseID]
		a.resp.PermissionDenials++
		a.resp.Denials = append(a.resp.Denials, e)
	case UnknownEvent:
		a.resp.UnknownCount++
	}
}

// Response returns the current aggregate. Safe to call at any point, not
// only after the run has finished, so callers can observe partial progress.
func (a *Aggregator) Response() Response {
	r := a.resp
	r.Text = a.resp.textBuilder.String()
	return r
}

// HasQuestions reports whether the aggregate has at least one pending
// question, the first half of the Interactive Input Relay's trigger
// condition (the second half, a captured session id, is SessionID != "").
func (r Response) HasQuestions() bool {
	return len(r.Questions) > 0
}
