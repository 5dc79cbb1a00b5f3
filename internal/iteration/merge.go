package iteration

import (
	"github.com/ralph-run/ralph/internal/progress"
	"github.com/ralph-run/ralph/internal/stream"
)

// mergeProgress builds the authoritative next progress document as a pure
// function of the pre-iteration document and the agent's freshly parsed
// one: the agent's document wins everywhere except the engine-owned
// iteration log (preserved from pre, appended to separately by the caller)
// and the project name (falls back to capturedName when the agent's is
// empty). Never mutates either input.
func mergeProgress(pre, agentParsed *progress.Document, capturedName string) *progress.Document {
	merged := agentParsed.Clone()
	merged.IterationLog = pre.Clone().IterationLog

	if merged.Name == "" {
		merged.Name = capturedName
	}

	return merged
}

func mergeResponses(a, b stream.Response) stream.Response {
	merged := a
	merged.Text += b.Text
	merged.Usage = a.Usage.Add(b.Usage)
	merged.ToolUses = append(append([]stream.ToolUseEvent{}, a.ToolUses...), b.ToolUses...)
	merged.PermissionDenials = a.PermissionDenials + b.PermissionDenials
	merged.Denials = append(append([]stream.PermissionDeniedEvent{}, a.Denials...), b.Denials...)
	merged.UnknownCount = a.UnknownCount + b.UnknownCount
	merged.Questions = b.Questions
	if merged.SessionID == "" {
		merged.SessionID = b.SessionID
	}
	return merged
}
