package iteration

import (
	"context"

	"github.com/ralph-run/ralph/internal/stream"
)

// sessionResumer adapts an AgentRunner into a relay.Resumer: each answer
// becomes a fresh subprocess invocation carrying the session id and the
// answer as a new prompt, matching the upstream CLI's resume contract. Its
// Merged response accumulates across every round so the caller can fold the
// whole interactive exchange's token usage and text into one response.
type sessionResumer struct {
	runner          AgentRunner
	path            string
	baseArgs        []string
	skipPermissions bool
	workingDir      string
	timeoutSec      uint32
	sessionID       string

	Merged stream.Response
}

func newSessionResumer(runner AgentRunner, path string, baseArgs []string, skipPermissions bool, workingDir string, timeoutSec uint32, initial stream.Response) *sessionResumer {
	return &sessionResumer{
		runner:          runner,
		path:            path,
		baseArgs:        baseArgs,
		skipPermissions: skipPermissions,
		workingDir:      workingDir,
		timeoutSec:      timeoutSec,
		sessionID:       initial.SessionID,
		Merged:          initial,
	}
}

// Resume implements relay.Resumer.
func (r *sessionResumer) Resume(ctx context.Context, answer string) (bool, []string, error) {
	args := buildResumeArgs(r.baseArgs, r.skipPermissions, r.sessionID, answer)
	spec := AgentSpec{Path: r.path, Args: args, WorkingDir: r.workingDir, TimeoutSec: r.timeoutSec}

	resp, err := r.runner.Run(ctx, spec)
	if err != nil {
		return false, nil, err
	}

	r.Merged = mergeResponses(r.Merged, resp)
	if resp.SessionID != "" {
		r.sessionID = resp.SessionID
	}

	return resp.HasQuestions(), resp.Questions, nil
}
