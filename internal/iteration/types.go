// Package iteration implements the per-run Iteration Engine: one call to
// RunIteration reloads the progress document, spawns the agent subprocess,
// parses its streamed output, relays any interactive questions, merges the
// resulting progress, persists it atomically, and commits if work was done.
package iteration

import (
	"context"

	"github.com/ralph-run/ralph/internal/cliresolve"
	"github.com/ralph-run/ralph/internal/config"
	"github.com/ralph-run/ralph/internal/progress"
	"github.com/ralph-run/ralph/internal/stream"
	"github.com/ralph-run/ralph/internal/vcs"
)

// DoneReason identifies why the build loop stopped.
type DoneReason string

const (
	ReasonDeclared       DoneReason = "declared"
	ReasonAllComplete    DoneReason = "all_complete"
	ReasonMaxIterations  DoneReason = "max_iterations"
	ReasonCancelled      DoneReason = "cancelled"
	ReasonSingleIteration DoneReason = "single_iteration"
)

// OutcomeKind discriminates the shape of an Outcome.
type OutcomeKind int

const (
	KindIterationComplete OutcomeKind = iota
	KindDone
	KindDryRun
)

// Outcome is RunIteration's successful result.
type Outcome struct {
	Kind           OutcomeKind
	Reason         DoneReason // meaningful when Kind == KindDone
	TasksCompleted int        // meaningful when Kind == KindIterationComplete
}

// Context is the per-run value the Build Loop Controller owns and the
// Iteration Engine borrows for the duration of one RunIteration call.
type Context struct {
	WorkspacePath string
	ProgressPath  string

	Progress *progress.Document
	Config   *config.Snapshot
	Resolved cliresolve.Resolved
	VCS      vcs.Adapter // nil is a valid, no-op capability absence

	CurrentIteration int
	OnceMode         bool
	DryRun           bool
	SkipPermissions  bool

	// ProjectName is captured from the first successful parse and persists
	// across iterations even if a later agent response emits an empty name.
	ProjectName string

	// AccumulatedTokens is the running total across every iteration this
	// context has seen; RunIteration only ever adds into it.
	AccumulatedTokens stream.TokenUsage
}

// AgentRunner spawns the agent subprocess for one request and returns its
// aggregated stream response. Implementations must never block past ctx
// cancellation or spec.TimeoutSec.
type AgentRunner interface {
	Run(ctx context.Context, spec AgentSpec) (stream.Response, error)
}

// AgentSpec is the fully composed invocation for one agent subprocess call.
type AgentSpec struct {
	Path       string
	Args       []string
	WorkingDir string
	TimeoutSec uint32
}
