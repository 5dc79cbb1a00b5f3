package iteration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/ralph-run/ralph/internal/progress"
	"github.com/ralph-run/ralph/internal/relay"
	"github.com/ralph-run/ralph/internal/stream"
	"github.com/ralph-run/ralph/internal/subprocess"
	"github.com/ralph-run/ralph/internal/vcs"
)

// waiter paces retries; satisfied by *rate.Limiter in production and a
// no-op stand-in in tests that exercise retry logic without real delay.
type waiter interface {
	Wait(ctx context.Context) error
}

// Engine runs single iterations of the build loop.
type Engine struct {
	Runner   AgentRunner
	Prompter relay.Prompter // nil disables the interactive relay entirely
	Logger   *slog.Logger

	// retryLimiter paces timeout retries so a string of fast local
	// timeouts cannot spin the agent CLI arbitrarily quickly.
	retryLimiter waiter
}

// NewEngine builds an Engine with the real subprocess-backed runner.
func NewEngine(prompter relay.Prompter, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		Runner:       DefaultRunner{},
		Prompter:     prompter,
		Logger:       logger,
		retryLimiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// RunIteration executes one pass of the fourteen-step per-iteration
// algorithm. A non-nil error is always fatal to the build loop; any
// recoverable outcome (declared done, all tasks complete, cancellation) is
// reported through Outcome with a nil error.
func (e *Engine) RunIteration(ctx context.Context, rc *Context) (Outcome, error) {
	startedAt := time.Now()

	// Step 1: reload.
	reloaded, err := progress.Load(rc.ProgressPath)
	if err != nil {
		return Outcome{}, &PersistenceError{Err: err}
	}
	rc.Progress = reloaded

	// Step 2: early exit checks, in order. Declared beats AllComplete.
	if rc.Progress.IsDeclaredDone() {
		return Outcome{Kind: KindDone, Reason: ReasonDeclared}, nil
	}
	if rc.Progress.TotalTaskCount() > 0 && rc.Progress.CompletedTaskCount() == rc.Progress.TotalTaskCount() {
		return Outcome{Kind: KindDone, Reason: ReasonAllComplete}, nil
	}
	if ctx.Err() != nil {
		return Outcome{Kind: KindDone, Reason: ReasonCancelled}, nil
	}

	// Step 3: capture project name.
	if rc.ProjectName == "" && rc.Progress.Name != "" {
		rc.ProjectName = rc.Progress.Name
	}

	// Step 4: dry-run short-circuit.
	if rc.DryRun {
		e.Logger.Info("dry run: would have executed iteration", "iteration", rc.CurrentIteration)
		return Outcome{Kind: KindDryRun}, nil
	}

	// Step 5: compose subprocess arguments.
	promptBody := rc.Config.PromptBuildBody
	args := buildArgs(rc.Resolved.BaseArgs, rc.SkipPermissions, promptBody)
	spec := AgentSpec{
		Path:       rc.Resolved.Path,
		Args:       args,
		WorkingDir: rc.WorkspacePath,
		TimeoutSec: uint32(rc.Config.IterationTimeout / time.Second),
	}

	// Step 6/7: spawn, stream, retry on timeout.
	resp, note, err := e.runWithRetries(ctx, spec, rc.Config.TimeoutRetries)
	if err != nil {
		if errors.Is(err, subprocess.ErrCancelled) {
			return Outcome{Kind: KindDone, Reason: ReasonCancelled}, nil
		}
		if errors.Is(err, subprocess.ErrTimeout) {
			return Outcome{}, &TimeoutError{Retries: rc.Config.TimeoutRetries}
		}
		var exitErr *subprocess.ExitError
		if errors.As(err, &exitErr) {
			return Outcome{}, &SubprocessError{ExitCode: exitErr.ExitCode, StderrTail: exitErr.StderrTail}
		}
		return Outcome{}, &SubprocessError{StderrTail: err.Error()}
	}

	// Step 8: interactive relay.
	if resp.HasQuestions() && resp.SessionID != "" && e.Prompter != nil {
		resumer := newSessionResumer(e.Runner, rc.Resolved.Path, rc.Resolved.BaseArgs, rc.SkipPermissions, rc.WorkspacePath, spec.TimeoutSec, resp)
		roundCap := rc.Config.QuestionRoundCap
		r := relay.New(e.Prompter, roundCap)
		if err := r.Run(ctx, resp.Questions, resumer); err != nil {
			if errors.Is(err, relay.ErrQuestionLoop) {
				return Outcome{}, &QuestionLoopError{Err: err}
			}
			if errors.Is(err, subprocess.ErrCancelled) {
				return Outcome{Kind: KindDone, Reason: ReasonCancelled}, nil
			}
			return Outcome{}, &SubprocessError{StderrTail: err.Error()}
		}
		resp = resumer.Merged
	}

	// Step 9: parse response into a progress document.
	agentParsed, err := progress.Parse(resp.Text)
	if err != nil {
		return Outcome{}, &ResponseParseError{Reason: err.Error()}
	}

	merged := mergeProgress(rc.Progress, agentParsed, rc.ProjectName)

	// Step 11 (computed before the final persist so the log row is part of
	// the single atomic write, per this engine's serialization of the two
	// numbered steps into one on-disk transition).
	tasksCompleted := merged.CompletedTaskCount() - rc.Progress.CompletedTaskCount()
	if tasksCompleted < 0 {
		tasksCompleted = 0
	}
	if merged.CompletedThisIteration == "" && tasksCompleted > 0 {
		merged.RecordCompletedThisIteration(fmt.Sprintf("%d task(s) completed.", tasksCompleted))
	}
	merged.AppendIterationLogRow(progress.IterationLogRow{
		Iteration:      rc.CurrentIteration,
		StartedAt:      startedAt,
		Duration:       time.Since(startedAt),
		TasksCompleted: tasksCompleted,
		Notes:          note,
	})

	// Step 10: persist atomically.
	if err := progress.Write(rc.ProgressPath, merged); err != nil {
		return Outcome{}, &PersistenceError{Err: err}
	}
	rc.Progress = merged

	// Step 12: commit, non-fatally.
	if tasksCompleted > 0 && rc.VCS != nil {
		msg := vcs.FormatCommitMessage(rc.ProjectName, rc.CurrentIteration, tasksCompleted)
		if _, _, err := rc.VCS.CommitAll(ctx, msg); err != nil {
			e.Logger.Warn("vcs commit failed, continuing", "error", err)
		}
	}

	// Step 13: accumulate tokens componentwise, never overwrite.
	rc.AccumulatedTokens = rc.AccumulatedTokens.Add(resp.Usage)

	// Step 14: return outcome.
	return Outcome{Kind: KindIterationComplete, TasksCompleted: tasksCompleted}, nil
}

// runWithRetries spawns the agent, retrying on timeout up to maxRetries
// times, rate-limited so repeated fast-failing timeouts cannot spin the
// CLI. Returns a human-readable note when a retry occurred.
func (e *Engine) runWithRetries(ctx context.Context, spec AgentSpec, maxRetries uint32) (stream.Response, string, error) {
	var lastErr error
	for attempt := uint32(0); attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			if err := e.retryLimiter.Wait(ctx); err != nil {
				return stream.Response{}, "", err
			}
		}

		resp, err := e.Runner.Run(ctx, spec)
		if err == nil {
			if attempt > 0 {
				return resp, "timed out and retried", nil
			}
			return resp, "", nil
		}
		lastErr = err
		if !errors.Is(err, subprocess.ErrTimeout) {
			return stream.Response{}, "", err
		}
	}
	return stream.Response{}, "", lastErr
}
