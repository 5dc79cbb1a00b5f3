// Package loopctl implements the Build Loop Controller: the five-state
// state machine that drives the Iteration Engine across a whole run,
// applying the max-iterations/once-mode/cancellation transition rules.
package loopctl

import (
	"context"
	"errors"
	"fmt"

	"github.com/ralph-run/ralph/internal/display"
	"github.com/ralph-run/ralph/internal/iteration"
)

// Outcome is the terminal result of a whole build loop run.
type Outcome struct {
	Reason          iteration.DoneReason
	IterationsRun   int
	TasksCompleted  int // sum of TasksCompleted across every completed iteration
	FailedIteration int // 0 unless the run ended via Failed
}

// Engine is the subset of *iteration.Engine the controller depends on,
// narrowed to an interface so the state machine can be exercised with a
// test double instead of a real subprocess-backed engine.
type Engine interface {
	RunIteration(ctx context.Context, rc *iteration.Context) (iteration.Outcome, error)
}

// Controller drives iterations to completion or failure.
type Controller struct {
	Engine  Engine
	Context *iteration.Context
	Out     display.Writer // nil disables terminal rendering
}

// New builds a Controller for one run.
func New(engine Engine, rc *iteration.Context, out display.Writer) *Controller {
	return &Controller{Engine: engine, Context: rc, Out: out}
}

// Run drives the state machine: Starting -> Running(i) -> IterationComplete
// -> (Running(i+1) | Done(r)) -> Failed(e)?. max_iterations == 0
// short-circuits straight to Done(MaxIterations) without spawning anything.
func (c *Controller) Run(ctx context.Context) (Outcome, error) {
	if c.Context.Config.MaxIterations == 0 {
		c.render(display.RenderOutcome, "max_iterations is 0; nothing to run")
		return Outcome{Reason: iteration.ReasonMaxIterations}, nil
	}

	iterationsRun := 0
	tasksCompleted := 0
	for {
		c.Context.CurrentIteration = iterationsRun + 1
		c.render(display.RenderBanner, fmt.Sprintf("iteration %d", c.Context.CurrentIteration))

		outcome, err := c.Engine.RunIteration(ctx, c.Context)
		if err != nil {
			c.render(display.RenderOutcome, fmt.Sprintf("failed: %v", err))
			return Outcome{IterationsRun: iterationsRun, TasksCompleted: tasksCompleted, FailedIteration: c.Context.CurrentIteration}, err
		}

		switch outcome.Kind {
		case iteration.KindDone:
			c.render(display.RenderOutcome, fmt.Sprintf("done: %s", outcome.Reason))
			return Outcome{Reason: outcome.Reason, IterationsRun: iterationsRun, TasksCompleted: tasksCompleted}, nil

		case iteration.KindDryRun:
			return Outcome{Reason: iteration.ReasonSingleIteration, IterationsRun: iterationsRun, TasksCompleted: tasksCompleted}, nil

		case iteration.KindIterationComplete:
			iterationsRun++
			tasksCompleted += outcome.TasksCompleted
			c.render(display.RenderIterationSummary, fmt.Sprintf("completed %d task(s)", outcome.TasksCompleted))

			if c.Context.OnceMode {
				return Outcome{Reason: iteration.ReasonSingleIteration, IterationsRun: iterationsRun, TasksCompleted: tasksCompleted}, nil
			}
			if uint32(iterationsRun) >= c.Context.Config.MaxIterations {
				return Outcome{Reason: iteration.ReasonMaxIterations, IterationsRun: iterationsRun, TasksCompleted: tasksCompleted}, nil
			}
			// else Running(i+1): loop again.

		default:
			return Outcome{}, errors.New("loopctl: unknown outcome kind")
		}
	}
}

// render calls fn on c.Out if a writer was configured; otherwise it is a
// no-op, so the controller's state transitions never depend on display.
func (c *Controller) render(fn func(display.Writer, string), msg string) {
	if c.Out == nil {
		return
	}
	fn(c.Out, msg)
}
