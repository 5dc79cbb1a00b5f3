// Package relay implements the Interactive Input Relay: when an iteration's
// agent invokes AskUserQuestion, the relay collects an answer from a
// Prompter and resumes the session, bounding the number of question rounds
// so a confused agent cannot stall a build loop forever.
package relay

import (
	"context"
	"errors"
	"fmt"
)

// DefaultMaxRounds bounds how many AskUserQuestion rounds a single
// iteration may go through before the relay gives up.
const DefaultMaxRounds = 3

// ErrQuestionLoop is returned when an iteration asks more question rounds
// than the relay's configured limit allows.
var ErrQuestionLoop = errors.New("relay: exceeded maximum question rounds")

// Prompter collects an answer to a set of questions from whatever surface
// the caller is attached to (a terminal, a test double, a future API).
type Prompter interface {
	Prompt(ctx context.Context, questions []string) (string, error)
}

// Resumer resumes a paused agent session with the relayed answer and
// streams whatever happens next, reporting back whether the agent asked
// another round of questions.
type Resumer interface {
	Resume(ctx context.Context, answer string) (askedAgain bool, nextQuestions []string, err error)
}

// Relay drives the ask/answer/resume cycle for one iteration.
type Relay struct {
	prompter  Prompter
	maxRounds int
}

// New builds a Relay with the given Prompter. maxRounds <= 0 falls back to
// DefaultMaxRounds.
func New(prompter Prompter, maxRounds int) *Relay {
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	return &Relay{prompter: prompter, maxRounds: maxRounds}
}

// Run answers questions and resumes the session in a loop until the agent
// stops asking, or ErrQuestionLoop once maxRounds is exceeded.
func (r *Relay) Run(ctx context.Context, initialQuestions []string, resumer Resumer) error {
	questions := initialQuestions
	for round := 1; ; round++ {
		if round > r.maxRounds {
			return fmt.Errorf("%w: %d rounds asked, limit %d", ErrQuestionLoop, round-1, r.maxRounds)
		}

		answer, err := r.prompter.Prompt(ctx, questions)
		if err != nil {
			return fmt.Errorf("relay: prompt round %d: %w", round, err)
		}

		askedAgain, nextQuestions, err := resumer.Resume(ctx, answer)
		if err != nil {
			return fmt.Errorf("relay: resume round %d: %w", round, err)
		}
		if !askedAgain {
			return nil
		}
		questions = nextQuestions
	}
}
