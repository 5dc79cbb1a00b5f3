package relay

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakePrompter struct {
	answers []string
	calls   [][]string
}

func (f *fakePrompter) Prompt(ctx context.Context, questions []string) (string, error) {
	f.calls = append(f.calls, questions)
	answer := f.answers[len(f.calls)-1]
	return answer, nil
}

type scriptedResumer struct {
	rounds      []roundResult
	resumeCalls []string
}

type roundResult struct {
	askedAgain    bool
	nextQuestions []string
}

func (s *scriptedResumer) Resume(ctx context.Context, answer string) (bool, []string, error) {
	s.resumeCalls = append(s.resumeCalls, answer)
	r := s.rounds[len(s.resumeCalls)-1]
	return r.askedAgain, r.nextQuestions, nil
}

func TestRelay_Run_SingleRoundResolvesCleanly(t *testing.T) {
	prompter := &fakePrompter{answers: []string{"use postgres"}}
	resumer := &scriptedResumer{rounds: []roundResult{{askedAgain: false}}}

	r := New(prompter, DefaultMaxRounds)
	err := r.Run(context.Background(), []string{"which database?"}, resumer)

	require.NoError(t, err)
	require.Len(t, prompter.calls, 1)
	require.Equal(t, []string{"use postgres"}, resumer.resumeCalls)
}

func TestRelay_Run_MultipleRoundsWithinLimit(t *testing.T) {
	prompter := &fakePrompter{answers: []string{"yes", "option B"}}
	resumer := &scriptedResumer{rounds: []roundResult{
		{askedAgain: true, nextQuestions: []string{"which option?"}},
		{askedAgain: false},
	}}

	r := New(prompter, 3)
	err := r.Run(context.Background(), []string{"proceed?"}, resumer)

	require.NoError(t, err)
	require.Len(t, prompter.calls, 2)
	require.Equal(t, []string{"which option?"}, prompter.calls[1])
}

func TestRelay_Run_ExceedsMaxRoundsReturnsErrQuestionLoop(t *testing.T) {
	prompter := &fakePrompter{answers: []string{"a", "b", "c"}}
	resumer := &scriptedResumer{rounds: []roundResult{
		{askedAgain: true, nextQuestions: []string{"q2"}},
		{askedAgain: true, nextQuestions: []string{"q3"}},
		{askedAgain: true, nextQuestions: []string{"q4"}},
	}}

	r := New(prompter, 2)
	err := r.Run(context.Background(), []string{"q1"}, resumer)

	require.Error(t, err)
	require.True(t, errors.Is(err, ErrQuestionLoop))
}

func TestNew_NonPositiveMaxRoundsFallsBackToDefault(t *testing.T) {
	r := New(&fakePrompter{}, 0)
	require.Equal(t, DefaultMaxRounds, r.maxRounds)

	r = New(&fakePrompter{}, -5)
	require.Equal(t, DefaultMaxRounds, r.maxRounds)
}
