package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ralph-run/ralph/internal/stream"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.db")
	l, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestRecordIteration_AndTotals_SumsAcrossRuns(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	require.NoError(t, l.RecordIteration(ctx, RunRecord{
		RunID:          "run-1",
		WorkspacePath:  "/ws/a",
		Iteration:      1,
		Outcome:        "iteration_complete",
		TasksCompleted: 1,
		Usage:          stream.TokenUsage{Input: 10, Output: 5},
		RecordedAt:     time.Now(),
	}))
	require.NoError(t, l.RecordIteration(ctx, RunRecord{
		RunID:          "run-1",
		WorkspacePath:  "/ws/a",
		Iteration:      2,
		Outcome:        "done_declared",
		TasksCompleted: 2,
		Usage:          stream.TokenUsage{Input: 7, Output: 3, CacheReadInput: 2},
		RecordedAt:     time.Now(),
	}))

	totals, err := l.Totals(ctx, "/ws/a")
	require.NoError(t, err)
	require.Equal(t, int64(17), totals.Input)
	require.Equal(t, int64(8), totals.Output)
	require.Equal(t, int64(2), totals.CacheReadInput)
}

func TestTotals_UnknownWorkspaceIsZero(t *testing.T) {
	l := openTestLedger(t)
	totals, err := l.Totals(context.Background(), "/never/recorded")
	require.NoError(t, err)
	require.Equal(t, stream.TokenUsage{}, totals)
}

func TestRecordIteration_IsAppendOnlyAcrossWorkspaces(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	require.NoError(t, l.RecordIteration(ctx, RunRecord{RunID: "run-2", WorkspacePath: "/ws/a", Iteration: 1, Outcome: "x", Usage: stream.TokenUsage{Input: 1}, RecordedAt: time.Now()}))
	require.NoError(t, l.RecordIteration(ctx, RunRecord{RunID: "run-3", WorkspacePath: "/ws/b", Iteration: 1, Outcome: "x", Usage: stream.TokenUsage{Input: 100}, RecordedAt: time.Now()}))

	totalsA, err := l.Totals(ctx, "/ws/a")
	require.NoError(t, err)
	require.Equal(t, int64(1), totalsA.Input)

	totalsB, err := l.Totals(ctx, "/ws/b")
	require.NoError(t, err)
	require.Equal(t, int64(100), totalsB.Input)
}
