package vcs

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available on PATH")
	}
}

func initGitRepo(t *testing.T) string {
	t.Helper()
	requireGit(t)

	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		require.NoErrorf(t, err, "git %v: %s", args, out)
	}
	run("init", "--initial-branch=main")
	run("config", "user.name", "Test User")
	run("config", "user.email", "test@example.com")
	return dir
}

func TestDetect_Git(t *testing.T) {
	dir := initGitRepo(t)
	backend, err := Detect(dir)
	require.NoError(t, err)
	require.Equal(t, Git, backend)
}

func TestDetect_NoRepoFound(t *testing.T) {
	dir := t.TempDir()
	_, err := Detect(dir)
	require.Error(t, err)
}

func TestGitAdapter_CommitAll(t *testing.T) {
	dir := initGitRepo(t)
	ctx := context.Background()

	adapter := newGitAdapter(dir)

	hasChanges, err := adapter.HasChanges(ctx)
	require.NoError(t, err)
	require.False(t, hasChanges)

	id, ok, err := adapter.CommitAll(ctx, "empty commit attempt")
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, id)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "file.txt"), []byte("hello"), 0o644))

	hasChanges, err = adapter.HasChanges(ctx)
	require.NoError(t, err)
	require.True(t, hasChanges)

	id, ok, err = adapter.CommitAll(ctx, FormatCommitMessage("proj", 1, 2))
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEmpty(t, id)

	hasChanges, err = adapter.HasChanges(ctx)
	require.NoError(t, err)
	require.False(t, hasChanges, "tree should be clean after commit")
}

func TestFormatCommitMessage(t *testing.T) {
	msg := FormatCommitMessage("myproj", 3, 2)
	require.Equal(t, "[myproj][iter 3] Completed 2 task(s)", msg)
}
