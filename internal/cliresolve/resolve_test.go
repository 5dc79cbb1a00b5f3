package cliresolve

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolve_EnvOverrideWinsOverToken(t *testing.T) {
	r, err := Resolve("claude --model opus", "sh -c true")
	require.NoError(t, err)
	require.Equal(t, []string{"-c", "true"}, r.BaseArgs)
}

func TestResolve_ParsesBaseArgs(t *testing.T) {
	r, err := Resolve("sh --foo bar", "")
	require.NoError(t, err)
	require.Equal(t, []string{"--foo", "bar"}, r.BaseArgs)
	require.NotEmpty(t, r.Path)
}

func TestResolve_EmptyCommandIsError(t *testing.T) {
	_, err := Resolve("   ", "")
	require.Error(t, err)
}

func TestResolve_UnknownBinaryIsError(t *testing.T) {
	_, err := Resolve("definitely-not-a-real-binary-xyz", "")
	require.Error(t, err)
}

func fakeVersionScript(t *testing.T, version string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake script test assumes a POSIX shell")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "fakecmd")
	script := "#!/bin/sh\necho \"fakecmd version " + version + "\"\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestCheckVersion_NewEnoughVersionPasses(t *testing.T) {
	path := fakeVersionScript(t, "2.5.0")
	r := Resolved{Path: path}
	err := r.CheckVersion(context.Background(), "2.0.0")
	require.NoError(t, err)
}

func TestCheckVersion_TooOldVersionFails(t *testing.T) {
	path := fakeVersionScript(t, "1.0.0")
	r := Resolved{Path: path}
	err := r.CheckVersion(context.Background(), "2.0.0")
	require.Error(t, err)
}

func TestCheckVersion_UnparsableVersionIsPermitted(t *testing.T) {
	path := fakeVersionScript(t, "unknown")
	r := Resolved{Path: path}
	err := r.CheckVersion(context.Background(), "2.0.0")
	require.NoError(t, err)
}
