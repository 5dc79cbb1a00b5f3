package subprocess

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func shSpec(script string) Spec {
	if runtime.GOOS == "windows" {
		return Spec{Command: "cmd", Args: []string{"/C", script}}
	}
	return Spec{Command: "/bin/sh", Args: []string{"-c", script}}
}

func TestRunCollecting_CapturesStdoutLinesInOrder(t *testing.T) {
	spec := shSpec(`echo one; echo two; echo three`)
	lines, err := RunCollecting(context.Background(), spec)
	require.NoError(t, err)

	var texts []string
	for _, l := range lines {
		require.Equal(t, Stdout, l.Stream)
		texts = append(texts, l.Text)
	}
	require.Equal(t, []string{"one", "two", "three"}, texts)
}

func TestRunCollecting_NonZeroExitReturnsExitError(t *testing.T) {
	spec := shSpec(`echo boom 1>&2; exit 7`)
	_, err := RunCollecting(context.Background(), spec)
	require.Error(t, err)

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	require.Equal(t, 7, exitErr.ExitCode)
	require.Contains(t, exitErr.StderrTail, "boom")
}

func TestRunCollecting_TimeoutKillsChildAndReturnsErrTimeout(t *testing.T) {
	spec := shSpec(`sleep 5`)
	spec.Timeout = 50 * time.Millisecond

	start := time.Now()
	_, err := RunCollecting(context.Background(), spec)
	elapsed := time.Since(start)

	require.ErrorIs(t, err, ErrTimeout)
	require.Less(t, elapsed, 4*time.Second)
}

func TestRunCollecting_CallerCancelReturnsErrCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	spec := shSpec(`sleep 5`)

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := RunCollecting(ctx, spec)
	require.ErrorIs(t, err, ErrCancelled)
}

func TestRunStreaming_EmitsBothStreams(t *testing.T) {
	spec := shSpec(`echo out1; echo err1 1>&2; echo out2`)

	var mu sync.Mutex
	var lines []OutputLine
	err := RunStreaming(context.Background(), spec, func(l OutputLine) {
		mu.Lock()
		defer mu.Unlock()
		lines = append(lines, l)
	})
	require.NoError(t, err)

	var stdoutCount, stderrCount int
	for _, l := range lines {
		switch l.Stream {
		case Stdout:
			stdoutCount++
		case Stderr:
			stderrCount++
		}
	}
	require.Equal(t, 2, stdoutCount)
	require.Equal(t, 1, stderrCount)
}

func TestStartInteractive_WriteAndReadRoundTrip(t *testing.T) {
	spec := shSpec(`while read -r line; do echo "got:$line"; done`)

	lineCh := make(chan string, 10)
	ia, err := StartInteractive(context.Background(), spec, func(l OutputLine) {
		if l.Stream == Stdout {
			lineCh <- l.Text
		}
	})
	require.NoError(t, err)

	require.NoError(t, ia.Write([]byte("hello")))

	select {
	case got := <-lineCh:
		require.Equal(t, "got:hello", got)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for echoed line")
	}

	ia.Cancel()
	_ = ia.Wait()
}

func TestStartInteractive_WaitReapsChildOnNaturalExit(t *testing.T) {
	spec := shSpec(`read -r line; echo "done:$line"`)

	done := make(chan OutputLine, 1)
	ia, err := StartInteractive(context.Background(), spec, func(l OutputLine) {
		if l.Stream == Stdout {
			done <- l
		}
	})
	require.NoError(t, err)
	require.NoError(t, ia.Write([]byte("x")))

	select {
	case l := <-done:
		require.Equal(t, "done:x", l.Text)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for output")
	}

	err = ia.Wait()
	require.NoError(t, err)
}
