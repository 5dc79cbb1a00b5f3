// Package subprocess spawns, supervises, and streams output from the LLM
// CLI child process. It owns the child's lifetime exclusively: every return
// path — success, error, timeout, or cancellation — waits on or kills the
// child so an iteration never leaks a process.
package subprocess

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"golang.org/x/sync/errgroup"
)

// OutputLine is one line of output from the child, tagged by stream.
type OutputLine struct {
	Stream Stream
	Text   string
}

// Stream identifies which standard stream an OutputLine came from.
type Stream int

const (
	Stdout Stream = iota
	Stderr
)

// Spec describes one subprocess invocation.
type Spec struct {
	Command    string
	Args       []string
	WorkingDir string
	Timeout    time.Duration
}

// Errors returned by Run* functions. Cancelled and Timeout both terminate
// the child the same way; they are distinguished only so the caller can
// apply the right retry/termination policy.
var (
	ErrCancelled = errors.New("subprocess: cancelled")
	ErrTimeout   = errors.New("subprocess: timed out")
)

// ExitError is returned when the child exits with a non-zero status.
type ExitError struct {
	ExitCode   int
	StderrTail string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("subprocess: exited with code %d: %s", e.ExitCode, e.StderrTail)
}

// maxStderrTailLines bounds how much stderr is embedded in an ExitError in
// collecting mode.
const maxStderrTailLines = 20

// RunCollecting spawns the child, waits for it to exit, and returns every
// line of stdout it produced. Stdin is closed immediately.
func RunCollecting(ctx context.Context, spec Spec) ([]OutputLine, error) {
	runCtx, cancel := withSpecTimeout(ctx, spec)
	defer cancel()

	cmd := exec.CommandContext(runCtx, spec.Command, spec.Args...)
	cmd.Dir = spec.WorkingDir
	cmd.Stdin = nil

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("subprocess: stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("subprocess: stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("subprocess: start: %w", err)
	}

	var lines []OutputLine
	var stderrTail []string

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		return scanLines(gctx, stdout, func(line string) {
			lines = append(lines, OutputLine{Stream: Stdout, Text: line})
		})
	})
	g.Go(func() error {
		return scanLines(gctx, stderr, func(line string) {
			stderrTail = append(stderrTail, line)
			if len(stderrTail) > maxStderrTailLines {
				stderrTail = stderrTail[len(stderrTail)-maxStderrTailLines:]
			}
		})
	})

	readErr := g.Wait()
	waitErr := cmd.Wait()

	if err := classifyContextErr(ctx, runCtx); err != nil {
		killIfRunning(cmd)
		return lines, err
	}
	if readErr != nil {
		killIfRunning(cmd)
		return lines, fmt.Errorf("subprocess: reading output: %w", readErr)
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return lines, &ExitError{ExitCode: exitErr.ExitCode(), StderrTail: joinTail(stderrTail)}
		}
		return lines, fmt.Errorf("subprocess: wait: %w", waitErr)
	}

	return lines, nil
}

// RunStreaming spawns the child and emits each OutputLine to emit as it
// arrives. It blocks until the child exits (or the run is cancelled/timed
// out), at which point the emit channel's producer side is done — callers
// should not expect a channel here; emit is called synchronously from the
// reader goroutines and must be safe to call concurrently from both stdout
// and stderr readers (or must itself serialize).
func RunStreaming(ctx context.Context, spec Spec, emit func(OutputLine)) error {
	runCtx, cancel := withSpecTimeout(ctx, spec)
	defer cancel()

	cmd := exec.CommandContext(runCtx, spec.Command, spec.Args...)
	cmd.Dir = spec.WorkingDir
	cmd.Stdin = nil

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("subprocess: stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("subprocess: stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("subprocess: start: %w", err)
	}

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error { return scanLines(gctx, stdout, func(l string) { emit(OutputLine{Stream: Stdout, Text: l}) }) })
	g.Go(func() error { return scanLines(gctx, stderr, func(l string) { emit(OutputLine{Stream: Stderr, Text: l}) }) })

	readErr := g.Wait()
	waitErr := cmd.Wait()

	if err := classifyContextErr(ctx, runCtx); err != nil {
		killIfRunning(cmd)
		return err
	}
	if readErr != nil {
		killIfRunning(cmd)
		return fmt.Errorf("subprocess: reading output: %w", readErr)
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return &ExitError{ExitCode: exitErr.ExitCode()}
		}
		return fmt.Errorf("subprocess: wait: %w", waitErr)
	}

	return nil
}

// Interactive is a handle to a running child whose stdin remains open for
// write-back, used by the Interactive Input Relay to resume a session.
type Interactive struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	cancel context.CancelFunc
	done   chan error
}

// StartInteractive spawns the child with stdin retained, streaming output
// to emit as it arrives. The returned Interactive must have Wait called on
// it exactly once to reap the child.
func StartInteractive(ctx context.Context, spec Spec, emit func(OutputLine)) (*Interactive, error) {
	runCtx, cancel := withSpecTimeout(ctx, spec)

	cmd := exec.CommandContext(runCtx, spec.Command, spec.Args...)
	cmd.Dir = spec.WorkingDir

	stdin, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("subprocess: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("subprocess: stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("subprocess: stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("subprocess: start: %w", err)
	}

	ia := &Interactive{cmd: cmd, stdin: stdin, cancel: cancel, done: make(chan error, 1)}

	go func() {
		g, gctx := errgroup.WithContext(runCtx)
		g.Go(func() error { return scanLines(gctx, stdout, func(l string) { emit(OutputLine{Stream: Stdout, Text: l}) }) })
		g.Go(func() error { return scanLines(gctx, stderr, func(l string) { emit(OutputLine{Stream: Stderr, Text: l}) }) })
		readErr := g.Wait()
		waitErr := cmd.Wait()

		if err := classifyContextErr(ctx, runCtx); err != nil {
			ia.done <- err
			return
		}
		if readErr != nil {
			ia.done <- fmt.Errorf("subprocess: reading output: %w", readErr)
			return
		}
		if waitErr != nil {
			var exitErr *exec.ExitError
			if errors.As(waitErr, &exitErr) {
				ia.done <- &ExitError{ExitCode: exitErr.ExitCode()}
				return
			}
			ia.done <- fmt.Errorf("subprocess: wait: %w", waitErr)
			return
		}
		ia.done <- nil
	}()

	return ia, nil
}

// Write sends bytes to the child's stdin, appending a trailing newline and
// flushing. Safe to call concurrently with the background output readers.
func (ia *Interactive) Write(data []byte) error {
	if _, err := ia.stdin.Write(append(append([]byte(nil), data...), '\n')); err != nil {
		return fmt.Errorf("subprocess: stdin write: %w", err)
	}
	return nil
}

// Wait blocks until the child exits and returns its terminal error, if any.
// It always reaps the child, even if this Interactive is abandoned without
// an explicit Cancel.
func (ia *Interactive) Wait() error {
	err := <-ia.done
	ia.cancel()
	return err
}

// Cancel terminates the child immediately. Safe to call even if the child
// has already exited.
func (ia *Interactive) Cancel() {
	killIfRunning(ia.cmd)
	ia.cancel()
}

func scanLines(ctx context.Context, r io.Reader, onLine func(string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		onLine(scanner.Text())
	}
	return scanner.Err()
}

func withSpecTimeout(ctx context.Context, spec Spec) (context.Context, context.CancelFunc) {
	if spec.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, spec.Timeout)
}

// classifyContextErr distinguishes a caller-initiated cancellation from a
// spec-imposed timeout by checking which context actually expired.
func classifyContextErr(callerCtx, runCtx context.Context) error {
	if runCtx.Err() == nil {
		return nil
	}
	if callerCtx.Err() != nil {
		return ErrCancelled
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	return ErrCancelled
}

func killIfRunning(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
}

func joinTail(lines []string) string {
	var buf bytes.Buffer
	for i, l := range lines {
		if i > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(l)
	}
	return buf.String()
}
