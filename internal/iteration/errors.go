package iteration

import "fmt"

// SubprocessError wraps a non-zero agent exit. Fatal to the current
// iteration.
type SubprocessError struct {
	ExitCode   int
	StderrTail string
}

func (e *SubprocessError) Error() string {
	return fmt.Sprintf("iteration: agent exited with code %d: %s", e.ExitCode, e.StderrTail)
}

// TimeoutError means the agent exceeded its wall-clock budget and the
// configured retry allowance was exhausted.
type TimeoutError struct {
	Retries uint32
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("iteration: timed out after %d retries", e.Retries)
}

// ResponseParseError means the accumulated assistant text did not yield a
// valid progress document (all key fields empty). Fatal; nothing is
// persisted.
type ResponseParseError struct {
	Reason string
}

func (e *ResponseParseError) Error() string {
	return fmt.Sprintf("iteration: could not parse agent response into a progress document: %s", e.Reason)
}

// PersistenceError wraps an IO failure writing the progress document.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("iteration: failed to persist progress: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// QuestionLoopError means the interactive relay exceeded its round cap.
type QuestionLoopError struct {
	Err error
}

func (e *QuestionLoopError) Error() string {
	return fmt.Sprintf("iteration: question relay exceeded round cap: %v", e.Err)
}

func (e *QuestionLoopError) Unwrap() error { return e.Err }
