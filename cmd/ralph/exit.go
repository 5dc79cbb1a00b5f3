package main

// exitError carries the process exit code a command wants to surface,
// matching the engine's exit-code contract: 0 on any Done(_), 1 on
// Failed(_), 130 on Cancelled via Ctrl-C.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return "exit"
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func exitCodeFor(err error) (int, bool) {
	if ee, ok := err.(*exitError); ok {
		return ee.code, true
	}
	return 0, false
}
