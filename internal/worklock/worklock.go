// Package worklock enforces single-writer exclusivity per workspace with a
// PID-stamped lock file, so a second `ralph run` against a workspace
// already being driven fails fast instead of racing the first one's
// progress-document writes and VCS commits.
package worklock

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

const lockFileName = ".lock"

// Lock describes the process currently holding a workspace.
type Lock struct {
	PID       int       `json:"pid"`
	Hostname  string    `json:"hostname"`
	StartedAt time.Time `json:"started_at"`
}

// Handle is a held lock; release it with Release once the run loop exits.
type Handle struct {
	path string
}

// Acquire claims exclusive use of workspacePath for the calling process. It
// fails if another live process already holds the lock; a lock left behind
// by a process that is no longer running is treated as stale and reclaimed.
func Acquire(workspacePath string) (*Handle, error) {
	dir := filepath.Join(workspacePath, ".ralph")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("worklock: creating lock dir: %w", err)
	}
	path := filepath.Join(dir, lockFileName)

	if data, err := os.ReadFile(path); err == nil {
		var existing Lock
		if json.Unmarshal(data, &existing) == nil && isAlive(existing.PID, existing.Hostname) {
			return nil, fmt.Errorf("worklock: workspace %s is already locked by PID %d on %s (started %s)",
				workspacePath, existing.PID, existing.Hostname, existing.StartedAt.Format(time.RFC3339))
		}
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	lock := Lock{PID: os.Getpid(), Hostname: hostname, StartedAt: time.Now()}
	data, err := json.MarshalIndent(lock, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("worklock: marshaling lock: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("worklock: writing lock file: %w", err)
	}

	return &Handle{path: path}, nil
}

// Release removes the lock file. Safe to call on an already-removed lock.
func (h *Handle) Release() error {
	if h == nil {
		return nil
	}
	if err := os.Remove(h.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("worklock: removing lock file: %w", err)
	}
	return nil
}

// isAlive reports whether pid is a live process on hostname. A lock from a
// different host is always treated as alive since there is no way to check
// it from here.
func isAlive(pid int, hostname string) bool {
	currentHost, err := os.Hostname()
	if err != nil {
		return true
	}
	if !strings.EqualFold(hostname, currentHost) {
		return true
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = process.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	if err == syscall.EPERM {
		return true
	}
	return false
}
