// Package vcs provides an abstraction over version control systems so the
// Iteration Engine can commit iteration artifacts without caring whether
// the workspace is backed by Git or Sapling. Both backends shell out to
// their respective CLIs — there are no native library bindings — so the
// adapter always behaves exactly as the user's own VCS configuration would.
package vcs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Backend identifies which VCS CLI an Adapter drives.
type Backend string

const (
	Git     Backend = "git"
	Sapling Backend = "sl"
)

// CommitID is an opaque, backend-specific commit identifier.
type CommitID string

// Error wraps a failure from a VCS CLI invocation. VCS errors never abort
// the iteration loop — the Iteration Engine logs them and continues — so
// this type exists purely to let callers recognize and log the failure
// without needing to parse shell output.
type Error struct {
	Backend Backend
	Op      string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("vcs(%s): %s: %v", e.Backend, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Adapter is the capability set the Iteration Engine needs from a VCS
// backend: query for changes, stage everything, and commit.
type Adapter interface {
	Backend() Backend

	// HasChanges reports whether the working tree has uncommitted changes.
	HasChanges(ctx context.Context) (bool, error)

	// StageAll stages every change in the working tree for the next commit.
	StageAll(ctx context.Context) error

	// Commit creates a commit with the given message. It returns
	// ErrNothingToCommit if the working tree was clean.
	Commit(ctx context.Context, message string) (CommitID, error)

	// CommitAll stages everything and commits if there is anything to
	// commit. It returns a non-nil CommitID if a commit was made, or
	// ok=false if the tree was clean.
	CommitAll(ctx context.Context, message string) (id CommitID, ok bool, err error)
}

// ErrNothingToCommit is returned by Commit when the working tree has no
// staged changes.
var ErrNothingToCommit = fmt.Errorf("vcs: nothing to commit")

// Detect walks from dir looking for a VCS marker, testing Sapling (.sl)
// before Git (.git) since a Sapling checkout may carry a git-compatibility
// marker alongside its own.
func Detect(dir string) (Backend, error) {
	root := dir
	for {
		if _, err := os.Stat(filepath.Join(root, ".sl")); err == nil {
			return Sapling, nil
		}
		if _, err := os.Stat(filepath.Join(root, ".git")); err == nil {
			return Git, nil
		}

		parent := filepath.Dir(root)
		if parent == root {
			return "", fmt.Errorf("vcs: no git or sapling repository found above %s", dir)
		}
		root = parent
	}
}

// New constructs the Adapter for the requested backend rooted at
// workingDir.
func New(backend Backend, workingDir string) (Adapter, error) {
	switch backend {
	case Git:
		return newGitAdapter(workingDir), nil
	case Sapling:
		return newSaplingAdapter(workingDir), nil
	default:
		return nil, fmt.Errorf("vcs: unsupported backend %q", backend)
	}
}

// NewDetected auto-detects the backend rooted at workingDir and constructs
// the matching Adapter.
func NewDetected(workingDir string) (Adapter, error) {
	backend, err := Detect(workingDir)
	if err != nil {
		return nil, err
	}
	return New(backend, workingDir)
}
