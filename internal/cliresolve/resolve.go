// Package cliresolve resolves the LLM CLI binary to invoke, parses its base
// argument string, and can verify its reported version against a minimum
// supported version.
package cliresolve

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"golang.org/x/mod/semver"
)

// Resolved is a parsed, located command ready to have per-iteration
// arguments appended to it.
type Resolved struct {
	Path     string
	BaseArgs []string
}

// Resolve parses commandToken (a whitespace-delimited command string, e.g.
// "claude --model opus") into a path and base arguments, applying envOverride
// (the value of <PREFIX>_CLAUDE_CMD) in place of commandToken when non-empty.
// A bare binary name is located on $PATH; an absolute or relative path is
// used as given.
func Resolve(commandToken, envOverride string) (Resolved, error) {
	token := commandToken
	if envOverride != "" {
		token = envOverride
	}
	fields := strings.Fields(token)
	if len(fields) == 0 {
		return Resolved{}, fmt.Errorf("cliresolve: empty command")
	}

	bin := fields[0]
	path, err := exec.LookPath(bin)
	if err != nil {
		return Resolved{}, fmt.Errorf("cliresolve: resolve %q: %w", bin, err)
	}

	return Resolved{Path: path, BaseArgs: fields[1:]}, nil
}

var versionPattern = regexp.MustCompile(`\d+\.\d+\.\d+`)

// CheckVersion runs "<path> --version", extracts a semver-shaped substring,
// and compares it against minVersion (a bare "MAJOR.MINOR.PATCH" string). A
// CLI whose version cannot be determined is treated as unknown-but-permitted
// — this only guards a version-gated flag, it must never hard-fail a
// working setup on its own heuristic.
func (r Resolved) CheckVersion(ctx context.Context, minVersion string) error {
	cmd := exec.CommandContext(ctx, r.Path, "--version")
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return nil
	}

	match := versionPattern.FindString(out.String())
	if match == "" {
		return nil
	}

	got := "v" + match
	want := "v" + strings.TrimPrefix(minVersion, "v")
	if !semver.IsValid(got) || !semver.IsValid(want) {
		return nil
	}

	if semver.Compare(got, want) < 0 {
		return fmt.Errorf("cliresolve: %s reports version %s, need at least %s", r.Path, match, minVersion)
	}
	return nil
}
