package vcs

import "fmt"

// FormatCommitMessage builds the commit message for an iteration that
// completed at least one task: "[<project>][iter <i>] Completed <n> task(s)".
func FormatCommitMessage(projectName string, iteration, tasksCompleted int) string {
	return fmt.Sprintf("[%s][iter %d] Completed %d task(s)", projectName, iteration, tasksCompleted)
}
