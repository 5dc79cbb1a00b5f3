// Package display renders iteration banners, summaries, and warnings to a
// terminal. Every function here is a pure function of (io.Writer, data) —
// no global color state, no coupling to control flow — so the Build Loop
// Controller can call these as an observer without depending on them for
// correctness.
package display

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Writer is the output sink every render function writes to.
type Writer = io.Writer

var (
	bannerColor  = color.New(color.FgCyan, color.Bold)
	summaryColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow, color.Bold)
	outcomeColor = color.New(color.FgCyan, color.Bold)
)

// RenderBanner prints a section header announcing the start of an
// iteration.
func RenderBanner(w Writer, msg string) {
	fmt.Fprintln(w, bannerColor.Sprintf("=== %s ===", msg))
}

// RenderIterationSummary prints a one-line result of a completed iteration.
func RenderIterationSummary(w Writer, msg string) {
	fmt.Fprintf(w, "%s %s\n", summaryColor.Sprint("✓"), msg)
}

// RenderStaleWarning prints an operator-facing warning, e.g. when an
// iteration ends without declared completion and without structured
// questions — a sign the agent may have emitted a question as plaintext
// instead of the structured AskUserQuestion tool call.
func RenderStaleWarning(w Writer, msg string) {
	fmt.Fprintf(w, "%s %s\n", warnColor.Sprint("!"), msg)
}

// RenderOutcome prints the terminal result of a whole build loop run.
func RenderOutcome(w Writer, msg string) {
	fmt.Fprintln(w, outcomeColor.Sprintf("-> %s", msg))
}
