package progress

import (
	"fmt"
	"strings"
)

// Render serializes doc into the fixed markdown grammar: title, then
// "## Status", "## Analysis", "## Tasks" (grouped by "### Phase"
// subsections with GFM checkboxes), "## Testing Strategy", "## Completed
// This Iteration", "## Recent Attempts", and "## Iteration Log" (a GFM
// table), always in that order. Parse(Render(doc)) round-trips to a
// semantically equal document (whitespace normalized).
func Render(doc *Document) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Progress: %s\n\n", doc.Name)

	fmt.Fprintf(&b, "## %s\n\n%s\n\n", sectionStatus, doc.Status)
	fmt.Fprintf(&b, "## %s\n\n%s\n\n", sectionAnalysis, doc.Analysis)

	b.WriteString("## " + sectionTasks + "\n\n")
	renderTasks(&b, doc.Tasks)
	b.WriteString("\n")

	fmt.Fprintf(&b, "## %s\n\n%s\n\n", sectionTestingStrategy, doc.TestingStrategy)
	fmt.Fprintf(&b, "## %s\n\n%s\n\n", sectionCompleted, doc.CompletedThisIteration)
	fmt.Fprintf(&b, "## %s\n\n%s\n\n", sectionRecentAttempts, doc.RecentAttempts)

	b.WriteString("## " + sectionIterationLog + "\n\n")
	renderIterationLog(&b, doc.IterationLog)

	return b.String()
}

func renderTasks(b *strings.Builder, tasks []Task) {
	currentPhase := ""
	first := true
	for _, t := range tasks {
		if t.Phase != currentPhase || first {
			currentPhase = t.Phase
			if currentPhase != "" {
				fmt.Fprintf(b, "### %s\n\n", currentPhase)
			}
			first = false
		}
		box := "[ ]"
		if t.Done {
			box = "[x]"
		}
		fmt.Fprintf(b, "- %s %s\n", box, t.Description)
	}
}

func renderIterationLog(b *strings.Builder, rows []IterationLogRow) {
	b.WriteString("| Iteration | Started At | Duration | Tasks Completed | Notes |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, r := range rows {
		fmt.Fprintf(b, "| %d | %s | %s | %d | %s |\n",
			r.Iteration,
			r.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
			r.Duration.String(),
			r.TasksCompleted,
			r.Notes,
		)
	}
}
