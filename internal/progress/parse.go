package progress

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrEmptyDocument is returned by Load when a parse produces a document with
// every primary field empty. This is a hard error: a buggy or adversarial
// agent emitting garbage must never silently erase the progress document.
var ErrEmptyDocument = errors.New("progress: parse produced empty document")

const (
	sectionStatus         = "Status"
	sectionAnalysis       = "Analysis"
	sectionTasks          = "Tasks"
	sectionTestingStrategy = "Testing Strategy"
	sectionCompleted      = "Completed This Iteration"
	sectionRecentAttempts = "Recent Attempts"
	sectionIterationLog   = "Iteration Log"
)

// Load reads the progress document at path and parses it into a Document.
// The on-disk format is a fixed markdown grammar: an H1 title, a closed set
// of H2 sections in order, GFM task checkboxes under H3 phase subsections,
// and one GFM table. Parsing is a small linear scanner rather than a
// general markdown engine, since the grammar is closed and self-authored.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("progress: reading %s: %w", path, err)
	}

	doc, err := Parse(string(data))
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Parse decodes markdown text into a Document. It returns ErrEmptyDocument
// if every primary field (Name, Status, Analysis, Tasks) ends up empty —
// that condition must propagate as a hard error to the caller, never be
// papered over with zero-value defaults.
func Parse(text string) (*Document, error) {
	doc := &Document{}

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	var (
		currentSection string
		currentPhase   string
		body           []string
	)

	flush := func() {
		section := strings.Join(body, "\n")
		section = strings.Trim(section, "\n")
		switch currentSection {
		case sectionStatus:
			doc.Status = section
		case sectionAnalysis:
			doc.Analysis = section
		case sectionTestingStrategy:
			doc.TestingStrategy = section
		case sectionCompleted:
			doc.CompletedThisIteration = section
		case sectionRecentAttempts:
			doc.RecentAttempts = section
		case sectionIterationLog:
			doc.IterationLog = parseIterationLogTable(body)
		}
		body = nil
	}

	for _, raw := range lines {
		line := raw

		switch {
		case strings.HasPrefix(line, "# "):
			title := strings.TrimPrefix(line, "# ")
			title = strings.TrimPrefix(title, "Progress:")
			doc.Name = strings.TrimSpace(title)

		case strings.HasPrefix(line, "## "):
			flush()
			currentSection = strings.TrimSpace(strings.TrimPrefix(line, "## "))
			currentPhase = ""

		case strings.HasPrefix(line, "### ") && currentSection == sectionTasks:
			currentPhase = parsePhaseLabel(line)

		case currentSection == sectionTasks && isTaskLine(line):
			task, ok := parseTaskLine(line, currentPhase)
			if ok {
				doc.Tasks = append(doc.Tasks, task)
			}

		default:
			body = append(body, line)
		}
	}
	flush()

	if doc.Name == "" && doc.Status == "" && doc.Analysis == "" && len(doc.Tasks) == 0 {
		return nil, ErrEmptyDocument
	}

	return doc, nil
}

func parsePhaseLabel(line string) string {
	label := strings.TrimSpace(strings.TrimPrefix(line, "### "))
	return label
}

func isTaskLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "- [ ]") || strings.HasPrefix(trimmed, "- [x]") || strings.HasPrefix(trimmed, "- [X]")
}

func parseTaskLine(line, phase string) (Task, bool) {
	trimmed := strings.TrimSpace(line)
	done := strings.HasPrefix(trimmed, "- [x]") || strings.HasPrefix(trimmed, "- [X]")

	var description string
	switch {
	case strings.HasPrefix(trimmed, "- [ ]"):
		description = strings.TrimSpace(strings.TrimPrefix(trimmed, "- [ ]"))
	case strings.HasPrefix(trimmed, "- [x]"):
		description = strings.TrimSpace(strings.TrimPrefix(trimmed, "- [x]"))
	case strings.HasPrefix(trimmed, "- [X]"):
		description = strings.TrimSpace(strings.TrimPrefix(trimmed, "- [X]"))
	default:
		return Task{}, false
	}

	return Task{Phase: phase, Description: description, Done: done}, true
}

// parseIterationLogTable parses the GFM table under "## Iteration Log". The
// expected header is "| Iteration | Started At | Duration | Tasks Completed | Notes |"
// followed by a separator row and zero or more data rows.
func parseIterationLogTable(body []string) []IterationLogRow {
	var rows []IterationLogRow
	dataStarted := false

	for _, line := range body {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || !strings.HasPrefix(trimmed, "|") {
			continue
		}
		cells := splitTableRow(trimmed)
		if len(cells) < 5 {
			continue
		}
		if strings.Contains(cells[0], "---") {
			dataStarted = true
			continue
		}
		if strings.EqualFold(cells[0], "Iteration") {
			continue
		}
		if !dataStarted {
			// Be lenient: some writers omit the separator oddities; accept
			// any row that isn't the header as data once we're past it.
			dataStarted = true
		}

		iter, _ := strconv.Atoi(strings.TrimSpace(cells[0]))
		startedAt, _ := time.Parse(time.RFC3339, strings.TrimSpace(cells[1]))
		duration, _ := time.ParseDuration(strings.TrimSpace(cells[2]))
		tasksCompleted, _ := strconv.Atoi(strings.TrimSpace(cells[3]))
		notes := strings.TrimSpace(cells[4])

		rows = append(rows, IterationLogRow{
			Iteration:      iter,
			StartedAt:      startedAt,
			Duration:       duration,
			TasksCompleted: tasksCompleted,
			Notes:          notes,
		})
	}

	return rows
}

func splitTableRow(line string) []string {
	trimmed := strings.Trim(line, "|")
	parts := strings.Split(trimmed, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
