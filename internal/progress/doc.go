// Package progress implements the Progress Document: the single durable
// markdown artifact that acts as the coding agent's sole persistent memory
// across iterations. It is read whole and written whole, atomically, by
// the Iteration Engine — never partially mutated on disk.
package progress

import (
	"strings"
	"time"
)

// DoneMarker is the sentinel substring that, when present in a document's
// Status field, declares the task list complete.
const DoneMarker = "RALPH_DONE"

// Task is one checkbox item in the Tasks section, grouped under a phase
// label.
type Task struct {
	Phase       string
	Description string
	Done        bool
}

// IterationLogRow is one append-only row of the Iteration Log table. The
// engine only ever appends rows; it never rewrites or removes existing ones.
type IterationLogRow struct {
	Iteration      int
	StartedAt      time.Time
	Duration       time.Duration
	TasksCompleted int
	Notes          string
}

// Document is the full Progress Document. Every field is optional except
// that, after a successful parse, at least one of Name, Status, Tasks, or
// Analysis must be non-empty (see Load).
type Document struct {
	Name     string
	Status   string
	Analysis string

	Tasks []Task

	TestingStrategy        string
	CompletedThisIteration string
	RecentAttempts         string
	IterationLog           []IterationLogRow
}

// IsDeclaredDone reports whether Status contains the DoneMarker sentinel.
func (d *Document) IsDeclaredDone() bool {
	return strings.Contains(d.Status, DoneMarker)
}

// CompletedTaskCount returns the number of tasks marked done.
func (d *Document) CompletedTaskCount() int {
	n := 0
	for _, t := range d.Tasks {
		if t.Done {
			n++
		}
	}
	return n
}

// TotalTaskCount returns the total number of tasks, done or not.
func (d *Document) TotalTaskCount() int {
	return len(d.Tasks)
}

// AppendIterationLogRow appends one row to the append-only iteration log.
func (d *Document) AppendIterationLogRow(row IterationLogRow) {
	d.IterationLog = append(d.IterationLog, row)
}

// RecordCompletedThisIteration overwrites the free-form "completed this
// iteration" prose section. Unlike the iteration log, this section is not
// append-only — it describes the most recent iteration only.
func (d *Document) RecordCompletedThisIteration(summary string) {
	d.CompletedThisIteration = summary
}

// Clone returns a deep copy of the document, used by the Iteration Engine's
// pure merge function so neither the pre- nor post-iteration document is
// mutated in place.
func (d *Document) Clone() *Document {
	clone := *d
	clone.Tasks = append([]Task(nil), d.Tasks...)
	clone.IterationLog = append([]IterationLogRow(nil), d.IterationLog...)
	return &clone
}
