// Package report renders evaluation reports as JSON, Markdown
// or HTML, and aggregates batches of reports into summaries.
package report

import (
	"io"

	"digital.vasic.evaluator/pkg/exercise"
)

// Entry is one evaluated submission in a batch.
type Entry struct {
	LessonID   string           `json:"lesson_id,omitempty"`
	ExerciseID string           `json:"exercise_id,omitempty"`
	Report     *exercise.Report `json:"report"`
}

// Name identifies the entry in rendered output.
func (e Entry) Name() string {
	switch {
	case e.LessonID != "" && e.ExerciseID != "":
		return e.LessonID + "/" + e.ExerciseID
	case e.ExerciseID != "":
		return e.ExerciseID
	default:
		return "(anonymous)"
	}
}

// Reporter defines the interface for rendering evaluation
// reports.
type Reporter interface {
	// GenerateReport renders a single evaluation report.
	GenerateReport(report *exercise.Report) ([]byte, error)

	// GenerateSummary renders a summary of a batch of
	// evaluations.
	GenerateSummary(entries []Entry) ([]byte, error)

	// WriteReport writes a rendered report to w.
	WriteReport(w io.Writer, report *exercise.Report) error
}

// statusOf returns the upper-case status label of a report.
func statusOf(r *exercise.Report) string {
	switch {
	case r.HasCompilationError():
		return "ERROR"
	case r.Passed:
		return "PASSED"
	default:
		return "FAILED"
	}
}
