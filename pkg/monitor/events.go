package monitor

import "time"

// EventType represents the type of evaluation event.
type EventType string

const (
	EventStarted          EventType = "started"
	EventPassed           EventType = "passed"
	EventFailed           EventType = "failed"
	EventCompilationError EventType = "compilation_error"
)

// EvaluationEvent represents a lifecycle event of one evaluation.
type EvaluationEvent struct {
	Type        EventType     `json:"type"`
	LessonID    string        `json:"lesson_id,omitempty"`
	ExerciseID  string        `json:"exercise_id,omitempty"`
	Passed      bool          `json:"passed"`
	TestsPassed int           `json:"tests_passed"`
	TestsTotal  int           `json:"tests_total"`
	Message     string        `json:"message,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
	Timestamp   time.Time     `json:"timestamp"`
}

// Key identifies the exercise the event belongs to.
func (e EvaluationEvent) Key() string {
	switch {
	case e.LessonID != "" && e.ExerciseID != "":
		return e.LessonID + "/" + e.ExerciseID
	case e.ExerciseID != "":
		return e.ExerciseID
	default:
		return "(anonymous)"
	}
}
