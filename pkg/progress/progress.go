// Package progress persists which exercises a learner has
// completed and keeps a log of evaluation attempts.
package progress

import (
	"errors"
	"sort"
	"time"

	"digital.vasic.evaluator/pkg/evaluator"
	"digital.vasic.evaluator/pkg/exercise"
	"digital.vasic.evaluator/pkg/logging"
)

// ErrInvalidKey is returned when a lesson or exercise ID is
// empty.
var ErrInvalidKey = errors.New("lesson and exercise IDs are required")

// Store records completed exercises per lesson.
type Store interface {
	// MarkCompleted records (lessonID, exerciseID) as completed.
	// Marking an exercise twice is not an error.
	MarkCompleted(lessonID, exerciseID string) error
	// IsCompleted reports whether the exercise was completed.
	IsCompleted(lessonID, exerciseID string) bool
	// Completed returns the completed exercise IDs of a lesson,
	// sorted.
	Completed(lessonID string) []string
}

// Recorder marks exercises completed when an evaluation passes
// and optionally appends every attempt to a history file. It
// implements evaluator.Observer.
type Recorder struct {
	store       Store
	historyPath string
	logger      logging.Logger
	now         func() time.Time
}

var _ evaluator.Observer = (*Recorder)(nil)

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithHistory appends every finished evaluation to the JSON
// lines file at path.
func WithHistory(path string) RecorderOption {
	return func(r *Recorder) {
		r.historyPath = path
	}
}

// WithRecorderLogger sets the logger used to report store
// failures.
func WithRecorderLogger(logger logging.Logger) RecorderOption {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// NewRecorder creates a Recorder writing to store.
func NewRecorder(store Store, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store:  store,
		logger: logging.NullLogger{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// EvaluationStarted implements evaluator.Observer.
func (r *Recorder) EvaluationStarted(evaluator.Request) {}

// EvaluationFinished implements evaluator.Observer. Requests
// without a lesson and exercise ID are not recorded.
func (r *Recorder) EvaluationFinished(
	req evaluator.Request,
	report *exercise.Report,
) {
	if req.LessonID == "" || req.ExerciseID == "" {
		return
	}

	if report.Passed {
		if err := r.store.MarkCompleted(req.LessonID, req.ExerciseID); err != nil {
			fields := append(
				logging.ExerciseFields(req.LessonID, req.ExerciseID),
				logging.ErrorField(err),
			)
			r.logger.Error("progress_save_failed", fields...)
		}
	}

	if r.historyPath == "" {
		return
	}
	entry := NewHistoryEntry(req.LessonID, req.ExerciseID, report, r.now())
	if err := AppendHistory(r.historyPath, entry); err != nil {
		r.logger.Error("history_append_failed",
			logging.StringField("path", r.historyPath),
			logging.ErrorField(err),
		)
	}
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
