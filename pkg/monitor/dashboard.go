package monitor

import (
	"sync"
	"time"
)

// DashboardData tracks evaluation activity per exercise. It is
// safe for concurrent use.
type DashboardData struct {
	mu    sync.RWMutex
	state DashboardSnapshot
}

// DashboardSnapshot is a point-in-time copy of the dashboard.
type DashboardSnapshot struct {
	RunID     string                   `json:"run_id"`
	StartTime time.Time                `json:"start_time"`
	Exercises map[string]ExerciseState `json:"exercises"`
	Summary   DashboardSummary         `json:"summary"`
}

// ExerciseState is the latest known state of one exercise.
type ExerciseState struct {
	Key         string        `json:"key"`
	Status      string        `json:"status"`
	Attempts    int           `json:"attempts"`
	TestsPassed int           `json:"tests_passed"`
	TestsTotal  int           `json:"tests_total"`
	LastRun     *time.Time    `json:"last_run,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
	Message     string        `json:"message,omitempty"`
}

// DashboardSummary holds aggregate stats for the dashboard.
type DashboardSummary struct {
	Total    int     `json:"total"`
	Passed   int     `json:"passed"`
	Failed   int     `json:"failed"`
	Errors   int     `json:"errors"`
	Running  int     `json:"running"`
	PassRate float64 `json:"pass_rate"`
	Elapsed  string  `json:"elapsed"`
}

// NewDashboardData creates a new dashboard data instance.
func NewDashboardData(runID string) *DashboardData {
	return &DashboardData{
		state: DashboardSnapshot{
			RunID:     runID,
			StartTime: time.Now(),
			Exercises: make(map[string]ExerciseState),
		},
	}
}

// UpdateFromEvent updates dashboard state from an evaluation
// event.
func (d *DashboardData) UpdateFromEvent(event EvaluationEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := event.Key()
	state, exists := d.state.Exercises[key]
	if !exists {
		state = ExerciseState{Key: key}
	}

	at := event.Timestamp
	if at.IsZero() {
		at = time.Now()
	}

	switch event.Type {
	case EventStarted:
		state.Status = "running"
		state.Attempts++
	case EventPassed:
		state.Status = "passed"
		state.Message = ""
	case EventFailed:
		state.Status = "failed"
		state.Message = event.Message
	case EventCompilationError:
		state.Status = "error"
		state.Message = event.Message
	}
	if event.Type != EventStarted {
		state.LastRun = &at
		state.Duration = event.Duration
		state.TestsPassed = event.TestsPassed
		state.TestsTotal = event.TestsTotal
	}

	d.state.Exercises[key] = state
	d.recalcSummary()
}

func (d *DashboardData) recalcSummary() {
	s := DashboardSummary{}
	for _, ex := range d.state.Exercises {
		s.Total++
		switch ex.Status {
		case "passed":
			s.Passed++
		case "failed":
			s.Failed++
		case "error":
			s.Errors++
		case "running":
			s.Running++
		}
	}
	if completed := s.Passed + s.Failed + s.Errors; completed > 0 {
		s.PassRate = float64(s.Passed) / float64(completed) * 100
	}
	s.Elapsed = time.Since(d.state.StartTime).Round(time.Millisecond).String()
	d.state.Summary = s
}

// Snapshot returns a copy of the current dashboard state.
func (d *DashboardData) Snapshot() DashboardSnapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	snap := d.state
	snap.Exercises = make(map[string]ExerciseState, len(d.state.Exercises))
	for k, v := range d.state.Exercises {
		snap.Exercises[k] = v
	}
	return snap
}

// BuildDashboardData creates a DashboardData snapshot from an
// EventCollector by replaying all collected events.
func BuildDashboardData(collector *EventCollector) *DashboardData {
	data := NewDashboardData("snapshot")
	for _, event := range collector.Events() {
		data.UpdateFromEvent(event)
	}
	return data
}
