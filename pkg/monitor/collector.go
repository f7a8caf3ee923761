package monitor

import (
	"sync"
	"time"

	"digital.vasic.evaluator/pkg/evaluator"
	"digital.vasic.evaluator/pkg/exercise"
)

// maxEvents bounds the event history kept by a collector; the
// oldest events are dropped first.
const maxEvents = 1000

// EventCollector captures evaluation events and aggregate
// statistics. It implements evaluator.Observer.
type EventCollector struct {
	mu       sync.RWMutex
	events   []EvaluationEvent
	handlers []func(EvaluationEvent)
	stats    CollectorStats
}

var _ evaluator.Observer = (*EventCollector)(nil)

// CollectorStats holds aggregate statistics.
type CollectorStats struct {
	Total             int           `json:"total"`
	Passed            int           `json:"passed"`
	Failed            int           `json:"failed"`
	CompilationErrors int           `json:"compilation_errors"`
	InFlight          int           `json:"in_flight"`
	StartTime         time.Time     `json:"start_time"`
	Duration          time.Duration `json:"duration"`
}

// NewEventCollector creates a new event collector.
func NewEventCollector() *EventCollector {
	return &EventCollector{
		events: make([]EvaluationEvent, 0, 64),
		stats:  CollectorStats{StartTime: time.Now()},
	}
}

// OnEvent registers a handler to be called for each event.
func (c *EventCollector) OnEvent(handler func(EvaluationEvent)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, handler)
}

// Emit records an event and notifies all handlers.
func (c *EventCollector) Emit(event EvaluationEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	c.mu.Lock()
	if len(c.events) >= maxEvents {
		copy(c.events, c.events[1:])
		c.events = c.events[:len(c.events)-1]
	}
	c.events = append(c.events, event)
	switch event.Type {
	case EventStarted:
		c.stats.InFlight++
	case EventPassed:
		c.finished()
		c.stats.Passed++
	case EventFailed:
		c.finished()
		c.stats.Failed++
	case EventCompilationError:
		c.finished()
		c.stats.Failed++
		c.stats.CompilationErrors++
	}
	c.stats.Duration = time.Since(c.stats.StartTime)
	handlers := make([]func(EvaluationEvent), len(c.handlers))
	copy(handlers, c.handlers)
	c.mu.Unlock()

	for _, h := range handlers {
		h(event)
	}
}

// finished updates counters for a terminal event. Callers hold
// c.mu.
func (c *EventCollector) finished() {
	c.stats.Total++
	if c.stats.InFlight > 0 {
		c.stats.InFlight--
	}
}

// EvaluationStarted implements evaluator.Observer.
func (c *EventCollector) EvaluationStarted(req evaluator.Request) {
	c.Emit(EvaluationEvent{
		Type:       EventStarted,
		LessonID:   req.LessonID,
		ExerciseID: req.ExerciseID,
		TestsTotal: len(req.TestCases),
	})
}

// EvaluationFinished implements evaluator.Observer.
func (c *EventCollector) EvaluationFinished(
	req evaluator.Request,
	report *exercise.Report,
) {
	c.Emit(eventFor(req, report))
}

func eventFor(req evaluator.Request, report *exercise.Report) EvaluationEvent {
	event := EvaluationEvent{
		Type:        EventFailed,
		LessonID:    req.LessonID,
		ExerciseID:  req.ExerciseID,
		Passed:      report.Passed,
		TestsPassed: report.PassedCount(),
		TestsTotal:  len(report.Results),
		Duration:    report.Duration,
	}
	switch {
	case report.HasCompilationError():
		event.Type = EventCompilationError
		event.Message = report.CompilationError
	case report.Passed:
		event.Type = EventPassed
	default:
		for _, r := range report.Results {
			if !r.Passed {
				event.Message = r.Description
				if r.Error != "" {
					event.Message += ": " + r.Error
				}
				break
			}
		}
	}
	return event
}

// Events returns a copy of all collected events.
func (c *EventCollector) Events() []EvaluationEvent {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]EvaluationEvent, len(c.events))
	copy(result, c.events)
	return result
}

// Stats returns the current aggregate statistics.
func (c *EventCollector) Stats() CollectorStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.stats
	s.Duration = time.Since(s.StartTime)
	return s
}

// Reset clears all collected events and statistics.
func (c *EventCollector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = c.events[:0]
	c.stats = CollectorStats{StartTime: time.Now()}
}
