package metrics

import (
	"sync"
	"time"
)

// InMemoryMetrics keeps counters in memory. It is safe for
// concurrent use and mostly intended for tests and the CLI
// summary.
type InMemoryMetrics struct {
	mu          sync.Mutex
	evaluations map[string]int
	tests       map[string]int
	durations   []time.Duration
	inFlight    int
}

// NewInMemoryMetrics creates an empty InMemoryMetrics.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		evaluations: make(map[string]int),
		tests:       make(map[string]int),
	}
}

func (m *InMemoryMetrics) RecordEvaluation(outcome string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evaluations[outcome]++
	m.durations = append(m.durations, duration)
}

func (m *InMemoryMetrics) RecordTest(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tests[outcome]++
}

func (m *InMemoryMetrics) EvaluationStarted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight++
}

func (m *InMemoryMetrics) EvaluationFinished() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight--
}

// EvaluationCount returns the number of evaluations recorded
// with outcome.
func (m *InMemoryMetrics) EvaluationCount(outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.evaluations[outcome]
}

// TestCount returns the number of tests recorded with outcome.
func (m *InMemoryMetrics) TestCount(outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tests[outcome]
}

// InFlight returns the current in-flight gauge.
func (m *InMemoryMetrics) InFlight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inFlight
}

// Durations returns a copy of the recorded evaluation durations.
func (m *InMemoryMetrics) Durations() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]time.Duration, len(m.durations))
	copy(out, m.durations)
	return out
}
