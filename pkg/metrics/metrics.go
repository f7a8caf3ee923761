// Package metrics records evaluator activity: evaluations by
// outcome, per-test outcomes, latency and in-flight evaluations.
package metrics

import "time"

// Evaluation outcomes.
const (
	OutcomePassed           = "passed"
	OutcomeFailed           = "failed"
	OutcomeCompilationError = "compilation_error"
	OutcomeNoCode           = "no_code"
)

// Test outcomes.
const (
	TestPassed  = "passed"
	TestFailed  = "failed"
	TestError   = "error"
	TestTimeout = "timeout"
)

// EvaluatorMetrics defines the interface for recording evaluator
// metrics.
type EvaluatorMetrics interface {
	// RecordEvaluation records one finished evaluation.
	RecordEvaluation(outcome string, duration time.Duration)
	// RecordTest records the outcome of one test case.
	RecordTest(outcome string)
	// EvaluationStarted increments the in-flight gauge.
	EvaluationStarted()
	// EvaluationFinished decrements the in-flight gauge.
	EvaluationFinished()
}

// NoopMetrics is a no-op implementation of EvaluatorMetrics
// used when metrics collection is disabled.
type NoopMetrics struct{}

func (NoopMetrics) RecordEvaluation(_ string, _ time.Duration) {}
func (NoopMetrics) RecordTest(_ string)                        {}
func (NoopMetrics) EvaluationStarted()                         {}
func (NoopMetrics) EvaluationFinished()                        {}
