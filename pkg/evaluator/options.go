package evaluator

import (
	"time"

	"digital.vasic.evaluator/pkg/logging"
	"digital.vasic.evaluator/pkg/metrics"
)

// Option configures a DefaultEvaluator.
type Option func(*DefaultEvaluator)

// WithLogger sets the logger used by the evaluator.
func WithLogger(logger logging.Logger) Option {
	return func(e *DefaultEvaluator) {
		e.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m metrics.EvaluatorMetrics) Option {
	return func(e *DefaultEvaluator) {
		e.metrics = m
	}
}

// WithTestTimeout sets how long the evaluator waits for each
// test predicate to settle.
func WithTestTimeout(timeout time.Duration) Option {
	return func(e *DefaultEvaluator) {
		e.testTimeout = timeout
	}
}

// WithHardInterrupt makes timeouts preemptive: a predicate (or
// the top-level run) still executing synchronously when its
// budget elapses is interrupted. Without it a synchronous
// infinite loop blocks the evaluation.
func WithHardInterrupt() Option {
	return func(e *DefaultEvaluator) {
		e.hardInterrupt = true
	}
}

// WithExecutionTimeout sets the budget of the top-level run of
// user and setup code. It only applies together with
// WithHardInterrupt; zero means the test timeout.
func WithExecutionTimeout(timeout time.Duration) Option {
	return func(e *DefaultEvaluator) {
		e.execTimeout = timeout
	}
}

// WithObserver registers an observer notified around every
// evaluation.
func WithObserver(o Observer) Option {
	return func(e *DefaultEvaluator) {
		e.observers = append(e.observers, o)
	}
}
