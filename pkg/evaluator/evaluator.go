// Package evaluator runs user-authored exercise code against a
// list of test predicates and aggregates the outcome into a
// report.
//
// An evaluation executes setup and user code once in a fresh
// runtime, then launches every predicate on that runtime's event
// loop without waiting for earlier ones to settle. Each predicate
// races its own timer; results are collected by index, so the
// report order always matches the declared test order.
//
// Timeouts are best-effort by default: the timer is delivered on
// the event loop, so it can only win once a synchronous predicate
// has returned control. A predicate that never settles
// asynchronously is reported as timed out, while a synchronous
// infinite loop blocks the evaluation. WithHardInterrupt enables
// preemptive interruption of synchronous code instead.
package evaluator

import (
	"fmt"
	"time"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/eventloop"

	"digital.vasic.evaluator/pkg/exercise"
	"digital.vasic.evaluator/pkg/logging"
	"digital.vasic.evaluator/pkg/metrics"
	"digital.vasic.evaluator/pkg/sandbox"
)

// DefaultTestTimeout bounds how long a single predicate may take
// to settle.
const DefaultTestTimeout = 3000 * time.Millisecond

// Request is one evaluation: user code, optional setup code, and
// the ordered test cases to run against the resulting exports.
type Request struct {
	Code      string
	SetupCode string
	TestCases []exercise.TestCase

	// LessonID and ExerciseID identify the exercise for logs,
	// observers and progress tracking. Both may be empty.
	LessonID   string
	ExerciseID string
}

// Evaluator evaluates code against test cases.
//
// Evaluate never panics and never returns an error: every
// failure mode is reported inside the returned Report. There is
// no cancellation once an evaluation has started.
type Evaluator interface {
	// Evaluate runs one request.
	Evaluate(req Request) *exercise.Report

	// EvaluateExercise runs code against an exercise definition,
	// using its setup code and declared tests.
	EvaluateExercise(ex *exercise.Exercise, code string) *exercise.Report
}

// Observer is notified before and after every evaluation.
type Observer interface {
	EvaluationStarted(req Request)
	EvaluationFinished(req Request, report *exercise.Report)
}

// DefaultEvaluator is the standard Evaluator. It holds no
// per-evaluation state and is safe for concurrent use; each call
// gets its own runtime and event loop.
type DefaultEvaluator struct {
	logger        logging.Logger
	metrics       metrics.EvaluatorMetrics
	testTimeout   time.Duration
	execTimeout   time.Duration
	hardInterrupt bool
	observers     []Observer
}

// NewEvaluator creates a DefaultEvaluator with the supplied
// options.
func NewEvaluator(opts ...Option) *DefaultEvaluator {
	e := &DefaultEvaluator{
		logger:      logging.NullLogger{},
		metrics:     metrics.NoopMetrics{},
		testTimeout: DefaultTestTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.testTimeout <= 0 {
		e.testTimeout = DefaultTestTimeout
	}
	if e.execTimeout <= 0 {
		e.execTimeout = e.testTimeout
	}
	return e
}

// Evaluate runs userCode, preceded by setupCode, against
// testCases with a default evaluator.
func Evaluate(
	userCode string,
	testCases []exercise.TestCase,
	setupCode string,
) *exercise.Report {
	return NewEvaluator().Evaluate(Request{
		Code:      userCode,
		SetupCode: setupCode,
		TestCases: testCases,
	})
}

// EvaluateExercise runs code against an exercise definition.
func (e *DefaultEvaluator) EvaluateExercise(
	ex *exercise.Exercise,
	code string,
) *exercise.Report {
	return e.Evaluate(Request{
		Code:       code,
		SetupCode:  ex.SetupCode,
		TestCases:  ex.TestCases(),
		LessonID:   ex.LessonID,
		ExerciseID: ex.ID,
	})
}

// Evaluate runs one request through validation, execution and
// the test battery.
func (e *DefaultEvaluator) Evaluate(req Request) *exercise.Report {
	start := time.Now()

	e.metrics.EvaluationStarted()
	defer e.metrics.EvaluationFinished()

	for _, o := range e.observers {
		o.EvaluationStarted(req)
	}

	log := e.logger.WithFields(
		logging.ExerciseFields(req.LessonID, req.ExerciseID)...,
	)
	log.Debug("evaluation_started",
		logging.IntField("tests", len(req.TestCases)),
		logging.BoolField("has_setup", req.SetupCode != ""),
	)

	report, outcome := e.evaluate(req, log)
	report.Duration = time.Since(start)

	e.metrics.RecordEvaluation(outcome, report.Duration)

	log.Info("evaluation_completed",
		logging.StringField("outcome", outcome),
		logging.IntField("passed", report.PassedCount()),
		logging.IntField("total", len(report.Results)),
		logging.DurationField("duration_ms", report.Duration),
	)
	log.LogEvaluation(logging.EvaluationLog{
		ExerciseID:       req.ExerciseID,
		Passed:           report.Passed,
		CompilationError: report.CompilationError,
		TestsPassed:      report.PassedCount(),
		TestsTotal:       len(report.Results),
		DurationMs:       report.Duration.Milliseconds(),
	})

	for _, o := range e.observers {
		o.EvaluationFinished(req, report)
	}
	return report
}

// evaluate produces the report and its metrics outcome.
func (e *DefaultEvaluator) evaluate(
	req Request,
	log logging.Logger,
) (*exercise.Report, string) {
	if req.Code == "" {
		log.Warn("evaluation_rejected",
			logging.StringField("reason", exercise.NoCodeMessage),
		)
		return exercise.FailedReport(
			exercise.NoCodeMessage,
			exercise.NoCodeMessage,
			req.TestCases,
		), metrics.OutcomeNoCode
	}

	loop := eventloop.NewEventLoop()
	loop.Start()

	var vm *goja.Runtime
	done := make(chan *exercise.Report, 1)
	loop.RunOnLoop(func(rt *goja.Runtime) {
		vm = rt
		e.runOnLoop(loop, rt, req, log, done)
	})
	report := <-done
	haltLoop(loop, vm)

	switch {
	case report.HasCompilationError():
		return report, metrics.OutcomeCompilationError
	case report.Passed:
		return report, metrics.OutcomePassed
	default:
		return report, metrics.OutcomeFailed
	}
}

// haltInterval is how often haltLoop repeats its interrupt while
// the loop is shutting down.
const haltInterval = 10 * time.Millisecond

// haltLoop terminates loop once the report is in. Guest code still
// scheduled on it, such as a spinning timer callback, is
// interrupted; the interrupt is repeated until the loop stops
// because a callback that returns normally consumes it.
func haltLoop(loop *eventloop.EventLoop, vm *goja.Runtime) {
	stopped := make(chan struct{})
	go func() {
		ticker := time.NewTicker(haltInterval)
		defer ticker.Stop()
		for {
			vm.Interrupt("evaluation finished")
			select {
			case <-stopped:
				return
			case <-ticker.C:
			}
		}
	}()
	loop.Terminate()
	close(stopped)
}

// runOnLoop executes the code and launches the test battery. It
// runs on the loop goroutine; done receives exactly one report.
func (e *DefaultEvaluator) runOnLoop(
	loop *eventloop.EventLoop,
	vm *goja.Runtime,
	req Request,
	log logging.Logger,
	done chan<- *exercise.Report,
) {
	sent := false
	defer func() {
		if r := recover(); r != nil && !sent {
			msg := fmt.Sprintf("internal evaluator error: %v", r)
			log.Error("evaluation_panicked", logging.StringField("panic", msg))
			done <- exercise.FailedReport(
				msg, exercise.CompilationErrorPrefix+msg, req.TestCases,
			)
		}
	}()

	console := sandbox.InstallConsole(vm, log)

	var sbOpts []sandbox.Option
	if e.hardInterrupt {
		sbOpts = append(sbOpts, sandbox.WithExecutionLimit(e.execTimeout))
	}
	sb := sandbox.New(vm, sbOpts...)

	exports, err := sb.Execute(req.Code, req.SetupCode)
	if err != nil {
		msg := sandbox.Message(err)
		log.Info("compilation_failed", logging.ErrorField(err))

		report := exercise.FailedReport(
			msg,
			exercise.CompilationErrorPrefix+msg,
			req.TestCases,
		)
		report.Output = console.Lines()
		sent = true
		done <- report
		return
	}

	b := &battery{
		results: make([]exercise.TestResult, len(req.TestCases)),
		pending: len(req.TestCases),
		onDone: func(results []exercise.TestResult) {
			sent = true
			done <- &exercise.Report{
				Passed:  exercise.AllPassed(results),
				Results: results,
				Output:  console.Lines(),
			}
		},
	}

	if b.pending == 0 {
		b.onDone(b.results)
		return
	}

	for i, tc := range req.TestCases {
		t := &testRun{
			evaluator: e,
			loop:      loop,
			sandbox:   sb,
			exports:   exports,
			index:     i,
			testCase:  tc,
			log:       log,
			settle:    b.settle,
		}
		t.launch()
	}
}

// battery collects results by index. It is only touched from
// the loop goroutine.
type battery struct {
	results []exercise.TestResult
	pending int
	onDone  func([]exercise.TestResult)
}

func (b *battery) settle(index int, result exercise.TestResult) {
	b.results[index] = result
	b.pending--
	if b.pending == 0 {
		b.onDone(b.results)
	}
}
