package evaluator

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/eventloop"

	"digital.vasic.evaluator/pkg/exercise"
	"digital.vasic.evaluator/pkg/logging"
	"digital.vasic.evaluator/pkg/metrics"
	"digital.vasic.evaluator/pkg/sandbox"
)

// errNoPredicate is reported for a test case with neither source
// nor a host function.
var errNoPredicate = errors.New("test case has no predicate")

// testRun evaluates one test case. All of its methods run on the
// loop goroutine.
type testRun struct {
	evaluator *DefaultEvaluator
	loop      *eventloop.EventLoop
	sandbox   *sandbox.Sandbox
	exports   *sandbox.Exports
	index     int
	testCase  exercise.TestCase
	log       logging.Logger
	settle    func(int, exercise.TestResult)

	settled   bool
	timer     *time.Timer
	delivered atomic.Bool
}

// launch invokes the predicate and races it against the timeout.
// The timer is a Go timer whose expiry is posted back onto the
// loop, so it is only observed between synchronous steps. With
// hard interrupts, a loop that still has not picked up the expiry
// one timeout later is interrupted, which ends a callback spinning
// inside a pending promise.
func (t *testRun) launch() {
	timeout := t.evaluator.testTimeout
	t.timer = time.AfterFunc(timeout, func() {
		t.loop.RunOnLoop(func(*goja.Runtime) {
			t.delivered.Store(true)
			t.timedOut()
		})
		if t.evaluator.hardInterrupt {
			vm := t.sandbox.Runtime()
			time.AfterFunc(timeout, func() {
				if !t.delivered.Load() {
					vm.Interrupt("timed out after " + timeout.String())
				}
			})
		}
	})

	value, err := t.invoke()
	if err != nil {
		if errors.Is(err, sandbox.ErrInterrupted) {
			t.timedOut()
			return
		}
		t.fail(sandbox.Message(err))
		return
	}

	if t.await(value) {
		return
	}
	t.pass(value.ToBoolean())
}

// invoke calls the predicate once. Panics raised by host
// predicates or by the runtime are converted into errors.
func (t *testRun) invoke() (value goja.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			value = nil
			err = panicError(r)
		}
	}()

	var limit time.Duration
	if t.evaluator.hardInterrupt {
		limit = t.evaluator.testTimeout
	}
	vm := t.sandbox.Runtime()

	switch {
	case t.testCase.Func != nil:
		return t.sandbox.Guard(limit, func() (goja.Value, error) {
			v, err := t.testCase.Func(t.exports)
			if err != nil {
				return nil, err
			}
			return vm.ToValue(v), nil
		})
	case t.testCase.Source != "":
		fn, err := t.sandbox.Compile(t.testCase.Source, sandbox.ExportsParam)
		if err != nil {
			return nil, err
		}
		return t.sandbox.Guard(limit, func() (goja.Value, error) {
			return fn(goja.Undefined(), t.exports.Value())
		})
	default:
		return nil, errNoPredicate
	}
}

// await subscribes to value when it is a thenable and reports
// whether it did. Settlement arrives later as a loop job.
func (t *testRun) await(value goja.Value) (awaiting bool) {
	defer func() {
		if r := recover(); r != nil {
			awaiting = true
			t.fail(sandbox.Message(panicError(r)))
		}
	}()

	obj, ok := value.(*goja.Object)
	if !ok {
		return false
	}
	then, ok := goja.AssertFunction(obj.Get("then"))
	if !ok {
		return false
	}

	vm := t.sandbox.Runtime()
	onFulfilled := func(call goja.FunctionCall) goja.Value {
		t.pass(call.Argument(0).ToBoolean())
		return goja.Undefined()
	}
	onRejected := func(call goja.FunctionCall) goja.Value {
		msg := sandbox.DescribeValue(call.Argument(0))
		if msg == "" {
			msg = "Promise rejected"
		}
		t.fail(msg)
		return goja.Undefined()
	}

	if _, err := then(obj, vm.ToValue(onFulfilled), vm.ToValue(onRejected)); err != nil {
		t.fail(sandbox.Message(err))
	}
	return true
}

func (t *testRun) timedOut() {
	if t.settled {
		return
	}
	ms := t.evaluator.testTimeout.Milliseconds()
	t.log.Warn("test_timeout",
		logging.CaseField(t.testCase.Description),
		logging.LogField("timeout_ms", ms),
	)
	t.finish(exercise.TestResult{
		Passed:      false,
		Description: t.testCase.Description,
		Error:       fmt.Sprintf("Test timed out after %dms", ms),
	}, metrics.TestTimeout)
}

// pass records a predicate that settled normally; its value was
// already coerced with JavaScript truthiness.
func (t *testRun) pass(ok bool) {
	outcome := metrics.TestPassed
	if !ok {
		outcome = metrics.TestFailed
	}
	t.finish(exercise.TestResult{
		Passed:      ok,
		Description: t.testCase.Description,
	}, outcome)
}

func (t *testRun) fail(msg string) {
	if msg == "" {
		msg = "Test failed with an empty error"
	}
	t.finish(exercise.TestResult{
		Passed:      false,
		Description: t.testCase.Description,
		Error:       msg,
	}, metrics.TestError)
}

// finish records the first settlement and ignores later ones.
func (t *testRun) finish(result exercise.TestResult, outcome string) {
	if t.settled {
		return
	}
	t.settled = true
	t.timer.Stop()

	t.evaluator.metrics.RecordTest(outcome)
	t.log.Debug("test_completed",
		logging.IntField("index", t.index),
		logging.CaseField(result.Description),
		logging.BoolField("passed", result.Passed),
	)
	t.settle(t.index, result)
}

// panicError turns a recovered panic into an error, keeping the
// runtime's own exception when there is one.
func panicError(r any) error {
	switch v := r.(type) {
	case *goja.Exception:
		return &sandbox.CodeError{
			Kind:    sandbox.ErrRuntime,
			Message: sandbox.DescribeValue(v.Value()),
			Err:     v,
		}
	case error:
		return fmt.Errorf("predicate panicked: %w", v)
	default:
		return fmt.Errorf("predicate panicked: %v", v)
	}
}
