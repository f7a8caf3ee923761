package sandbox

import (
	"errors"
	"sync"
	"time"

	"github.com/dop251/goja"
	"github.com/dop251/goja/parser"
)

// ExportsParam is the name of the single parameter through which
// executed source publishes its results.
const ExportsParam = "exports"

// Sandbox compiles and runs source inside one runtime. A Sandbox
// is bound to the goroutine that drives its runtime and must not
// be used concurrently.
type Sandbox struct {
	vm        *goja.Runtime
	execLimit time.Duration
}

// Option configures a Sandbox.
type Option func(*Sandbox)

// WithExecutionLimit interrupts the runtime when the top-level
// run of Execute exceeds d. Zero disables the limit.
func WithExecutionLimit(d time.Duration) Option {
	return func(s *Sandbox) {
		s.execLimit = d
	}
}

// New wraps vm.
func New(vm *goja.Runtime, opts ...Option) *Sandbox {
	s := &Sandbox{vm: vm}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Runtime returns the underlying runtime.
func (s *Sandbox) Runtime() *goja.Runtime {
	return s.vm
}

// Compile turns body into a callable taking params, without
// running it. The body is parsed inside a function wrapper and
// rejected unless the wrapper's function literal is the whole
// program, so source that closes the wrapper early never reaches
// the runtime. Compilation failures are returned as a CodeError
// of kind ErrCompile.
func (s *Sandbox) Compile(
	body string,
	params ...string,
) (goja.Callable, error) {
	w := newWrapper(body, params)

	prog, err := parser.ParseFile(nil, "", w.src, 0)
	if err != nil {
		return nil, w.syntaxError(err)
	}
	if !w.spans(prog) {
		return nil, &CodeError{
			Kind:    ErrCompile,
			Name:    "SyntaxError",
			Message: "Unexpected token }",
		}
	}

	compiled, err := goja.CompileAST(prog, false)
	if err != nil {
		return nil, w.syntaxError(err)
	}

	fn, err := s.vm.RunProgram(compiled)
	if err != nil {
		return nil, newCodeError(ErrCompile, err)
	}

	callable, ok := goja.AssertFunction(fn)
	if !ok {
		return nil, &CodeError{
			Kind:    ErrCompile,
			Message: "compiled unit is not callable",
		}
	}
	return callable, nil
}

// Execute runs setupSource followed by userSource as one unit
// with a fresh exports object. The returned Exports is never nil;
// on failure it holds whatever the code assigned before failing.
func (s *Sandbox) Execute(
	userSource, setupSource string,
) (*Exports, error) {
	exports := newExports(s.vm, s.vm.NewObject())

	fn, err := s.Compile(joinSources(setupSource, userSource), ExportsParam)
	if err != nil {
		return exports, err
	}

	_, err = s.Guard(s.execLimit, func() (goja.Value, error) {
		return fn(goja.Undefined(), exports.obj)
	})
	if err != nil {
		return exports, err
	}
	return exports, nil
}

// Guard runs fn and, when limit is positive, interrupts the
// runtime if fn is still running after limit. Errors raised by
// guest code are returned as CodeError values.
func (s *Sandbox) Guard(
	limit time.Duration,
	fn func() (goja.Value, error),
) (goja.Value, error) {
	if limit <= 0 {
		v, err := fn()
		return v, classify(err)
	}

	var (
		mu       sync.Mutex
		finished bool
	)
	timer := time.AfterFunc(limit, func() {
		mu.Lock()
		defer mu.Unlock()
		if !finished {
			s.vm.Interrupt("timed out after " + limit.String())
		}
	})

	v, err := fn()

	mu.Lock()
	finished = true
	mu.Unlock()
	timer.Stop()
	s.vm.ClearInterrupt()

	return v, classify(err)
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	var ce *CodeError
	if errors.As(err, &ce) {
		return err
	}
	return newCodeError(ErrRuntime, err)
}

// joinSources concatenates setup and user source with a newline
// so the last token of one cannot merge with the first of the
// other.
func joinSources(setupSource, userSource string) string {
	if setupSource == "" {
		return userSource
	}
	return setupSource + "\n" + userSource
}
