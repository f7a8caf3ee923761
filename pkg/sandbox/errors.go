package sandbox

import (
	"errors"
	"fmt"

	"github.com/dop251/goja"
)

// Sentinel errors for failure classification.
var (
	// ErrCompile indicates the source could not be compiled.
	ErrCompile = errors.New("compile error")

	// ErrRuntime indicates the source threw while running.
	ErrRuntime = errors.New("runtime error")

	// ErrInterrupted indicates the runtime was interrupted
	// because a hard limit elapsed.
	ErrInterrupted = errors.New("execution interrupted")
)

// CodeError describes a failure raised by guest code.
type CodeError struct {
	// Kind is one of the package sentinels.
	Kind error

	// Name is the JavaScript error name (e.g. "SyntaxError",
	// "TypeError"), empty when the thrown value was not an
	// error object.
	Name string

	// Message is the JavaScript error message, or the
	// stringified thrown value.
	Message string

	// Err is the underlying runtime error, if any.
	Err error
}

// Error returns the message, prefixed by the error name when
// one is known.
func (e *CodeError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s: %s", e.Name, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying runtime error.
func (e *CodeError) Unwrap() error {
	return e.Err
}

// Is matches the error's Kind sentinel.
func (e *CodeError) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

// Message returns the human-readable message of err. For a
// CodeError this is the bare JavaScript message without the
// error name, mirroring `error.message`.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var ce *CodeError
	if errors.As(err, &ce) {
		return ce.Message
	}
	return err.Error()
}

// newCodeError classifies err as returned by goja into a
// CodeError of the given kind.
func newCodeError(kind error, err error) *CodeError {
	ce := &CodeError{Kind: kind, Err: err}

	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		ce.Kind = ErrInterrupted
		ce.Message = fmt.Sprint(interrupted.Value())
		return ce
	}

	var ex *goja.Exception
	if errors.As(err, &ex) {
		ce.Name, ce.Message = describeThrown(ex.Value())
	} else {
		ce.Message = err.Error()
	}

	if ce.Message == "" {
		ce.Message = ce.Name
	}
	if ce.Message == "" {
		ce.Message = "Uncaught exception"
	}
	return ce
}

// describeThrown extracts name and message from a thrown value.
// Getters on the thrown object may themselves throw, so any panic
// degrades to an empty result.
func describeThrown(v goja.Value) (name, message string) {
	defer func() {
		if recover() != nil {
			name, message = "", ""
		}
	}()

	if v == nil || goja.IsUndefined(v) {
		return "", "undefined"
	}
	if obj, ok := v.(*goja.Object); ok {
		if n := obj.Get("name"); isPresent(n) {
			name = n.String()
		}
		if m := obj.Get("message"); isPresent(m) {
			return name, m.String()
		}
		return name, v.String()
	}
	return "", v.String()
}

func isPresent(v goja.Value) bool {
	return v != nil && !goja.IsUndefined(v) && !goja.IsNull(v)
}

// DescribeValue returns the message of a thrown or rejected
// value the way Message does for errors: `error.message` for
// error objects, the stringified value otherwise.
func DescribeValue(v goja.Value) string {
	name, message := describeThrown(v)
	if message == "" {
		message = name
	}
	return message
}
