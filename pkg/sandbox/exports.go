package sandbox

import (
	"fmt"
	"sort"

	"github.com/dop251/goja"
)

// PredicateFunc is a host-side test predicate. Its return value
// is coerced with JavaScript truthiness; a returned thenable is
// awaited. Returning an error fails the test with that error.
type PredicateFunc func(exports *Exports) (any, error)

// Exports is the output-capture object populated by executed
// source. The harness imposes no schema on its keys.
type Exports struct {
	vm  *goja.Runtime
	obj *goja.Object
}

func newExports(vm *goja.Runtime, obj *goja.Object) *Exports {
	return &Exports{vm: vm, obj: obj}
}

// Value returns the exports object as a runtime value, suitable
// for passing to compiled predicates.
func (e *Exports) Value() goja.Value {
	return e.obj
}

// Runtime returns the runtime owning the exports object.
func (e *Exports) Runtime() *goja.Runtime {
	return e.vm
}

// Keys returns the own enumerable keys, sorted.
func (e *Exports) Keys() []string {
	keys := e.obj.Keys()
	sort.Strings(keys)
	return keys
}

// Has reports whether name was assigned as an own property.
func (e *Exports) Has(name string) bool {
	for _, k := range e.obj.Keys() {
		if k == name {
			return true
		}
	}
	return false
}

// Get returns the value assigned to name, or undefined.
func (e *Exports) Get(name string) goja.Value {
	v := e.obj.Get(name)
	if v == nil {
		return goja.Undefined()
	}
	return v
}

// Export returns the Go representation of the value assigned to
// name (nil for undefined/null).
func (e *Exports) Export(name string) any {
	return e.Get(name).Export()
}

// Call invokes the function assigned to name with args converted
// to runtime values. A non-callable value yields a TypeError.
func (e *Exports) Call(name string, args ...any) (goja.Value, error) {
	fn, ok := goja.AssertFunction(e.Get(name))
	if !ok {
		return nil, &CodeError{
			Kind:    ErrRuntime,
			Name:    "TypeError",
			Message: fmt.Sprintf("%s.%s is not a function", ExportsParam, name),
		}
	}

	values := make([]goja.Value, len(args))
	for i, a := range args {
		values[i] = e.vm.ToValue(a)
	}

	v, err := fn(e.obj, values...)
	if err != nil {
		return nil, classify(err)
	}
	return v, nil
}
