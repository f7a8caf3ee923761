package assertion

import (
	"errors"
	"fmt"

	"github.com/dop251/goja"

	"digital.vasic.evaluator/pkg/sandbox"
)

// ErrNoAssertions is returned by Predicate's result when it was
// built from an empty definition list.
var ErrNoAssertions = errors.New("no assertions defined")

// Predicate builds a test predicate that resolves every
// definition's target against the exports and requires all
// checks to pass. A failed check yields false; a target that
// cannot be called, or that throws, fails the test with its
// error. Returned promises are not awaited.
func Predicate(engine Engine, defs []Definition) sandbox.PredicateFunc {
	return func(exports *sandbox.Exports) (any, error) {
		if len(defs) == 0 {
			return nil, ErrNoAssertions
		}

		values := make(map[string]any, len(defs))
		for _, d := range defs {
			v, err := resolve(exports, d)
			if err != nil {
				return nil, err
			}
			values[d.Key()] = v
		}
		return AllPass(engine, defs, values).Passed, nil
	}
}

// Validate reports problems with a definition list that would
// make every evaluation fail.
func Validate(engine Engine, defs []Definition) error {
	var errs []error
	for i, d := range defs {
		if d.Target == "" {
			errs = append(errs, fmt.Errorf("assert[%d]: target is required", i))
		}
		if !engine.HasEvaluator(d.Type) {
			errs = append(errs, fmt.Errorf("assert[%d]: unknown assertion type: %s", i, d.Type))
		}
	}
	return errors.Join(errs...)
}

func resolve(exports *sandbox.Exports, d Definition) (any, error) {
	if d.Args == nil {
		return exports.Export(d.Target), nil
	}
	v, err := exports.Call(d.Target, d.Args...)
	if err != nil {
		return nil, err
	}
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, nil
	}
	return v.Export(), nil
}
