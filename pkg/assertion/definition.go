// Package assertion provides declarative checks over the values
// an exercise submission exports. Lesson data can describe a test
// as a list of assertions instead of a predicate body; the engine
// ships with built-in check types and accepts custom ones.
package assertion

import (
	"encoding/json"
	"fmt"
)

// Definition describes a single check against one export.
type Definition struct {
	// Type is the check type (e.g. "equals", "contains",
	// "min_length").
	Type string `json:"type" yaml:"type"`

	// Target is the name of the export to check.
	Target string `json:"target" yaml:"target"`

	// Args, when non-nil, makes the check apply to the result
	// of calling Target with these arguments rather than to the
	// export itself. An empty list calls with no arguments.
	Args []any `json:"args,omitempty" yaml:"args,omitempty"`

	// Value is the expected value for single-value checks.
	Value any `json:"value,omitempty" yaml:"value,omitempty"`

	// Values holds expected values for multi-value checks
	// (e.g. "contains_any").
	Values []any `json:"values,omitempty" yaml:"values,omitempty"`

	// Message is a human-readable description shown on
	// failure.
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// Key identifies the value a definition checks: the target, plus
// the call arguments when the target is called.
func (d Definition) Key() string {
	if d.Args == nil {
		return d.Target
	}
	args, err := json.Marshal(d.Args)
	if err != nil {
		return fmt.Sprintf("%s(%v)", d.Target, d.Args)
	}
	return fmt.Sprintf("%s(%s)", d.Target, args[1:len(args)-1])
}

// Result captures the outcome of evaluating a single check.
type Result struct {
	// Type is the check type that was evaluated.
	Type string `json:"type"`

	// Target is the key of the value checked.
	Target string `json:"target"`

	// Expected is the value the check expected.
	Expected any `json:"expected"`

	// Actual is the value that was observed.
	Actual any `json:"actual"`

	// Passed indicates whether the check succeeded.
	Passed bool `json:"passed"`

	// Message is a human-readable description of the outcome.
	Message string `json:"message"`
}
