// Package exercise defines the data model shared by the evaluator,
// the lesson bank and the reporters: test cases, per-test results,
// evaluation reports, and the declarative exercise definitions
// they are built from.
package exercise

import (
	"digital.vasic.evaluator/pkg/assertion"
	"digital.vasic.evaluator/pkg/sandbox"
)

// Lesson groups the exercises of one lesson.
type Lesson struct {
	ID        string     `json:"id" yaml:"id"`
	Title     string     `json:"title" yaml:"title"`
	Exercises []Exercise `json:"exercises" yaml:"exercises"`
}

// Exercise describes one coding exercise declaratively.
type Exercise struct {
	ID          string           `json:"id" yaml:"id"`
	LessonID    string           `json:"lessonId,omitempty" yaml:"lessonId,omitempty"`
	Title       string           `json:"title" yaml:"title"`
	Prompt      string           `json:"prompt,omitempty" yaml:"prompt,omitempty"`
	StarterCode string           `json:"starterCode,omitempty" yaml:"starterCode,omitempty"`
	SetupCode   string           `json:"setupCode,omitempty" yaml:"setupCode,omitempty"`
	Tests       []TestDefinition `json:"testCases" yaml:"testCases"`
}

// TestDefinition is a test as stored in lesson data: Test is a
// function body over `exports` returning a truthy value on
// success, e.g. "return exports.add(2, 3) === 5". Assert lists
// declarative checks used instead when Test is empty.
type TestDefinition struct {
	Description string                 `json:"description" yaml:"description"`
	Test        string                 `json:"test,omitempty" yaml:"test,omitempty"`
	Assert      []assertion.Definition `json:"assert,omitempty" yaml:"assert,omitempty"`
}

// TestCases converts the exercise's declarative tests into test
// cases for the evaluator.
func (e *Exercise) TestCases() []TestCase {
	cases := make([]TestCase, len(e.Tests))
	for i, t := range e.Tests {
		cases[i] = TestCase{
			Description: t.Description,
			Source:      t.Test,
		}
		if t.Test == "" && len(t.Assert) > 0 {
			cases[i].Func = assertion.Predicate(assertion.Default, t.Assert)
		}
	}
	return cases
}

// Key returns the (lesson, exercise) pair identifying the
// exercise in progress stores.
func (e *Exercise) Key() string {
	return e.LessonID + "/" + e.ID
}

// TestCase is a named predicate over the output-capture object.
// Exactly one of Source and Func should be set; when both are,
// Func wins.
type TestCase struct {
	// Description identifies the assertion for humans.
	Description string

	// Source is a function body over `exports`, compiled in the
	// evaluation's own runtime.
	Source string

	// Func is a host-side predicate.
	Func sandbox.PredicateFunc
}

// Check builds a host-side test case.
func Check(description string, fn sandbox.PredicateFunc) TestCase {
	return TestCase{Description: description, Func: fn}
}

// Script builds a test case from predicate source.
func Script(description, source string) TestCase {
	return TestCase{Description: description, Source: source}
}
