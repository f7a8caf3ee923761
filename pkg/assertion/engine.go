package assertion

import (
	"fmt"
	"sync"
)

// Engine defines the interface for assertion evaluation engines.
type Engine interface {
	// Evaluate checks a single definition against the given
	// value.
	Evaluate(def Definition, value any) Result

	// EvaluateAll checks multiple definitions against a map of
	// resolved values keyed by Definition.Key.
	EvaluateAll(defs []Definition, values map[string]any) []Result

	// Register adds a custom evaluator for the given check type.
	// Returns an error if the type is already registered.
	Register(checkType string, evaluator Evaluator) error

	// HasEvaluator reports whether checkType is registered.
	HasEvaluator(checkType string) bool
}

// DefaultEngine is the standard Engine implementation. It is
// safe for concurrent use.
type DefaultEngine struct {
	mu         sync.RWMutex
	evaluators map[string]Evaluator
}

// NewEngine creates a DefaultEngine with the built-in evaluators
// pre-registered.
func NewEngine() *DefaultEngine {
	e := &DefaultEngine{
		evaluators: make(map[string]Evaluator),
	}
	e.registerDefaults()
	return e
}

// Default is the shared engine used for lesson data.
var Default Engine = NewEngine()

func (e *DefaultEngine) registerDefaults() {
	e.evaluators["equals"] = evaluateEquals
	e.evaluators["not_equals"] = evaluateNotEquals
	e.evaluators["truthy"] = evaluateTruthy
	e.evaluators["not_empty"] = evaluateNotEmpty
	e.evaluators["type"] = evaluateType
	e.evaluators["contains"] = evaluateContains
	e.evaluators["contains_any"] = evaluateContainsAny
	e.evaluators["matches"] = evaluateMatches
	e.evaluators["length"] = evaluateLength
	e.evaluators["min_length"] = evaluateMinLength
	e.evaluators["max_length"] = evaluateMaxLength
	e.evaluators["min"] = evaluateMin
	e.evaluators["max"] = evaluateMax
	e.evaluators["no_duplicates"] = evaluateNoDuplicates
}

// Register adds a custom evaluator for the given check type.
func (e *DefaultEngine) Register(
	checkType string,
	evaluator Evaluator,
) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.evaluators[checkType]; exists {
		return fmt.Errorf(
			"assertion type already registered: %s",
			checkType,
		)
	}

	e.evaluators[checkType] = evaluator
	return nil
}

// Evaluate runs a single check against the provided value.
func (e *DefaultEngine) Evaluate(
	def Definition,
	value any,
) Result {
	e.mu.RLock()
	evaluator, exists := e.evaluators[def.Type]
	e.mu.RUnlock()

	if !exists {
		return Result{
			Type:   def.Type,
			Target: def.Key(),
			Passed: false,
			Message: fmt.Sprintf(
				"unknown assertion type: %s",
				def.Type,
			),
		}
	}

	passed, message := evaluator(def, value)
	if !passed && def.Message != "" {
		message = def.Message + ": " + message
	}

	return Result{
		Type:     def.Type,
		Target:   def.Key(),
		Expected: def.Value,
		Actual:   value,
		Passed:   passed,
		Message:  message,
	}
}

// EvaluateAll runs multiple checks against a map of resolved
// values. A missing key fails its check.
func (e *DefaultEngine) EvaluateAll(
	defs []Definition,
	values map[string]any,
) []Result {
	results := make([]Result, 0, len(defs))

	for _, d := range defs {
		value, exists := values[d.Key()]
		if !exists {
			results = append(results, Result{
				Type:   d.Type,
				Target: d.Key(),
				Passed: false,
				Message: fmt.Sprintf(
					"target not found: %s", d.Key(),
				),
			})
			continue
		}

		results = append(results, e.Evaluate(d, value))
	}

	return results
}

// HasEvaluator returns true if the given check type has a
// registered evaluator.
func (e *DefaultEngine) HasEvaluator(checkType string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, exists := e.evaluators[checkType]
	return exists
}
