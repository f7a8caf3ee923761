package assertion

// Evaluator is a function that evaluates a single check type
// against an exported value. It returns whether the check passed
// and a human-readable explanation.
type Evaluator func(def Definition, value any) (bool, string)
