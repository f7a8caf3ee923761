package assertion

import "fmt"

// AllPass evaluates defs and requires every check to pass. The
// first failing check determines the message.
func AllPass(
	engine Engine,
	defs []Definition,
	values map[string]any,
) Result {
	results := engine.EvaluateAll(defs, values)

	for _, r := range results {
		if !r.Passed {
			return Result{
				Type:   "all_pass",
				Passed: false,
				Message: fmt.Sprintf(
					"%s on %s failed: %s",
					r.Type, r.Target, r.Message,
				),
			}
		}
	}

	return Result{
		Type:    "all_pass",
		Passed:  true,
		Message: fmt.Sprintf("all %d assertions passed", len(results)),
	}
}

// AnyPass evaluates defs and requires at least one check to
// pass.
func AnyPass(
	engine Engine,
	defs []Definition,
	values map[string]any,
) Result {
	results := engine.EvaluateAll(defs, values)

	for _, r := range results {
		if r.Passed {
			return Result{
				Type:    "any_pass",
				Passed:  true,
				Message: fmt.Sprintf("%s on %s passed", r.Type, r.Target),
			}
		}
	}

	return Result{
		Type:    "any_pass",
		Passed:  false,
		Message: fmt.Sprintf("none of %d assertions passed", len(results)),
	}
}
