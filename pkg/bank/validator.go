package bank

import (
	"fmt"

	"digital.vasic.evaluator/pkg/assertion"
	"digital.vasic.evaluator/pkg/sandbox"
)

// ValidationError represents a validation issue found in a bank
// file. Path locates the offending field, e.g.
// "lessons[0].exercises[2].testCases[1].test".
type ValidationError struct {
	Path    string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidateFile reads and validates a bank file, returning all
// errors found.
func ValidateFile(path string) []ValidationError {
	file, err := readBankFile(path)
	if err != nil {
		return []ValidationError{{Path: "file", Message: err.Error()}}
	}
	return Validate(file)
}

// Validate checks a decoded bank file. Test bodies are compiled,
// never run.
func Validate(file *BankFile) []ValidationError {
	var errs []ValidationError
	add := func(path, format string, args ...any) {
		errs = append(errs, ValidationError{
			Path:    path,
			Message: fmt.Sprintf(format, args...),
		})
	}

	if file.Version == "" {
		add("version", "version is required")
	}

	lessonIDs := make(map[string]bool)
	for i, l := range file.Lessons {
		lp := fmt.Sprintf("lessons[%d]", i)
		switch {
		case l.ID == "":
			add(lp+".id", "lesson ID is required")
		case lessonIDs[l.ID]:
			add(lp+".id", "duplicate lesson ID: %s", l.ID)
		default:
			lessonIDs[l.ID] = true
		}

		exerciseIDs := make(map[string]bool)
		for j, ex := range l.Exercises {
			ep := fmt.Sprintf("%s.exercises[%d]", lp, j)
			switch {
			case ex.ID == "":
				add(ep+".id", "exercise ID is required")
			case exerciseIDs[ex.ID]:
				add(ep+".id", "duplicate exercise ID: %s", ex.ID)
			default:
				exerciseIDs[ex.ID] = true
			}

			if msg := sandbox.SyntaxMessage(ex.SetupCode); msg != "" {
				add(ep+".setupCode", "does not compile: %s", msg)
			}

			for k, tc := range ex.Tests {
				tp := fmt.Sprintf("%s.testCases[%d]", ep, k)
				if tc.Description == "" {
					add(tp+".description", "description is required")
				}
				if tc.Test == "" && len(tc.Assert) > 0 {
					if err := assertion.Validate(assertion.Default, tc.Assert); err != nil {
						add(tp+".assert", "%v", err)
					}
					continue
				}
				if tc.Test == "" {
					add(tp+".test", "test body or assertions required")
					continue
				}
				if msg := sandbox.SyntaxMessage(tc.Test); msg != "" {
					add(tp+".test", "does not compile: %s", msg)
				}
			}
		}
	}

	return errs
}
