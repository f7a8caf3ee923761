package exercise

import (
	"encoding/json"
	"time"
)

// NoCodeMessage is reported when an evaluation receives no code.
const NoCodeMessage = "No code provided."

// CompilationErrorPrefix prefixes the error of every synthetic
// test result produced after a compilation failure.
const CompilationErrorPrefix = "Compilation error: "

// TestResult is the outcome of one test case. Error is non-empty
// exactly when the predicate threw, rejected or timed out, and in
// that case Passed is false.
type TestResult struct {
	Passed      bool
	Description string
	Error       string
}

// Report is the composite outcome of one evaluation.
//
// A non-empty CompilationError implies Passed is false and one
// failing synthetic result per declared test case. Passed is true
// only when there is at least one result and all of them passed.
type Report struct {
	Passed           bool
	CompilationError string
	Results          []TestResult

	// Output holds console lines written by the executed code
	// and the predicates.
	Output []string

	// Duration is the wall-clock evaluation time.
	Duration time.Duration
}

// FailedReport builds the short-circuit report used when code is
// missing or fails to execute: every test case gets a synthetic
// failing result carrying testError.
func FailedReport(
	compilationError, testError string,
	cases []TestCase,
) *Report {
	results := make([]TestResult, len(cases))
	for i, tc := range cases {
		results[i] = TestResult{
			Passed:      false,
			Description: tc.Description,
			Error:       testError,
		}
	}
	return &Report{
		Passed:           false,
		CompilationError: compilationError,
		Results:          results,
	}
}

// AllPassed reports whether results is non-empty and every
// result passed.
func AllPassed(results []TestResult) bool {
	if len(results) == 0 {
		return false
	}
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}

// HasCompilationError reports whether execution failed before
// any predicate ran.
func (r *Report) HasCompilationError() bool {
	return r.CompilationError != ""
}

// PassedCount returns the number of passing results.
func (r *Report) PassedCount() int {
	n := 0
	for _, res := range r.Results {
		if res.Passed {
			n++
		}
	}
	return n
}

// FailedCount returns the number of failing results.
func (r *Report) FailedCount() int {
	return len(r.Results) - r.PassedCount()
}

// testResultJSON is the wire form of TestResult; empty errors
// are encoded as null.
type testResultJSON struct {
	Passed      bool    `json:"passed"`
	Description string  `json:"description"`
	Error       *string `json:"error"`
}

// reportJSON is the wire form of Report.
type reportJSON struct {
	Passed           bool         `json:"passed"`
	CompilationError *string      `json:"compilationError"`
	Results          []TestResult `json:"results"`
	Output           []string     `json:"output,omitempty"`
	DurationMs       int64        `json:"durationMs"`
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// MarshalJSON encodes the result as
// {"passed","description","error"} with a null error on success.
func (r TestResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(testResultJSON{
		Passed:      r.Passed,
		Description: r.Description,
		Error:       nullable(r.Error),
	})
}

// UnmarshalJSON decodes the wire form produced by MarshalJSON.
func (r *TestResult) UnmarshalJSON(data []byte) error {
	var w testResultJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	r.Passed = w.Passed
	r.Description = w.Description
	r.Error = deref(w.Error)
	return nil
}

// MarshalJSON encodes the report with a null compilationError on
// success and results always present as an array.
func (r Report) MarshalJSON() ([]byte, error) {
	results := r.Results
	if results == nil {
		results = []TestResult{}
	}
	return json.Marshal(reportJSON{
		Passed:           r.Passed,
		CompilationError: nullable(r.CompilationError),
		Results:          results,
		Output:           r.Output,
		DurationMs:       r.Duration.Milliseconds(),
	})
}

// UnmarshalJSON decodes the wire form produced by MarshalJSON.
func (r *Report) UnmarshalJSON(data []byte) error {
	var w reportJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	r.Passed = w.Passed
	r.CompilationError = deref(w.CompilationError)
	r.Results = w.Results
	r.Output = w.Output
	r.Duration = time.Duration(w.DurationMs) * time.Millisecond
	return nil
}
