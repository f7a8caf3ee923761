package report

import (
	"encoding/json"
	"io"

	"digital.vasic.evaluator/pkg/exercise"
)

// JSONReporter renders reports in the evaluator's wire format:
// {"passed", "compilationError", "results"} plus captured output
// and duration.
type JSONReporter struct {
	pretty bool
}

var _ Reporter = (*JSONReporter)(nil)

// NewJSONReporter creates a new JSON reporter. When pretty is
// true, output is indented for readability.
func NewJSONReporter(pretty bool) *JSONReporter {
	return &JSONReporter{pretty: pretty}
}

func (r *JSONReporter) marshal(v any) ([]byte, error) {
	if r.pretty {
		return jsonMarshalIndent(v, "", "  ")
	}
	return jsonMarshal(v)
}

// GenerateReport creates a JSON report for a single evaluation.
func (r *JSONReporter) GenerateReport(
	report *exercise.Report,
) ([]byte, error) {
	return r.marshal(report)
}

// GenerateSummary creates a JSON summary of a batch.
func (r *JSONReporter) GenerateSummary(
	entries []Entry,
) ([]byte, error) {
	return r.marshal(BuildSummary(entries))
}

// WriteReport writes a JSON report followed by a newline.
func (r *JSONReporter) WriteReport(
	w io.Writer,
	report *exercise.Report,
) error {
	data, err := r.GenerateReport(report)
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// Indirections for tests.
var (
	jsonMarshal       = json.Marshal
	jsonMarshalIndent = json.MarshalIndent
)
