package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"digital.vasic.evaluator/pkg/exercise"
)

// MarkdownReporter renders reports as Markdown, one table row
// per test.
type MarkdownReporter struct{}

var _ Reporter = MarkdownReporter{}

// GenerateReport renders a single evaluation report.
func (m MarkdownReporter) GenerateReport(
	report *exercise.Report,
) ([]byte, error) {
	var buf bytes.Buffer
	if err := m.WriteReport(&buf, report); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteReport writes the report to w.
func (MarkdownReporter) WriteReport(
	w io.Writer,
	report *exercise.Report,
) error {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(
		"## %s (%d/%d tests)\n\n",
		statusOf(report), report.PassedCount(), len(report.Results),
	))

	if report.HasCompilationError() {
		sb.WriteString("**Compilation error:**\n\n")
		sb.WriteString("```\n" + report.CompilationError + "\n```\n\n")
	}

	if len(report.Results) > 0 {
		sb.WriteString("| | Test | Error |\n")
		sb.WriteString("|---|------|-------|\n")
		for _, res := range report.Results {
			mark := "✗"
			if res.Passed {
				mark = "✓"
			}
			sb.WriteString(fmt.Sprintf(
				"| %s | %s | %s |\n",
				mark, escapeCell(res.Description), escapeCell(res.Error),
			))
		}
		sb.WriteString("\n")
	}

	if len(report.Output) > 0 {
		sb.WriteString("**Console output:**\n\n```\n")
		sb.WriteString(strings.Join(report.Output, "\n"))
		sb.WriteString("\n```\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// GenerateSummary renders a batch summary.
func (MarkdownReporter) GenerateSummary(
	entries []Entry,
) ([]byte, error) {
	return []byte(generateSummaryMarkdown(BuildSummary(entries))), nil
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
