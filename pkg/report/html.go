package report

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"
	"time"

	"digital.vasic.evaluator/pkg/exercise"
)

// HTMLReporter renders reports as standalone HTML pages.
type HTMLReporter struct{}

var _ Reporter = HTMLReporter{}

// GenerateReport creates an HTML page for a single evaluation.
func (r HTMLReporter) GenerateReport(
	report *exercise.Report,
) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.WriteReport(&buf, report); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteReport writes an HTML page to w.
func (r HTMLReporter) WriteReport(
	w io.Writer,
	report *exercise.Report,
) error {
	writeHeader(w, "Evaluation Report")

	fmt.Fprintf(
		w,
		"<h1>Evaluation Report <span class=\"%s\">%s</span></h1>\n",
		statusClass(report), statusOf(report),
	)
	fmt.Fprintf(
		w,
		"<p><strong>Tests:</strong> %d/%d &middot; "+
			"<strong>Duration:</strong> %v</p>\n",
		report.PassedCount(), len(report.Results), report.Duration,
	)

	if report.HasCompilationError() {
		fmt.Fprintln(w, "<h2>Compilation Error</h2>")
		fmt.Fprintf(
			w, "<pre class=\"status-failed\">%s</pre>\n",
			html.EscapeString(report.CompilationError),
		)
	}

	writeResults(w, report.Results)

	if len(report.Output) > 0 {
		fmt.Fprintln(w, "<h2>Console Output</h2>")
		fmt.Fprintf(
			w, "<pre>%s</pre>\n",
			html.EscapeString(strings.Join(report.Output, "\n")),
		)
	}

	writeFooter(w)
	return nil
}

func writeResults(w io.Writer, results []exercise.TestResult) {
	if len(results) == 0 {
		return
	}

	fmt.Fprintln(w, "<h2>Tests</h2>")
	fmt.Fprintln(w, "<table>")
	fmt.Fprintln(
		w, "<tr><th>Test</th><th>Passed</th><th>Error</th></tr>",
	)
	for _, res := range results {
		passed, cls := "No", "status-failed"
		if res.Passed {
			passed, cls = "Yes", "status-passed"
		}
		fmt.Fprintf(
			w,
			"<tr><td>%s</td><td class=\"%s\">%s</td>"+
				"<td>%s</td></tr>\n",
			html.EscapeString(res.Description),
			cls, passed,
			html.EscapeString(res.Error),
		)
	}
	fmt.Fprintln(w, "</table>")
}

// GenerateSummary creates an HTML summary of a batch.
func (r HTMLReporter) GenerateSummary(
	entries []Entry,
) ([]byte, error) {
	summary := BuildSummary(entries)

	var buf bytes.Buffer
	writeHeader(&buf, "Evaluation Summary")
	fmt.Fprintln(&buf, "<h1>Evaluation Summary</h1>")
	fmt.Fprintf(
		&buf,
		"<p><strong>Generated:</strong> %s</p>\n",
		summary.GeneratedAt.Format(time.RFC3339),
	)

	fmt.Fprintln(&buf, "<h2>Overview</h2>")
	fmt.Fprintln(&buf, "<table>")
	fmt.Fprintln(
		&buf,
		"<tr><th>Exercise</th><th>Status</th>"+
			"<th>Tests</th><th>Duration</th></tr>",
	)
	for _, e := range summary.Exercises {
		cls := "status-failed"
		if e.Status == "PASSED" {
			cls = "status-passed"
		}
		fmt.Fprintf(
			&buf,
			"<tr><td>%s</td><td class=\"%s\">%s</td>"+
				"<td>%d/%d</td><td>%v</td></tr>\n",
			html.EscapeString(e.Name), cls, e.Status,
			e.TestsPassed, e.TestsTotal, e.Duration,
		)
	}
	fmt.Fprintln(&buf, "</table>")

	fmt.Fprintln(&buf, "<h2>Statistics</h2>")
	fmt.Fprintln(&buf, "<table>")
	fmt.Fprintln(&buf, "<tr><th>Metric</th><th>Value</th></tr>")
	fmt.Fprintf(&buf, "<tr><td>Exercises</td><td>%d</td></tr>\n", summary.TotalExercises)
	fmt.Fprintf(&buf, "<tr><td>Passed</td><td>%d</td></tr>\n", summary.PassedExercises)
	fmt.Fprintf(&buf, "<tr><td>Failed</td><td>%d</td></tr>\n", summary.FailedExercises)
	fmt.Fprintf(&buf, "<tr><td>Pass Rate</td><td>%.0f%%</td></tr>\n", summary.PassRate*100)
	fmt.Fprintln(&buf, "</table>")

	writeFooter(&buf)
	return buf.Bytes(), nil
}

func statusClass(r *exercise.Report) string {
	if r.Passed {
		return "status-passed"
	}
	return "status-failed"
}

func writeHeader(w io.Writer, title string) {
	fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>%s</title>
<style>
body { font-family: sans-serif; max-width: 960px; margin: 0 auto; padding: 20px; color: #333; }
table { border-collapse: collapse; width: 100%%; margin: 10px 0; }
th, td { border: 1px solid #ddd; padding: 8px 12px; text-align: left; }
th { background: #3498db; color: #fff; }
pre { background: #ecf0f1; padding: 10px; overflow-x: auto; }
.status-passed { color: #27ae60; font-weight: bold; }
.status-failed { color: #e74c3c; font-weight: bold; }
</style>
</head>
<body>
`, html.EscapeString(title))
}

func writeFooter(w io.Writer) {
	fmt.Fprintln(w, "<footer><p>Generated by evaluator</p></footer>")
	fmt.Fprintln(w, "</body>")
	fmt.Fprintln(w, "</html>")
}
