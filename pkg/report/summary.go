package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Summary aggregates a batch of evaluations.
type Summary struct {
	ID                string            `json:"id"`
	GeneratedAt       time.Time         `json:"generated_at"`
	Exercises         []ExerciseSummary `json:"exercises"`
	TotalExercises    int               `json:"total_exercises"`
	PassedExercises   int               `json:"passed_exercises"`
	FailedExercises   int               `json:"failed_exercises"`
	CompilationErrors int               `json:"compilation_errors"`
	TestsPassed       int               `json:"tests_passed"`
	TestsTotal        int               `json:"tests_total"`
	TotalDuration     time.Duration     `json:"total_duration"`
	PassRate          float64           `json:"pass_rate"`
}

// ExerciseSummary summarises one evaluation.
type ExerciseSummary struct {
	Name             string        `json:"name"`
	Status           string        `json:"status"`
	CompilationError string        `json:"compilation_error,omitempty"`
	TestsPassed      int           `json:"tests_passed"`
	TestsTotal       int           `json:"tests_total"`
	Duration         time.Duration `json:"duration"`
}

var now = time.Now

// BuildSummary creates a summary from a batch. Entries without a
// report are skipped.
func BuildSummary(entries []Entry) *Summary {
	generated := now()
	summary := &Summary{
		ID: fmt.Sprintf(
			"summary_%s",
			generated.Format("20060102_150405"),
		),
		GeneratedAt: generated,
		Exercises:   make([]ExerciseSummary, 0, len(entries)),
	}

	for _, e := range entries {
		r := e.Report
		if r == nil {
			continue
		}

		summary.Exercises = append(summary.Exercises, ExerciseSummary{
			Name:             e.Name(),
			Status:           statusOf(r),
			CompilationError: r.CompilationError,
			TestsPassed:      r.PassedCount(),
			TestsTotal:       len(r.Results),
			Duration:         r.Duration,
		})
		summary.TotalExercises++
		summary.TestsPassed += r.PassedCount()
		summary.TestsTotal += len(r.Results)
		summary.TotalDuration += r.Duration

		if r.Passed {
			summary.PassedExercises++
		} else {
			summary.FailedExercises++
		}
		if r.HasCompilationError() {
			summary.CompilationErrors++
		}
	}

	if summary.TotalExercises > 0 {
		summary.PassRate = float64(summary.PassedExercises) /
			float64(summary.TotalExercises)
	}

	return summary
}

// SaveSummary saves the summary to both JSON and Markdown files
// in the given output directory and points latest_summary.* at
// them.
func SaveSummary(summary *Summary, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf(
			"failed to create output directory: %w", err,
		)
	}

	ts := summary.GeneratedAt.Format("20060102_150405")

	jsonPath := filepath.Join(
		outputDir, fmt.Sprintf("summary_%s.json", ts),
	)
	jsonData, err := jsonMarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	if err := os.WriteFile(jsonPath, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write JSON summary: %w", err)
	}

	mdPath := filepath.Join(
		outputDir, fmt.Sprintf("summary_%s.md", ts),
	)
	md := generateSummaryMarkdown(summary)
	if err := os.WriteFile(mdPath, []byte(md), 0644); err != nil {
		return fmt.Errorf(
			"failed to write Markdown summary: %w", err,
		)
	}

	latestJSON := filepath.Join(outputDir, "latest_summary.json")
	latestMD := filepath.Join(outputDir, "latest_summary.md")

	_ = os.Remove(latestJSON)
	_ = os.Remove(latestMD)
	_ = os.Symlink(filepath.Base(jsonPath), latestJSON)
	_ = os.Symlink(filepath.Base(mdPath), latestMD)

	return nil
}

func generateSummaryMarkdown(summary *Summary) string {
	var sb strings.Builder

	sb.WriteString("# Evaluation Summary\n\n")
	sb.WriteString(fmt.Sprintf("**Summary ID:** %s\n\n", summary.ID))
	sb.WriteString(fmt.Sprintf(
		"**Generated:** %s\n\n",
		summary.GeneratedAt.Format(time.RFC3339),
	))

	sb.WriteString("## Overview\n\n")
	sb.WriteString("| Exercise | Status | Tests | Duration |\n")
	sb.WriteString("|----------|--------|-------|----------|\n")
	for _, e := range summary.Exercises {
		sb.WriteString(fmt.Sprintf(
			"| %s | %s | %d/%d | %v |\n",
			escapeCell(e.Name), e.Status,
			e.TestsPassed, e.TestsTotal, e.Duration,
		))
	}

	sb.WriteString("\n## Statistics\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Exercises | %d |\n", summary.TotalExercises))
	sb.WriteString(fmt.Sprintf("| Passed | %d |\n", summary.PassedExercises))
	sb.WriteString(fmt.Sprintf("| Failed | %d |\n", summary.FailedExercises))
	sb.WriteString(fmt.Sprintf("| Compilation Errors | %d |\n", summary.CompilationErrors))
	sb.WriteString(fmt.Sprintf("| Tests | %d/%d |\n", summary.TestsPassed, summary.TestsTotal))
	sb.WriteString(fmt.Sprintf("| Pass Rate | %.0f%% |\n", summary.PassRate*100))
	sb.WriteString(fmt.Sprintf("| Total Duration | %v |\n", summary.TotalDuration))

	return sb.String()
}
