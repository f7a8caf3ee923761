package progress

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"digital.vasic.evaluator/pkg/exercise"
)

// HistoryEntry is one evaluation attempt in the history log.
type HistoryEntry struct {
	Timestamp        time.Time `json:"timestamp"`
	LessonID         string    `json:"lesson_id"`
	ExerciseID       string    `json:"exercise_id"`
	Passed           bool      `json:"passed"`
	CompilationError string    `json:"compilation_error,omitempty"`
	TestsPassed      int       `json:"tests_passed"`
	TestsTotal       int       `json:"tests_total"`
	DurationMs       int64     `json:"duration_ms"`
}

// NewHistoryEntry summarises report as a history entry.
func NewHistoryEntry(
	lessonID, exerciseID string,
	report *exercise.Report,
	at time.Time,
) HistoryEntry {
	return HistoryEntry{
		Timestamp:        at,
		LessonID:         lessonID,
		ExerciseID:       exerciseID,
		Passed:           report.Passed,
		CompilationError: report.CompilationError,
		TestsPassed:      report.PassedCount(),
		TestsTotal:       len(report.Results),
		DurationMs:       report.Duration.Milliseconds(),
	}
}

// AppendHistory adds an entry to the history log stored at
// historyPath. Each entry is a single JSON line.
func AppendHistory(historyPath string, entry HistoryEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal history entry: %w", err)
	}

	file, err := os.OpenFile(
		historyPath,
		os.O_CREATE|os.O_APPEND|os.O_WRONLY,
		0644,
	)
	if err != nil {
		return fmt.Errorf("failed to open history file: %w", err)
	}
	defer func() { _ = file.Close() }()

	_, err = fmt.Fprintln(file, string(data))
	return err
}

// ReadHistory returns all entries of the history log. A missing
// file yields no entries.
func ReadHistory(historyPath string) ([]HistoryEntry, error) {
	file, err := os.Open(historyPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open history file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var entries []HistoryEntry
	scanner := bufio.NewScanner(file)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var e HistoryEntry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("history line %d: %w", line, err)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}
	return entries, nil
}
