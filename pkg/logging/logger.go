// Package logging provides structured logging for the evaluator
// with JSON, console, and multi-destination output.
package logging

// Logger defines the interface for structured evaluator logging.
type Logger interface {
	// Info logs an informational message.
	Info(msg string, fields ...Field)

	// Warn logs a warning message.
	Warn(msg string, fields ...Field)

	// Error logs an error message.
	Error(msg string, fields ...Field)

	// Debug logs a debug-level message.
	Debug(msg string, fields ...Field)

	// WithFields returns a Logger with additional default
	// fields attached to every subsequent log entry.
	WithFields(fields ...Field) Logger

	// LogEvaluation records the summary of one finished
	// evaluation.
	LogEvaluation(entry EvaluationLog)

	// Close flushes any buffers and releases resources.
	Close() error
}

// Field represents a key-value pair for structured logging.
type Field struct {
	Key   string
	Value any
}

// EvaluationLog captures the outcome of a single evaluation
// call. It is written to the dedicated evaluation log when one
// is configured.
type EvaluationLog struct {
	Timestamp        string `json:"timestamp"`
	ExerciseID       string `json:"exercise_id,omitempty"`
	Passed           bool   `json:"passed"`
	CompilationError string `json:"compilation_error,omitempty"`
	TestsPassed      int    `json:"tests_passed"`
	TestsTotal       int    `json:"tests_total"`
	DurationMs       int64  `json:"duration_ms"`
}

// LogLevel represents logging severity levels.
type LogLevel int

const (
	// LevelDebug is the most verbose level.
	LevelDebug LogLevel = iota
	// LevelInfo is the default level.
	LevelInfo
	// LevelWarn indicates potential issues.
	LevelWarn
	// LevelError indicates failures.
	LevelError
)

// String returns the string representation of a log level.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name (case-insensitive) into a
// LogLevel. Unknown names map to LevelInfo.
func ParseLevel(name string) LogLevel {
	switch name {
	case "debug", "DEBUG":
		return LevelDebug
	case "warn", "WARN", "warning", "WARNING":
		return LevelWarn
	case "error", "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}
