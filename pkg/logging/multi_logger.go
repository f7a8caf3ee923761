package logging

import "errors"

// MultiLogger fans every call out to several loggers. The CLI
// uses it to keep the operator's stderr stream while also writing
// evaluation records to the JSON files under the log directory.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger returns a logger writing to each of loggers in
// order.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	return &MultiLogger{loggers: loggers}
}

func (m *MultiLogger) Info(msg string, fields ...Field) {
	for _, l := range m.loggers {
		l.Info(msg, fields...)
	}
}

func (m *MultiLogger) Warn(msg string, fields ...Field) {
	for _, l := range m.loggers {
		l.Warn(msg, fields...)
	}
}

func (m *MultiLogger) Error(msg string, fields ...Field) {
	for _, l := range m.loggers {
		l.Error(msg, fields...)
	}
}

func (m *MultiLogger) Debug(msg string, fields ...Field) {
	for _, l := range m.loggers {
		l.Debug(msg, fields...)
	}
}

// WithFields scopes every inner logger, so per-evaluation fields
// such as the exercise IDs reach both the console and the files.
func (m *MultiLogger) WithFields(fields ...Field) Logger {
	scoped := make([]Logger, len(m.loggers))
	for i, l := range m.loggers {
		scoped[i] = l.WithFields(fields...)
	}
	return &MultiLogger{loggers: scoped}
}

// LogEvaluation hands the record to every logger; loggers without
// an evaluation sink ignore it.
func (m *MultiLogger) LogEvaluation(entry EvaluationLog) {
	for _, l := range m.loggers {
		l.LogEvaluation(entry)
	}
}

// Close closes every logger, even after a failure, and joins the
// errors.
func (m *MultiLogger) Close() error {
	var errs []error
	for _, l := range m.loggers {
		if err := l.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
