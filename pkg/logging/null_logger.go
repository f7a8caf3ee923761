package logging

// NullLogger discards all log output. Evaluators, progress
// recorders and the monitor server start with it until a logger
// is supplied, so library callers see no output by default.
type NullLogger struct{}

func (NullLogger) Info(_ string, _ ...Field)  {}
func (NullLogger) Warn(_ string, _ ...Field)  {}
func (NullLogger) Error(_ string, _ ...Field) {}
func (NullLogger) Debug(_ string, _ ...Field) {}

// WithFields returns the NullLogger itself.
func (NullLogger) WithFields(_ ...Field) Logger {
	return NullLogger{}
}

// LogEvaluation drops the per-evaluation record.
func (NullLogger) LogEvaluation(_ EvaluationLog) {}

func (NullLogger) Close() error { return nil }
