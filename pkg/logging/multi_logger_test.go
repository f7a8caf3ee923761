package logging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// testMockLogger is a mock logger for testing MultiLogger delegation.
type testMockLogger struct {
	mock.Mock
}

func (m *testMockLogger) Info(msg string, fields ...Field) {
	m.Called(msg, fields)
}

func (m *testMockLogger) Warn(msg string, fields ...Field) {
	m.Called(msg, fields)
}

func (m *testMockLogger) Error(msg string, fields ...Field) {
	m.Called(msg, fields)
}

func (m *testMockLogger) Debug(msg string, fields ...Field) {
	m.Called(msg, fields)
}

func (m *testMockLogger) WithFields(fields ...Field) Logger {
	args := m.Called(fields)
	return args.Get(0).(Logger)
}

func (m *testMockLogger) LogEvaluation(entry EvaluationLog) {
	m.Called(entry)
}

func (m *testMockLogger) Close() error {
	args := m.Called()
	return args.Error(0)
}

func TestMultiLogger_FansOut(t *testing.T) {
	a := &testMockLogger{}
	b := &testMockLogger{}
	fields := []Field{StringField("k", "v")}

	for _, l := range []*testMockLogger{a, b} {
		l.On("Info", "info", fields).Once()
		l.On("Warn", "warn", []Field(nil)).Once()
		l.On("Error", "error", []Field(nil)).Once()
		l.On("Debug", "debug", []Field(nil)).Once()
	}

	m := NewMultiLogger(a, b)
	m.Info("info", fields...)
	m.Warn("warn")
	m.Error("error")
	m.Debug("debug")

	a.AssertExpectations(t)
	b.AssertExpectations(t)
}

func TestMultiLogger_LogEvaluation(t *testing.T) {
	a := &testMockLogger{}
	entry := EvaluationLog{ExerciseID: "x", Passed: true}
	a.On("LogEvaluation", entry).Once()

	NewMultiLogger(a).LogEvaluation(entry)
	a.AssertExpectations(t)
}

func TestMultiLogger_WithFields(t *testing.T) {
	a := &testMockLogger{}
	fields := []Field{StringField("exercise_id", "add")}
	a.On("WithFields", fields).Return(NullLogger{}).Once()

	child := NewMultiLogger(a).WithFields(fields...)
	assert.IsType(t, &MultiLogger{}, child)
	a.AssertExpectations(t)
}

func TestMultiLogger_Close_JoinsErrors(t *testing.T) {
	first := errors.New("first")
	second := errors.New("second")
	a := &testMockLogger{}
	b := &testMockLogger{}
	c := &testMockLogger{}
	a.On("Close").Return(first)
	b.On("Close").Return(nil)
	c.On("Close").Return(second)

	err := NewMultiLogger(a, b, c).Close()
	assert.ErrorIs(t, err, first)
	assert.ErrorIs(t, err, second)
	a.AssertExpectations(t)
	b.AssertExpectations(t)
	c.AssertExpectations(t)
}

func TestNullLogger(t *testing.T) {
	var l Logger = NullLogger{}
	l.Info("x")
	l.Warn("x")
	l.Error("x")
	l.Debug("x")
	l.LogEvaluation(EvaluationLog{})
	assert.Equal(t, NullLogger{}, l.WithFields(StringField("a", "b")))
	assert.NoError(t, l.Close())
}
