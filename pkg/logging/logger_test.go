package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LogLevel(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.level.String())
		})
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("WARNING"))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel("info"))
	assert.Equal(t, LevelInfo, ParseLevel("bogus"))
}

func TestFieldHelpers(t *testing.T) {
	assert.Equal(t, Field{Key: "k", Value: "v"}, LogField("k", "v"))
	assert.Equal(t, Field{Key: "name", Value: "x"}, StringField("name", "x"))
	assert.Equal(t, Field{Key: "n", Value: 3}, IntField("n", 3))
	assert.Equal(t, Field{Key: "ok", Value: true}, BoolField("ok", true))
	assert.Equal(t,
		Field{Key: "took", Value: int64(1500)},
		DurationField("took", 1500*time.Millisecond),
	)
	assert.Equal(t, Field{Key: "test", Value: "adds"}, CaseField("adds"))
	assert.Equal(t, []Field{
		{Key: "lesson_id", Value: "basics"},
		{Key: "exercise_id", Value: "add"},
	}, ExerciseFields("basics", "add"))
}

func TestErrorField(t *testing.T) {
	f := ErrorField(errors.New("boom"))
	assert.Equal(t, "error", f.Key)
	assert.Equal(t, "boom", f.Value)

	f = ErrorField(nil)
	assert.Equal(t, "<nil>", f.Value)
}
