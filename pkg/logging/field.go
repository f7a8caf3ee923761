package logging

import "time"

// ExerciseFields identifies the exercise an evaluation belongs
// to. Ad-hoc evaluations carry empty IDs.
func ExerciseFields(lessonID, exerciseID string) []Field {
	return []Field{
		{Key: "lesson_id", Value: lessonID},
		{Key: "exercise_id", Value: exerciseID},
	}
}

// CaseField names the test case a log line is about.
func CaseField(description string) Field {
	return Field{Key: "test", Value: description}
}

// LogField creates a Field from a key-value pair.
func LogField(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// StringField creates a Field with a string value.
func StringField(key, value string) Field {
	return Field{Key: key, Value: value}
}

// IntField creates a Field with an integer value.
func IntField(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// BoolField creates a Field with a boolean value.
func BoolField(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// DurationField records d in milliseconds, the unit timeouts
// and evaluation durations are reported in.
func DurationField(key string, d time.Duration) Field {
	return Field{Key: key, Value: d.Milliseconds()}
}

// ErrorField records err under "error", typically a compile or
// storage failure. A nil err is logged as "<nil>".
func ErrorField(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: "<nil>"}
	}
	return Field{Key: "error", Value: err.Error()}
}
