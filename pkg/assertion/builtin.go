package assertion

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf16"
)

// evaluateEquals checks deep equality, treating all numeric
// types alike.
func evaluateEquals(def Definition, value any) (bool, string) {
	if deepEqual(value, def.Value) {
		return true, fmt.Sprintf("equals %v", def.Value)
	}
	return false, fmt.Sprintf("expected %v, got %v", def.Value, value)
}

func evaluateNotEquals(def Definition, value any) (bool, string) {
	if deepEqual(value, def.Value) {
		return false, fmt.Sprintf("expected a value other than %v", def.Value)
	}
	return true, fmt.Sprintf("differs from %v", def.Value)
}

// evaluateTruthy applies JavaScript truthiness to the exported
// value.
func evaluateTruthy(_ Definition, value any) (bool, string) {
	if truthy(value) {
		return true, "value is truthy"
	}
	return false, fmt.Sprintf("value %v is falsy", value)
}

// evaluateNotEmpty checks that a value is present and non-empty.
func evaluateNotEmpty(
	_ Definition,
	value any,
) (bool, string) {
	if value == nil {
		return false, "value is undefined"
	}

	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return false, "string is empty"
		}
	case []any:
		if len(v) == 0 {
			return false, "array is empty"
		}
	case map[string]any:
		if len(v) == 0 {
			return false, "object is empty"
		}
	}

	return true, "value is not empty"
}

// evaluateType compares the value's JavaScript type name, with
// arrays reported as "array".
func evaluateType(def Definition, value any) (bool, string) {
	expected, ok := def.Value.(string)
	if !ok {
		return false, "expected value is not a string"
	}
	actual := typeName(value)
	if actual == expected {
		return true, fmt.Sprintf("type is %s", actual)
	}
	return false, fmt.Sprintf("type %s, expected %s", actual, expected)
}

// evaluateContains checks that a string contains the expected
// substring, or that an array contains the expected element.
func evaluateContains(
	def Definition,
	value any,
) (bool, string) {
	switch v := value.(type) {
	case string:
		expected, ok := def.Value.(string)
		if !ok {
			return false, "expected value is not a string"
		}
		if strings.Contains(v, expected) {
			return true, fmt.Sprintf("contains '%s'", expected)
		}
		return false, fmt.Sprintf("does not contain '%s'", expected)
	case []any:
		for _, item := range v {
			if deepEqual(item, def.Value) {
				return true, fmt.Sprintf("contains %v", def.Value)
			}
		}
		return false, fmt.Sprintf("does not contain %v", def.Value)
	}
	return false, "value is not a string or array"
}

// evaluateContainsAny checks that a string contains at least one
// of the expected substrings.
func evaluateContainsAny(
	def Definition,
	value any,
) (bool, string) {
	str, ok := value.(string)
	if !ok {
		return false, "value is not a string"
	}

	var values []string
	for _, item := range def.Values {
		if s, ok := item.(string); ok {
			values = append(values, s)
		}
	}

	for _, expected := range values {
		if strings.Contains(str, expected) {
			return true, fmt.Sprintf("contains '%s'", expected)
		}
	}
	return false, fmt.Sprintf("does not contain any of: %v", values)
}

func evaluateMatches(def Definition, value any) (bool, string) {
	str, ok := value.(string)
	if !ok {
		return false, "value is not a string"
	}
	pattern, ok := def.Value.(string)
	if !ok {
		return false, "expected value is not a string"
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, fmt.Sprintf("invalid pattern: %v", err)
	}
	if re.MatchString(str) {
		return true, fmt.Sprintf("matches /%s/", pattern)
	}
	return false, fmt.Sprintf("does not match /%s/", pattern)
}

// evaluateLength checks the exact length of a string or array.
func evaluateLength(def Definition, value any) (bool, string) {
	n, ok := lengthOf(value)
	if !ok {
		return false, "value has no length"
	}
	expected, ok := toInt(def.Value)
	if !ok {
		return false, "expected value is not a number"
	}
	if n == expected {
		return true, fmt.Sprintf("length %d == %d", n, expected)
	}
	return false, fmt.Sprintf("length %d != %d", n, expected)
}

// evaluateMinLength checks that a string or array meets a
// minimum length.
func evaluateMinLength(
	def Definition,
	value any,
) (bool, string) {
	n, ok := lengthOf(value)
	if !ok {
		return false, "value has no length"
	}
	minLength, ok := toInt(def.Value)
	if !ok {
		return false, "expected value is not a number"
	}
	if n >= minLength {
		return true, fmt.Sprintf("length %d >= %d", n, minLength)
	}
	return false, fmt.Sprintf("length %d < %d", n, minLength)
}

func evaluateMaxLength(def Definition, value any) (bool, string) {
	n, ok := lengthOf(value)
	if !ok {
		return false, "value has no length"
	}
	maxLength, ok := toInt(def.Value)
	if !ok {
		return false, "expected value is not a number"
	}
	if n <= maxLength {
		return true, fmt.Sprintf("length %d <= %d", n, maxLength)
	}
	return false, fmt.Sprintf("length %d > %d", n, maxLength)
}

// evaluateMin checks that a number is at least the expected
// bound.
func evaluateMin(def Definition, value any) (bool, string) {
	n, ok := toFloat64(value)
	if !ok {
		return false, "value is not a number"
	}
	bound, ok := toFloat64(def.Value)
	if !ok {
		return false, "expected value is not a number"
	}
	if n >= bound {
		return true, fmt.Sprintf("%v >= %v", n, bound)
	}
	return false, fmt.Sprintf("%v < %v", n, bound)
}

func evaluateMax(def Definition, value any) (bool, string) {
	n, ok := toFloat64(value)
	if !ok {
		return false, "value is not a number"
	}
	bound, ok := toFloat64(def.Value)
	if !ok {
		return false, "expected value is not a number"
	}
	if n <= bound {
		return true, fmt.Sprintf("%v <= %v", n, bound)
	}
	return false, fmt.Sprintf("%v > %v", n, bound)
}

// evaluateNoDuplicates checks that an array contains no
// duplicate values (compared via fmt.Sprintf("%v")).
func evaluateNoDuplicates(
	_ Definition,
	value any,
) (bool, string) {
	items, ok := value.([]any)
	if !ok {
		return false, "value is not an array"
	}

	seen := make(map[string]bool, len(items))
	for _, item := range items {
		key := fmt.Sprintf("%v", normalize(item))
		if seen[key] {
			return false, fmt.Sprintf("duplicate found: %s", key)
		}
		seen[key] = true
	}
	return true, "no duplicates found"
}

// deepEqual compares exported values after normalising numbers.
func deepEqual(a, b any) bool {
	return reflect.DeepEqual(normalize(a), normalize(b))
}

// normalize converts numbers to float64 recursively, so values
// decoded from lesson data compare equal to exported ones.
func normalize(v any) any {
	if f, ok := toFloat64(v); ok {
		return f
	}
	switch val := v.(type) {
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalize(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalize(item)
		}
		return out
	}
	return v
}

// truthy mirrors JavaScript ToBoolean for exported values.
func truthy(v any) bool {
	if f, ok := toFloat64(v); ok {
		return f != 0 && !math.IsNaN(f)
	}
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	}
	return true
}

func typeName(v any) string {
	if _, ok := toFloat64(v); ok {
		return "number"
	}
	switch v.(type) {
	case nil:
		return "undefined"
	case bool:
		return "boolean"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	if reflect.ValueOf(v).Kind() == reflect.Func {
		return "function"
	}
	return "object"
}

// lengthOf returns the JavaScript length of a string (UTF-16
// code units) or an array.
func lengthOf(v any) (int, bool) {
	switch val := v.(type) {
	case string:
		return len(utf16.Encode([]rune(val))), true
	case []any:
		return len(val), true
	}
	return 0, false
}

func toInt(v any) (int, bool) {
	f, ok := toFloat64(v)
	if !ok || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

// toFloat64 converts an any value to float64.
func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
