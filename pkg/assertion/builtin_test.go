package assertion

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuiltins(t *testing.T) {
	tests := []struct {
		name   string
		eval   Evaluator
		def    Definition
		value  any
		passed bool
	}{
		{"equals int and float", evaluateEquals, Definition{Value: 5}, float64(5), true},
		{"equals int64", evaluateEquals, Definition{Value: 5}, int64(5), true},
		{"equals mismatch", evaluateEquals, Definition{Value: 5}, int64(6), false},
		{"equals string", evaluateEquals, Definition{Value: "hi"}, "hi", true},
		{"equals nested", evaluateEquals,
			Definition{Value: []any{1, map[string]any{"a": 2}}},
			[]any{int64(1), map[string]any{"a": float64(2)}}, true},
		{"equals undefined", evaluateEquals, Definition{}, nil, true},
		{"not_equals", evaluateNotEquals, Definition{Value: 1}, int64(2), true},
		{"not_equals same", evaluateNotEquals, Definition{Value: 1}, int64(1), false},

		{"truthy string", evaluateTruthy, Definition{}, "x", true},
		{"truthy empty string", evaluateTruthy, Definition{}, "", false},
		{"truthy zero", evaluateTruthy, Definition{}, int64(0), false},
		{"truthy NaN", evaluateTruthy, Definition{}, math.NaN(), false},
		{"truthy empty array", evaluateTruthy, Definition{}, []any{}, true},
		{"truthy undefined", evaluateTruthy, Definition{}, nil, false},

		{"not_empty undefined", evaluateNotEmpty, Definition{}, nil, false},
		{"not_empty whitespace", evaluateNotEmpty, Definition{}, "  ", false},
		{"not_empty array", evaluateNotEmpty, Definition{}, []any{1}, true},
		{"not_empty empty object", evaluateNotEmpty, Definition{}, map[string]any{}, false},
		{"not_empty number", evaluateNotEmpty, Definition{}, int64(0), true},

		{"type number", evaluateType, Definition{Value: "number"}, int64(1), true},
		{"type array", evaluateType, Definition{Value: "array"}, []any{}, true},
		{"type function", evaluateType, Definition{Value: "function"}, func() {}, true},
		{"type undefined", evaluateType, Definition{Value: "undefined"}, nil, true},
		{"type mismatch", evaluateType, Definition{Value: "string"}, true, false},

		{"contains substring", evaluateContains, Definition{Value: "ell"}, "hello", true},
		{"contains is case sensitive", evaluateContains, Definition{Value: "ELL"}, "hello", false},
		{"contains element", evaluateContains, Definition{Value: 2}, []any{int64(1), int64(2)}, true},
		{"contains missing element", evaluateContains, Definition{Value: 3}, []any{int64(1)}, false},
		{"contains non-container", evaluateContains, Definition{Value: 1}, int64(1), false},

		{"contains_any", evaluateContainsAny, Definition{Values: []any{"x", "ll"}}, "hello", true},
		{"contains_any none", evaluateContainsAny, Definition{Values: []any{"x", "y"}}, "hello", false},

		{"matches", evaluateMatches, Definition{Value: `^\d+$`}, "123", true},
		{"matches fails", evaluateMatches, Definition{Value: `^\d+$`}, "12a", false},
		{"matches bad pattern", evaluateMatches, Definition{Value: `(`}, "x", false},

		{"length string", evaluateLength, Definition{Value: 5}, "hello", true},
		{"length utf16", evaluateLength, Definition{Value: 2}, "😀", true},
		{"length array", evaluateLength, Definition{Value: 2}, []any{1, 2}, true},
		{"length fractional expected", evaluateLength, Definition{Value: 1.5}, "a", false},
		{"min_length", evaluateMinLength, Definition{Value: 3}, "abc", true},
		{"min_length short", evaluateMinLength, Definition{Value: 4}, "abc", false},
		{"max_length", evaluateMaxLength, Definition{Value: 3}, []any{1}, true},
		{"max_length long", evaluateMaxLength, Definition{Value: 0}, []any{1}, false},

		{"min", evaluateMin, Definition{Value: 1}, float64(1.5), true},
		{"min below", evaluateMin, Definition{Value: 2}, int64(1), false},
		{"max", evaluateMax, Definition{Value: 10}, int64(10), true},
		{"max above", evaluateMax, Definition{Value: 10}, int64(11), false},
		{"max not a number", evaluateMax, Definition{Value: 10}, "10", false},

		{"no_duplicates", evaluateNoDuplicates, Definition{}, []any{int64(1), int64(2)}, true},
		{"no_duplicates mixed numbers", evaluateNoDuplicates, Definition{}, []any{int64(1), float64(1)}, false},
		{"no_duplicates not array", evaluateNoDuplicates, Definition{}, "ab", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, msg := tt.eval(tt.def, tt.value)
			assert.Equal(t, tt.passed, ok, msg)
			assert.NotEmpty(t, msg)
		})
	}
}
