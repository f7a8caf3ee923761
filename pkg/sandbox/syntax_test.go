package sandbox

import (
	"errors"
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
)

func TestCheckSyntax(t *testing.T) {
	tests := []struct {
		name  string
		code  string
		valid bool
	}{
		{"empty", "", true},
		{"assignment", "exports.add = (a, b) => a + b", true},
		{"return in body", "return exports.x === 1", true},
		{"unbalanced paren", "exports.x = (", false},
		{"bad token", "let = = 3", false},
		{"closes wrapper", "}); (function(){", false},
		{"closes wrapper with statements", "}); for(;;){} (function(){", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckSyntax(tt.code)
			if tt.valid {
				assert.NoError(t, err)
				assert.Empty(t, SyntaxMessage(tt.code))
				return
			}
			assert.Error(t, err)
			assert.True(t, errors.Is(err, ErrCompile))
			assert.NotEmpty(t, SyntaxMessage(tt.code))
		})
	}
}

func TestCheckSyntax_DoesNotExecute(t *testing.T) {
	assert.NoError(t, CheckSyntax("while (true) {}"))
	assert.NoError(t, CheckSyntax(`throw new Error("never")`))

	// A body that closes the function early would otherwise run its
	// middle statements while being compiled.
	err := CheckSyntax("}); for (;;) {} (function(){")
	assert.True(t, errors.Is(err, ErrCompile))
}

func TestCheckSyntax_AgreesWithExecute(t *testing.T) {
	code := "exports.x = ("

	_, execErr := New(goja.New()).Execute(code, "")
	assert.NotEmpty(t, Message(execErr))
	assert.NotEmpty(t, SyntaxMessage(code))
}
