package sandbox

import "github.com/dop251/goja"

// CheckSyntax compiles code as a function body over `exports`
// without running it. It returns nil when the code compiles;
// empty code is valid.
func CheckSyntax(code string) error {
	if code == "" {
		return nil
	}
	_, err := New(goja.New()).Compile(code, ExportsParam)
	return err
}

// SyntaxMessage returns the compilation error message for code,
// or the empty string when it compiles.
func SyntaxMessage(code string) string {
	return Message(CheckSyntax(code))
}
