package sandbox

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dop251/goja"
	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/file"
	"github.com/dop251/goja/parser"
)

const (
	wrapperOpen  = "(function anonymous("
	wrapperBody  = "\n) {\n"
	wrapperClose = "\n})"
)

// wrapper is a function body embedded in a function expression,
// along with what is needed to map wrapper positions back onto
// the body.
type wrapper struct {
	src         string
	headerLines int
	bodyLines   []string
}

func newWrapper(body string, params []string) wrapper {
	header := wrapperOpen + strings.Join(params, ",") + wrapperBody
	return wrapper{
		src:         header + body + wrapperClose,
		headerLines: strings.Count(header, "\n"),
		bodyLines:   strings.Split(body, "\n"),
	}
}

// spans reports whether prog is exactly the wrapper's function
// expression, from the `function` keyword to its closing brace.
func (w wrapper) spans(prog *ast.Program) bool {
	if len(prog.Body) != 1 {
		return false
	}
	stmt, ok := prog.Body[0].(*ast.ExpressionStatement)
	if !ok {
		return false
	}
	fn, ok := stmt.Expression.(*ast.FunctionLiteral)
	if !ok {
		return false
	}
	// Indexes are 1-based byte offsets; the literal starts after
	// the opening parenthesis and ends before the closing one.
	return fn.Idx0() == file.Idx(len("(")+1) &&
		fn.Idx1() == file.Idx(len(w.src))
}

// syntaxError converts a parse or compile failure into a
// CodeError whose position is relative to the body.
func (w wrapper) syntaxError(err error) *CodeError {
	ce := &CodeError{Kind: ErrCompile, Name: "SyntaxError", Err: err}

	var list parser.ErrorList
	var compileErr *goja.CompilerSyntaxError
	switch {
	case errors.As(err, &list) && len(list) > 0:
		ce.Message = w.locate(list[0].Position, list[0].Message)
	case errors.As(err, &compileErr):
		if compileErr.File != nil {
			pos := compileErr.File.Position(compileErr.Offset)
			ce.Message = w.locate(pos, compileErr.Message)
		} else {
			ce.Message = compileErr.Message
		}
	default:
		ce.Message = err.Error()
	}
	return ce
}

// locate formats msg at pos shifted past the wrapper header.
// Positions inside the wrapper's closing line are reported at
// the end of the body's last line.
func (w wrapper) locate(pos file.Position, msg string) string {
	line, col := pos.Line-w.headerLines, pos.Column
	if line > len(w.bodyLines) {
		line = len(w.bodyLines)
		col = len(w.bodyLines[line-1]) + 1
	}
	if line < 1 {
		line, col = 1, 1
	}
	return fmt.Sprintf("Line %d:%d %s", line, col, msg)
}
