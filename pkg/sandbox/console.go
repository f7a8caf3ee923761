package sandbox

import (
	"strings"
	"sync"

	"github.com/dop251/goja"

	"digital.vasic.evaluator/pkg/logging"
)

// maxConsoleLines bounds the captured output per evaluation.
const maxConsoleLines = 1000

// Console captures console.* calls made by guest code.
type Console struct {
	mu      sync.Mutex
	lines   []string
	dropped int
	logger  logging.Logger
}

// InstallConsole replaces the runtime's console global with one
// that records every line. Lines are mirrored to logger at debug
// level when logger is non-nil.
func InstallConsole(vm *goja.Runtime, logger logging.Logger) *Console {
	c := &Console{logger: logger}

	obj := vm.NewObject()
	for _, level := range []string{"log", "info", "warn", "error", "debug"} {
		level := level
		_ = obj.Set(level, func(call goja.FunctionCall) goja.Value {
			c.record(level, call.Arguments)
			return goja.Undefined()
		})
	}
	_ = vm.Set("console", obj)
	return c
}

func (c *Console) record(level string, args []goja.Value) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	line := strings.Join(parts, " ")
	if level == "warn" || level == "error" {
		line = "[" + level + "] " + line
	}

	c.mu.Lock()
	if len(c.lines) < maxConsoleLines {
		c.lines = append(c.lines, line)
	} else {
		c.dropped++
	}
	c.mu.Unlock()

	if c.logger != nil {
		c.logger.Debug("console_output",
			logging.StringField("level", level),
			logging.StringField("line", line),
		)
	}
}

// Lines returns a copy of the captured lines.
func (c *Console) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.lines), len(c.lines)+1)
	copy(out, c.lines)
	if c.dropped > 0 {
		out = append(out, "... output truncated")
	}
	return out
}
