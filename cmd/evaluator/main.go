// Command evaluator checks and evaluates exercise submissions
// against a lesson bank, and serves live evaluation events.
//
// Usage:
//
//	evaluator [-config file] [-env file] <command> [flags] [args]
//
// Commands:
//
//	check     syntax-check source files without running them
//	run       evaluate one submission against a bank exercise
//	batch     evaluate a directory of submissions for one lesson
//	validate  validate lesson bank files
//	lessons   list lessons, exercises and completion
//	serve     run the monitor server with POST /evaluate
//
// Settings come from defaults, the optional YAML config file and
// EVALUATOR_* environment variables, in that order.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"digital.vasic.evaluator/pkg/env"
	"digital.vasic.evaluator/pkg/logging"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailed  = 1
	exitUsage   = 2
	exitRuntime = 3
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// app carries what every command needs.
type app struct {
	cfg    *env.Config
	logger logging.Logger
	stdout io.Writer
	stderr io.Writer
}

type command struct {
	summary string
	run     func(a *app, args []string) int
}

var commands = map[string]command{
	"check":    {"syntax-check source files", runCheck},
	"run":      {"evaluate a submission against an exercise", runEvaluate},
	"batch":    {"evaluate a directory of submissions", runBatch},
	"validate": {"validate lesson bank files", runValidate},
	"lessons":  {"list lessons and completion", runLessons},
	"serve":    {"run the monitor server", runServe},
}

var commandOrder = []string{"check", "run", "batch", "validate", "lessons", "serve"}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("evaluator", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML config file")
	envFile := fs.String("env", ".env", "dotenv file, ignored when missing")
	fs.Usage = func() { usage(stderr) }
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	if fs.NArg() == 0 {
		usage(stderr)
		return exitUsage
	}
	cmd, ok := commands[fs.Arg(0)]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", fs.Arg(0))
		usage(stderr)
		return exitUsage
	}

	loader := env.NewLoader()
	if err := loader.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitRuntime
	}
	cfg, err := env.LoadConfig(loader, *configPath)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}

	logger, err := newLogger(cfg, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitRuntime
	}
	defer func() { _ = logger.Close() }()

	return cmd.run(&app{
		cfg:    cfg,
		logger: logger,
		stdout: stdout,
		stderr: stderr,
	}, fs.Args()[1:])
}

// newLogger builds the console or JSON logger on stderr, adding
// JSON log files when a log directory is configured.
func newLogger(cfg *env.Config, stderr io.Writer) (logging.Logger, error) {
	level := logging.LevelInfo
	if cfg.Verbose {
		level = logging.LevelDebug
	}

	var primary logging.Logger
	if cfg.LogFormat == env.LogFormatJSON {
		primary = logging.NewJSONLoggerWriter(stderr, level)
	} else {
		primary = logging.NewConsoleLoggerWriter(stderr, cfg.Verbose)
	}

	if cfg.LogDir == "" {
		return primary, nil
	}
	if err := os.MkdirAll(cfg.LogDir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	files, err := logging.SetupLogging(cfg.LogDir, cfg.Verbose)
	if err != nil {
		return nil, err
	}
	return logging.NewMultiLogger(primary, files), nil
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: evaluator [-config file] [-env file] <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	for _, name := range commandOrder {
		fmt.Fprintf(w, "  %-9s %s\n", name, commands[name].summary)
	}
}
