package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"digital.vasic.evaluator/pkg/bank"
	"digital.vasic.evaluator/pkg/evaluator"
	"digital.vasic.evaluator/pkg/exercise"
	"digital.vasic.evaluator/pkg/httpclient"
	"digital.vasic.evaluator/pkg/logging"
	"digital.vasic.evaluator/pkg/metrics"
	"digital.vasic.evaluator/pkg/monitor"
	"digital.vasic.evaluator/pkg/progress"
	"digital.vasic.evaluator/pkg/report"
	"digital.vasic.evaluator/pkg/sandbox"
)

// newFlagSet creates a subcommand flag set reporting to stderr.
func (a *app) newFlagSet(name, args string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.Usage = func() {
		fmt.Fprintf(a.stderr, "usage: evaluator %s [flags] %s\n", name, args)
		fs.PrintDefaults()
	}
	return fs
}

func (a *app) errorf(format string, args ...any) {
	fmt.Fprintf(a.stderr, "error: "+format+"\n", args...)
}

// runCheck syntax-checks each file. Exit status is 1 when any
// file fails to compile.
func runCheck(a *app, args []string) int {
	fs := a.newFlagSet("check", "<file>...")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return exitUsage
	}

	status := exitOK
	for _, path := range fs.Args() {
		code, err := os.ReadFile(path)
		if err != nil {
			a.errorf("%v", err)
			return exitRuntime
		}
		if msg := sandbox.SyntaxMessage(string(code)); msg != "" {
			fmt.Fprintf(a.stdout, "%s: %s\n", path, msg)
			status = exitFailed
			continue
		}
		fmt.Fprintf(a.stdout, "%s: ok\n", path)
	}
	return status
}

// runValidate validates bank files and directories without
// loading them into a bank.
func runValidate(a *app, args []string) int {
	fs := a.newFlagSet("validate", "[file|dir]...")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	paths := fs.Args()
	if len(paths) == 0 {
		paths = []string{a.cfg.BankDir}
	}

	files, err := bankFiles(paths)
	if err != nil {
		a.errorf("%v", err)
		return exitRuntime
	}

	status := exitOK
	for _, file := range files {
		errs := bank.ValidateFile(file)
		if len(errs) == 0 {
			fmt.Fprintf(a.stdout, "%s: ok\n", file)
			continue
		}
		status = exitFailed
		for _, e := range errs {
			fmt.Fprintf(a.stdout, "%s: %s\n", file, e.Error())
		}
	}
	return status
}

// bankFiles expands directories into their lesson files.
func bankFiles(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			switch strings.ToLower(filepath.Ext(e.Name())) {
			case ".json", ".yaml", ".yml":
				if !e.IsDir() {
					files = append(files, filepath.Join(p, e.Name()))
				}
			}
		}
	}
	return files, nil
}

// runEvaluate evaluates one submission against a bank exercise
// and prints the report.
func runEvaluate(a *app, args []string) int {
	fs := a.newFlagSet("run", "<file>")
	lessonID := fs.String("lesson", "", "lesson ID")
	exerciseID := fs.String("exercise", "", "exercise ID")
	format := fs.String("format", "markdown", "output format: markdown, json or html")
	remote := fs.String("remote", "", "evaluate on the monitor server at this URL")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 || *lessonID == "" || *exerciseID == "" {
		fs.Usage()
		return exitUsage
	}
	reporter, ok := reporterFor(*format)
	if !ok {
		a.errorf("unknown format %q", *format)
		return exitUsage
	}
	code, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		a.errorf("%v", err)
		return exitRuntime
	}

	var r *exercise.Report
	if *remote != "" {
		r, err = httpclient.NewAPIClient(*remote).Evaluate(context.Background(), monitor.EvaluateRequest{
			Code:       string(code),
			LessonID:   *lessonID,
			ExerciseID: *exerciseID,
		})
		if err != nil {
			a.errorf("%v", err)
			return exitRuntime
		}
	} else {
		b, err := a.loadBank()
		if err != nil {
			a.errorf("%v", err)
			return exitRuntime
		}
		ex, ok := b.Exercise(*lessonID, *exerciseID)
		if !ok {
			a.errorf("exercise %s/%s not found in %s", *lessonID, *exerciseID, a.cfg.BankDir)
			return exitUsage
		}
		opts, err := a.evaluatorOptions(metrics.NewInMemoryMetrics())
		if err != nil {
			a.errorf("%v", err)
			return exitRuntime
		}
		r = evaluator.NewEvaluator(opts...).EvaluateExercise(ex, string(code))
	}

	if err := reporter.WriteReport(a.stdout, r); err != nil {
		a.errorf("%v", err)
		return exitRuntime
	}
	if !r.Passed {
		return exitFailed
	}
	return exitOK
}

// runBatch evaluates every <exercise-id>.js file in a directory
// against the named lesson and prints a summary.
func runBatch(a *app, args []string) int {
	fs := a.newFlagSet("batch", "<dir>")
	lessonID := fs.String("lesson", "", "lesson ID")
	format := fs.String("format", "markdown", "output format: markdown, json or html")
	outDir := fs.String("out", "", "also save timestamped summaries to this directory")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 || *lessonID == "" {
		fs.Usage()
		return exitUsage
	}
	reporter, ok := reporterFor(*format)
	if !ok {
		a.errorf("unknown format %q", *format)
		return exitUsage
	}

	b, err := a.loadBank()
	if err != nil {
		a.errorf("%v", err)
		return exitRuntime
	}
	reqs, err := submissions(b, *lessonID, fs.Arg(0))
	if err != nil {
		a.errorf("%v", err)
		return exitUsage
	}

	opts, err := a.evaluatorOptions(metrics.NewInMemoryMetrics())
	if err != nil {
		a.errorf("%v", err)
		return exitRuntime
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reports := evaluator.NewEvaluator(opts...).EvaluateBatch(ctx, reqs, a.cfg.MaxParallel)

	entries := make([]report.Entry, len(reqs))
	allPassed := true
	for i, req := range reqs {
		entries[i] = report.Entry{
			LessonID:   req.LessonID,
			ExerciseID: req.ExerciseID,
			Report:     reports[i],
		}
		allPassed = allPassed && reports[i].Passed
	}

	data, err := reporter.GenerateSummary(entries)
	if err != nil {
		a.errorf("%v", err)
		return exitRuntime
	}
	fmt.Fprintln(a.stdout, strings.TrimRight(string(data), "\n"))

	if *outDir != "" {
		if err := report.SaveSummary(report.BuildSummary(entries), *outDir); err != nil {
			a.errorf("%v", err)
			return exitRuntime
		}
	}
	if !allPassed {
		return exitFailed
	}
	return exitOK
}

// submissions pairs each <exercise-id>.js file in dir with its
// exercise, in file name order. Files naming no exercise of the
// lesson are an error.
func submissions(b *bank.Bank, lessonID, dir string) ([]evaluator.Request, error) {
	if _, ok := b.Lesson(lessonID); !ok {
		return nil, fmt.Errorf("lesson %s not found", lessonID)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".js" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	reqs := make([]evaluator.Request, 0, len(names))
	for _, name := range names {
		id := strings.TrimSuffix(name, ".js")
		ex, ok := b.Exercise(lessonID, id)
		if !ok {
			return nil, fmt.Errorf("%s: no exercise %s in lesson %s", name, id, lessonID)
		}
		code, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, evaluator.Request{
			Code:       string(code),
			SetupCode:  ex.SetupCode,
			TestCases:  ex.TestCases(),
			LessonID:   lessonID,
			ExerciseID: ex.ID,
		})
	}
	if len(reqs) == 0 {
		return nil, fmt.Errorf("no .js submissions in %s", dir)
	}
	return reqs, nil
}

// runLessons lists the bank's lessons and exercises, marking
// completed exercises when progress tracking is enabled.
func runLessons(a *app, args []string) int {
	fs := a.newFlagSet("lessons", "")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	b, err := a.loadBank()
	if err != nil {
		a.errorf("%v", err)
		return exitRuntime
	}
	var store progress.Store = progress.NewMemoryStore()
	if a.cfg.ProgressFile != "" {
		fileStore, err := progress.OpenFileStore(a.cfg.ProgressFile)
		if err != nil {
			a.errorf("%v", err)
			return exitRuntime
		}
		store = fileStore
	}

	for _, lesson := range b.Lessons() {
		done := len(store.Completed(lesson.ID))
		fmt.Fprintf(a.stdout, "%s  %s (%d/%d)\n",
			lesson.ID, lesson.Title, done, len(lesson.Exercises))
		for _, ex := range lesson.Exercises {
			mark := " "
			if store.IsCompleted(lesson.ID, ex.ID) {
				mark = "x"
			}
			fmt.Fprintf(a.stdout, "  [%s] %s  %s\n", mark, ex.ID, ex.Title)
		}
	}
	return exitOK
}

// runServe runs the monitor server until interrupted.
func runServe(a *app, args []string) int {
	fs := a.newFlagSet("serve", "")
	addr := fs.String("addr", a.cfg.ListenAddr, "listen address")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.NewPrometheusMetrics(reg)
	if err != nil {
		a.errorf("%v", err)
		return exitRuntime
	}

	collector := monitor.NewEventCollector()
	opts, err := a.evaluatorOptions(m)
	if err != nil {
		a.errorf("%v", err)
		return exitRuntime
	}
	opts = append(opts, evaluator.WithObserver(collector))

	serverOpts := []monitor.ServerOption{
		monitor.WithEvaluator(evaluator.NewEvaluator(opts...)),
		monitor.WithGatherer(reg),
		monitor.WithMaxConcurrent(a.cfg.MaxParallel),
		monitor.WithServerLogger(a.logger),
	}
	if b, err := a.loadBank(); err != nil {
		a.logger.Warn("bank_unavailable", logging.ErrorField(err))
	} else {
		serverOpts = append(serverOpts, monitor.WithBank(b))
	}
	server := monitor.NewServer(*addr, collector, serverOpts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		a.errorf("%v", err)
		return exitRuntime
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		a.logger.Warn("monitor_server_shutdown", logging.ErrorField(err))
	}
	a.logger.Info("monitor_server_stopped")
	return exitOK
}

// loadBank loads the configured lesson directory.
func (a *app) loadBank() (*bank.Bank, error) {
	b := bank.New()
	if err := b.LoadDir(a.cfg.BankDir); err != nil {
		return nil, fmt.Errorf("load bank %s: %w", a.cfg.BankDir, err)
	}
	a.logger.Debug("bank_loaded",
		logging.StringField("dir", a.cfg.BankDir),
		logging.IntField("lessons", len(b.Lessons())),
		logging.IntField("exercises", b.Count()),
	)
	return b, nil
}

// evaluatorOptions translates the configuration into evaluator
// options, attaching a progress recorder when progress or
// history tracking is enabled.
func (a *app) evaluatorOptions(m metrics.EvaluatorMetrics) ([]evaluator.Option, error) {
	opts := []evaluator.Option{
		evaluator.WithLogger(a.logger),
		evaluator.WithMetrics(m),
		evaluator.WithTestTimeout(a.cfg.TestTimeout),
	}
	if a.cfg.HardInterrupt {
		opts = append(opts, evaluator.WithHardInterrupt())
	}

	if a.cfg.ProgressFile == "" && a.cfg.HistoryFile == "" {
		return opts, nil
	}

	var store progress.Store = progress.NewMemoryStore()
	if a.cfg.ProgressFile != "" {
		fileStore, err := progress.OpenFileStore(a.cfg.ProgressFile)
		if err != nil {
			return nil, err
		}
		store = fileStore
	}
	recorderOpts := []progress.RecorderOption{progress.WithRecorderLogger(a.logger)}
	if a.cfg.HistoryFile != "" {
		recorderOpts = append(recorderOpts, progress.WithHistory(a.cfg.HistoryFile))
	}
	return append(opts, evaluator.WithObserver(progress.NewRecorder(store, recorderOpts...))), nil
}

func reporterFor(format string) (report.Reporter, bool) {
	switch format {
	case "markdown", "md":
		return report.MarkdownReporter{}, true
	case "json":
		return report.NewJSONReporter(true), true
	case "html":
		return report.HTMLReporter{}, true
	default:
		return nil, false
	}
}

