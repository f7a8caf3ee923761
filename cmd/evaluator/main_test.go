package main

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital.vasic.evaluator/pkg/bank"
	"digital.vasic.evaluator/pkg/env"
	"digital.vasic.evaluator/pkg/evaluator"
	"digital.vasic.evaluator/pkg/exercise"
	"digital.vasic.evaluator/pkg/monitor"
	"digital.vasic.evaluator/pkg/progress"
)

const lessonYAML = `version: "1.0"
lessons:
  - id: basics
    title: Basics
    exercises:
      - id: add
        title: Add
        testCases:
          - description: add(2, 3) === 5
            test: return exports.add(2, 3) === 5
          - description: add(-1, 1) === 0
            test: return exports.add(-1, 1) === 0
      - id: greet
        title: Greet
        setupCode: const greeting = "Hello"
        testCases:
          - description: greet("Ada")
            test: return exports.greet("Ada") === "Hello, Ada"
`

// setupEnv points the binary at a temporary bank and clears the
// optional tracking settings.
func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	bankDir := filepath.Join(dir, "lessons")
	require.NoError(t, os.MkdirAll(bankDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(bankDir, "basics.yaml"), []byte(lessonYAML), 0644))

	t.Setenv(env.VarBankDir, bankDir)
	t.Setenv(env.VarProgressFile, "")
	t.Setenv(env.VarHistoryFile, "")
	t.Setenv(env.VarLogDir, "")
	t.Setenv(env.VarConfigFile, "")
	t.Setenv(env.VarTestTimeoutMs, "")
	return dir
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func execute(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"-env", filepath.Join(t.TempDir(), "missing.env")}, args...)
	code := run(full, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Usage(t *testing.T) {
	setupEnv(t)

	code, _, stderr := execute(t)
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, "usage: evaluator")
	assert.Contains(t, stderr, "serve")

	code, _, stderr = execute(t, "frobnicate")
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, `unknown command "frobnicate"`)
}

func TestRun_InvalidConfig(t *testing.T) {
	setupEnv(t)
	t.Setenv(env.VarTestTimeoutMs, "soon")

	code, _, stderr := execute(t, "check", "x.js")
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, "error:")
}

func TestCheck(t *testing.T) {
	dir := setupEnv(t)
	good := writeFile(t, dir, "good.js", "exports.add = (a, b) => a + b")
	bad := writeFile(t, dir, "bad.js", "exports.add = (a, b => a + b")

	code, stdout, _ := execute(t, "check", good)
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, good+": ok")

	code, stdout, _ = execute(t, "check", good, bad)
	assert.Equal(t, exitFailed, code)
	assert.Contains(t, stdout, good+": ok")
	assert.Contains(t, stdout, bad+": ")
	assert.NotContains(t, stdout, bad+": ok")

	code, _, _ = execute(t, "check")
	assert.Equal(t, exitUsage, code)
}

func TestEvaluate_Passing(t *testing.T) {
	dir := setupEnv(t)
	src := writeFile(t, dir, "add.js", "exports.add = (a, b) => a + b")

	code, stdout, stderr := execute(t, "run", "-lesson", "basics", "-exercise", "add", src)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "PASSED")
	assert.Contains(t, stdout, "add(2, 3) === 5")
}

func TestEvaluate_JSONFailing(t *testing.T) {
	dir := setupEnv(t)
	src := writeFile(t, dir, "add.js", "exports.add = (a, b) => a - b")

	code, stdout, _ := execute(t, "run", "-lesson", "basics", "-exercise", "add", "-format", "json", src)
	assert.Equal(t, exitFailed, code)

	var r exercise.Report
	require.NoError(t, json.Unmarshal([]byte(stdout), &r))
	assert.False(t, r.Passed)
	require.Len(t, r.Results, 2)
	assert.False(t, r.Results[0].Passed)
	assert.True(t, r.Results[1].Passed)
}

func TestEvaluate_CompilationError(t *testing.T) {
	dir := setupEnv(t)
	src := writeFile(t, dir, "greet.js", `throw new Error("boom")`)

	code, stdout, _ := execute(t, "run", "-lesson", "basics", "-exercise", "greet", "-format", "json", src)
	assert.Equal(t, exitFailed, code)

	var r exercise.Report
	require.NoError(t, json.Unmarshal([]byte(stdout), &r))
	assert.Equal(t, "boom", r.CompilationError)
	require.Len(t, r.Results, 1)
	assert.Equal(t, exercise.CompilationErrorPrefix+"boom", r.Results[0].Error)
}

func TestEvaluate_UnknownExercise(t *testing.T) {
	dir := setupEnv(t)
	src := writeFile(t, dir, "x.js", "exports.x = 1")

	code, _, stderr := execute(t, "run", "-lesson", "basics", "-exercise", "nope", src)
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, "basics/nope not found")

	code, _, stderr = execute(t, "run", "-lesson", "basics", "-exercise", "add", "-format", "pdf", src)
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, `unknown format "pdf"`)
}

func TestEvaluate_Remote(t *testing.T) {
	dir := setupEnv(t)
	b := bank.New()
	require.NoError(t, b.LoadDir(filepath.Join(dir, "lessons")))
	collector := monitor.NewEventCollector()
	srv := monitor.NewServer(":0", collector,
		monitor.WithEvaluator(evaluator.NewEvaluator(evaluator.WithObserver(collector))),
		monitor.WithBank(b),
	)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	src := writeFile(t, dir, "add.js", "exports.add = (a, b) => a + b")
	code, stdout, stderr := execute(t, "run", "-remote", ts.URL, "-lesson", "basics", "-exercise", "add", src)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "PASSED")
	assert.Equal(t, 1, collector.Stats().Passed)

	code, _, stderr = execute(t, "run", "-remote", ts.URL, "-lesson", "basics", "-exercise", "nope", src)
	assert.Equal(t, exitRuntime, code)
	assert.Contains(t, stderr, "HTTP 404")
}

func TestEvaluate_RecordsProgressAndHistory(t *testing.T) {
	dir := setupEnv(t)
	progressFile := filepath.Join(dir, "state", "progress.json")
	historyFile := filepath.Join(dir, "history.jsonl")
	t.Setenv(env.VarProgressFile, progressFile)
	t.Setenv(env.VarHistoryFile, historyFile)

	src := writeFile(t, dir, "greet.js", "exports.greet = name => `${greeting}, ${name}`")
	code, _, stderr := execute(t, "run", "-lesson", "basics", "-exercise", "greet", src)
	require.Equal(t, exitOK, code, stderr)

	store, err := progress.OpenFileStore(progressFile)
	require.NoError(t, err)
	assert.True(t, store.IsCompleted("basics", "greet"))

	history, err := progress.ReadHistory(historyFile)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Passed)

	code, stdout, _ := execute(t, "lessons")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "basics  Basics (1/2)")
	assert.Contains(t, stdout, "[x] greet")
	assert.Contains(t, stdout, "[ ] add")
}

func TestBatch(t *testing.T) {
	dir := setupEnv(t)
	subs := filepath.Join(dir, "subs")
	require.NoError(t, os.MkdirAll(subs, 0755))
	writeFile(t, subs, "add.js", "exports.add = (a, b) => a + b")
	writeFile(t, subs, "greet.js", "exports.greet = name => name")
	outDir := filepath.Join(dir, "out")

	code, stdout, stderr := execute(t, "batch", "-lesson", "basics", "-format", "json", "-out", outDir, subs)
	require.Equal(t, exitFailed, code, stderr)

	var summary struct {
		TotalExercises  int `json:"total_exercises"`
		PassedExercises int `json:"passed_exercises"`
		Exercises       []struct {
			Name   string `json:"name"`
			Status string `json:"status"`
		} `json:"exercises"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &summary))
	assert.Equal(t, 2, summary.TotalExercises)
	assert.Equal(t, 1, summary.PassedExercises)
	require.Len(t, summary.Exercises, 2)
	assert.Equal(t, "basics/add", summary.Exercises[0].Name)
	assert.Equal(t, "PASSED", summary.Exercises[0].Status)
	assert.Equal(t, "FAILED", summary.Exercises[1].Status)

	_, err := os.Lstat(filepath.Join(outDir, "latest_summary.json"))
	assert.NoError(t, err)
}

func TestBatch_UnknownSubmission(t *testing.T) {
	dir := setupEnv(t)
	subs := filepath.Join(dir, "subs")
	require.NoError(t, os.MkdirAll(subs, 0755))
	writeFile(t, subs, "mystery.js", "exports.x = 1")

	code, _, stderr := execute(t, "batch", "-lesson", "basics", subs)
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, "no exercise mystery")
}

func TestValidate(t *testing.T) {
	dir := setupEnv(t)

	code, stdout, _ := execute(t, "validate")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "basics.yaml: ok")

	bad := writeFile(t, dir, "bad.json", `{"version":"1.0","lessons":[{"id":"x","exercises":[{"id":"e","testCases":[{"description":"d","test":"return ("}]}]}]}`)
	code, stdout, _ = execute(t, "validate", bad)
	assert.Equal(t, exitFailed, code)
	assert.Contains(t, stdout, "lessons[0].exercises[0].testCases[0].test")
}

func TestNewLogger_WithLogDir(t *testing.T) {
	cfg := env.Defaults()
	cfg.LogFormat = env.LogFormatJSON
	cfg.LogDir = filepath.Join(t.TempDir(), "logs")

	var stderr bytes.Buffer
	logger, err := newLogger(&cfg, &stderr)
	require.NoError(t, err)
	logger.Info("hello")
	require.NoError(t, logger.Close())

	assert.Contains(t, stderr.String(), `"hello"`)
	data, err := os.ReadFile(filepath.Join(cfg.LogDir, "evaluator.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}
