package bank

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital.vasic.evaluator/pkg/exercise"
)

func createTestBankFile(t *testing.T, dir, name string, file BankFile) string {
	t.Helper()
	data, err := json.Marshal(file)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func functionsLesson() exercise.Lesson {
	return exercise.Lesson{
		ID:    "functions",
		Title: "Functions",
		Exercises: []exercise.Exercise{
			{
				ID:    "add",
				Title: "Add two numbers",
				Tests: []exercise.TestDefinition{
					{Description: "add(2, 3) === 5", Test: "return exports.add(2, 3) === 5"},
				},
			},
			{
				ID:        "double",
				Title:     "Double",
				SetupCode: "const factor = 2",
				Tests: []exercise.TestDefinition{
					{Description: "double(4) === 8", Test: "return exports.double(4) === 8"},
				},
			},
		},
	}
}

const yamlBank = `version: "1.0"
name: Basics
lessons:
  - id: strings
    title: Strings
    exercises:
      - id: shout
        title: Shout
        prompt: Upper-case the input.
        starterCode: |
          exports.shout = s => s
        testCases:
          - description: shout("hi") === "HI"
            test: return exports.shout("hi") === "HI"
`

func TestBank_LoadFile(t *testing.T) {
	dir := t.TempDir()
	path := createTestBankFile(t, dir, "bank.json", BankFile{
		Version: "1.0",
		Name:    "Test Bank",
		Lessons: []exercise.Lesson{functionsLesson()},
	})

	b := New()
	require.NoError(t, b.LoadFile(path))
	assert.Equal(t, 2, b.Count())

	l, ok := b.Lesson("functions")
	require.True(t, ok)
	assert.Equal(t, "Functions", l.Title)

	ex, ok := b.Exercise("functions", "double")
	require.True(t, ok)
	assert.Equal(t, "const factor = 2", ex.SetupCode)
	assert.Equal(t, "functions", ex.LessonID)
	assert.Equal(t, "functions/double", ex.Key())

	_, ok = b.Exercise("functions", "missing")
	assert.False(t, ok)
	_, ok = b.Exercise("missing", "add")
	assert.False(t, ok)
}

func TestBank_LoadFile_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "strings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlBank), 0644))

	b := New()
	require.NoError(t, b.LoadFile(path))

	ex, ok := b.Exercise("strings", "shout")
	require.True(t, ok)
	assert.Equal(t, "Upper-case the input.", ex.Prompt)
	assert.Equal(t, "exports.shout = s => s\n", ex.StarterCode)
	require.Len(t, ex.Tests, 1)
	assert.Equal(t, `return exports.shout("hi") === "HI"`, ex.Tests[0].Test)
}

func TestBank_LoadFile_NotFound(t *testing.T) {
	b := New()
	err := b.LoadFile("/nonexistent/bank.json")
	assert.Error(t, err)
}

func TestBank_LoadFile_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{invalid"), 0644))

	b := New()
	err := b.LoadFile(path)
	assert.Error(t, err)
}

func TestBank_LoadFile_UnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bank.toml")
	require.NoError(t, os.WriteFile(path, []byte("version = 1"), 0644))

	err := New().LoadFile(path)
	assert.ErrorContains(t, err, "unsupported")
}

func TestBank_LoadFile_RejectsInvalidTests(t *testing.T) {
	dir := t.TempDir()
	lesson := functionsLesson()
	lesson.Exercises[0].Tests[0].Test = "return ("
	path := createTestBankFile(t, dir, "bank.json", BankFile{
		Version: "1.0",
		Lessons: []exercise.Lesson{lesson},
	})

	b := New()
	err := b.LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lessons[0].exercises[0].testCases[0].test")
	assert.Equal(t, 0, b.Count())
}

func TestBank_LoadFile_DuplicateLessonAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	first := createTestBankFile(t, dir, "a.json", BankFile{
		Version: "1.0",
		Lessons: []exercise.Lesson{functionsLesson()},
	})
	second := createTestBankFile(t, dir, "b.json", BankFile{
		Version: "1.0",
		Lessons: []exercise.Lesson{functionsLesson()},
	})

	b := New()
	require.NoError(t, b.LoadFile(first))
	err := b.LoadFile(second)
	assert.ErrorContains(t, err, "already loaded")
	assert.Equal(t, []string{first}, b.Sources())
}

func TestBank_LoadDir(t *testing.T) {
	dir := t.TempDir()
	for i, name := range []string{"a.json", "b.json"} {
		createTestBankFile(t, dir, name, BankFile{
			Version: "1.0",
			Lessons: []exercise.Lesson{{
				ID: fmt.Sprintf("lesson-%d", i),
				Exercises: []exercise.Exercise{{
					ID:    "ex",
					Tests: []exercise.TestDefinition{{Description: "ok", Test: "return true"}},
				}},
			}},
		})
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.yml"), []byte(yamlBank), 0644))
	// Other files are skipped.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("skip"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.json"), 0755))

	b := New()
	require.NoError(t, b.LoadDir(dir))
	assert.Equal(t, 3, b.Count())
	assert.Len(t, b.Sources(), 3)
}

func TestBank_LoadDir_NotFound(t *testing.T) {
	assert.Error(t, New().LoadDir("/nonexistent/dir"))
}

func TestBank_Lessons_Sorted(t *testing.T) {
	b := New()
	b.lessons["zeta"] = &exercise.Lesson{ID: "zeta"}
	b.lessons["alpha"] = &exercise.Lesson{ID: "alpha"}
	b.lessons["mid"] = &exercise.Lesson{ID: "mid"}

	lessons := b.Lessons()
	require.Len(t, lessons, 3)
	assert.Equal(t, "alpha", lessons[0].ID)
	assert.Equal(t, "mid", lessons[1].ID)
	assert.Equal(t, "zeta", lessons[2].ID)
}

func TestBank_Sources(t *testing.T) {
	b := New()
	b.sources = []string{"a.json", "b.json"}
	sources := b.Sources()
	assert.Equal(t, []string{"a.json", "b.json"}, sources)
}
