// Package bank loads lessons and their exercises from JSON or
// YAML bank files.
package bank

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"digital.vasic.evaluator/pkg/exercise"
)

// Bank holds the lessons loaded from bank files.
type Bank struct {
	mu      sync.RWMutex
	lessons map[string]*exercise.Lesson
	sources []string
}

// New creates a new empty Bank.
func New() *Bank {
	return &Bank{
		lessons: make(map[string]*exercise.Lesson),
	}
}

// LoadFile loads lessons from a .json, .yaml or .yml file. The
// file is validated as a whole before any lesson is added, and a
// lesson ID already present in the bank is rejected.
func (b *Bank) LoadFile(path string) error {
	file, err := readBankFile(path)
	if err != nil {
		return err
	}
	if errs := Validate(file); len(errs) > 0 {
		joined := make([]error, len(errs))
		for i := range errs {
			joined[i] = errs[i]
		}
		return fmt.Errorf("invalid bank file %s: %w", path, errors.Join(joined...))
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range file.Lessons {
		if _, exists := b.lessons[file.Lessons[i].ID]; exists {
			return fmt.Errorf(
				"lesson %s from %s is already loaded",
				file.Lessons[i].ID, path,
			)
		}
	}
	for i := range file.Lessons {
		lesson := &file.Lessons[i]
		for j := range lesson.Exercises {
			lesson.Exercises[j].LessonID = lesson.ID
		}
		b.lessons[lesson.ID] = lesson
	}
	b.sources = append(b.sources, path)
	return nil
}

// LoadDir loads all bank files from a directory. It does not
// recurse into subdirectories.
func (b *Bank) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read bank directory %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !isBankFile(entry.Name()) {
			continue
		}
		if err := b.LoadFile(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// Lesson retrieves a lesson by ID.
func (b *Bank) Lesson(id string) (*exercise.Lesson, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	l, ok := b.lessons[id]
	return l, ok
}

// Exercise retrieves one exercise of a lesson.
func (b *Bank) Exercise(lessonID, exerciseID string) (*exercise.Exercise, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	l, ok := b.lessons[lessonID]
	if !ok {
		return nil, false
	}
	for i := range l.Exercises {
		if l.Exercises[i].ID == exerciseID {
			return &l.Exercises[i], true
		}
	}
	return nil, false
}

// Lessons returns all loaded lessons sorted by ID.
func (b *Bank) Lessons() []*exercise.Lesson {
	b.mu.RLock()
	defer b.mu.RUnlock()
	result := make([]*exercise.Lesson, 0, len(b.lessons))
	for _, l := range b.lessons {
		result = append(result, l)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result
}

// Count returns the number of loaded exercises across all
// lessons.
func (b *Bank) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, l := range b.lessons {
		n += len(l.Exercises)
	}
	return n
}

// Sources returns the list of loaded file paths.
func (b *Bank) Sources() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	result := make([]string, len(b.sources))
	copy(result, b.sources)
	return result
}

func isBankFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// readBankFile reads and decodes path according to its
// extension.
func readBankFile(path string) (*BankFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bank file %s: %w", path, err)
	}

	var file BankFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &file)
	case ".json":
		err = json.Unmarshal(data, &file)
	default:
		return nil, fmt.Errorf("unsupported bank file extension: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("parse bank file %s: %w", path, err)
	}
	return &file, nil
}
