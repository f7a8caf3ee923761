package bank

import "digital.vasic.evaluator/pkg/exercise"

// BankFile represents the on-disk structure of a lesson bank
// file, either JSON or YAML.
type BankFile struct {
	Version  string            `json:"version" yaml:"version"`
	Name     string            `json:"name" yaml:"name"`
	Lessons  []exercise.Lesson `json:"lessons" yaml:"lessons"`
	Metadata map[string]any    `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}
