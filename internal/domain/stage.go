package domain

import (
	"errors"
	"strings"
)

// DefaultRequiredAnswers is the per-stage answer threshold used when a stage
// does not declare its own.
const DefaultRequiredAnswers = 3

// Stage is one level in the ordered sequence of moral-reasoning maturity the
// user progresses through. The ordinal is the canonical order.
type Stage struct {
	Ordinal         int      `json:"ordinal"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Reasoning       string   `json:"reasoning"`
	RequiredAnswers int      `json:"required_answers"`
	ExamplePrompts  []string `json:"example_prompts,omitempty"`
}

func (s *Stage) Validate() error {
	if s.Ordinal < 1 {
		return errors.New("stage ordinal must be >= 1")
	}
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("stage name is required")
	}
	return nil
}

// Threshold returns the answer count required to leave this stage.
func (s *Stage) Threshold() int {
	if s.RequiredAnswers > 0 {
		return s.RequiredAnswers
	}
	return DefaultRequiredAnswers
}
