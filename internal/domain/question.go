package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

type QuestionSource string

const (
	QuestionSourceSeed      QuestionSource = "seed"
	QuestionSourceGenerated QuestionSource = "generated"
)

func ValidQuestionSource(s string) bool {
	switch QuestionSource(s) {
	case QuestionSourceSeed, QuestionSourceGenerated:
		return true
	}
	return false
}

var (
	ErrQuestionTextEmpty    = errors.New("question text is required")
	ErrQuestionStageInvalid = errors.New("question stage must be >= 1")
)

// Question is a staged moral dilemma presented to the user. Questions are
// immutable once created; they are shared, read-only reference data.
type Question struct {
	ID                 uuid.UUID      `json:"id"`
	Text               string         `json:"text"`
	Stage              int            `json:"stage"`
	Tags               []string       `json:"tags,omitempty"`
	RelatedQuestionIDs []uuid.UUID    `json:"related_question_ids,omitempty"`
	Embedding          []float32      `json:"-"`
	Source             QuestionSource `json:"source"`
	CreatedAt          time.Time      `json:"created_at"`
}

func (q *Question) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return ErrQuestionTextEmpty
	}
	if q.Stage < 1 {
		return ErrQuestionStageInvalid
	}
	return nil
}

// TagOverlap returns the size of the intersection of two tag sets.
// Matching is case-insensitive.
func TagOverlap(a, b []string) int {
	set := make(map[string]bool, len(a))
	for _, t := range a {
		set[strings.ToLower(t)] = true
	}
	count := 0
	seen := make(map[string]bool, len(b))
	for _, t := range b {
		lt := strings.ToLower(t)
		if set[lt] && !seen[lt] {
			count++
			seen[lt] = true
		}
	}
	return count
}

// IsRelatedTo reports whether other appears in the question's explicit links.
func (q *Question) IsRelatedTo(other uuid.UUID) bool {
	for _, id := range q.RelatedQuestionIDs {
		if id == other {
			return true
		}
	}
	return false
}
