package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrContradictionSamePair       = errors.New("contradiction must link two distinct questions")
	ErrContradictionConfidence     = errors.New("contradiction confidence must be in [0,1]")
	ErrContradictionNoExplanation  = errors.New("contradiction explanation is required")
	ErrResolutionQuestionNotInPair = errors.New("resolution must overwrite one of the contradicting questions")
)

// Contradiction records a pair of answers judged to express incompatible moral
// commitments. The question pair is unordered; the answer texts are frozen at
// detection time. A contradiction is immutable except for its resolution
// fields, which transition exactly once from absent to present.
type Contradiction struct {
	ID          uuid.UUID   `json:"id"`
	SessionID   uuid.UUID   `json:"session_id"`
	QuestionAID uuid.UUID   `json:"question_a_id"`
	QuestionBID uuid.UUID   `json:"question_b_id"`
	AnswerAText string      `json:"answer_a_text"`
	AnswerBText string      `json:"answer_b_text"`
	Explanation string      `json:"explanation"`
	Confidence  float64     `json:"confidence"`
	Resolved    bool        `json:"resolved"`
	Resolution  *Resolution `json:"resolution,omitempty"`
	DetectedAt  time.Time   `json:"detected_at"`
}

// Resolution captures how a contradiction was settled: which answer was
// overwritten and with what text.
type Resolution struct {
	Explanation           string    `json:"explanation"`
	OverwrittenQuestionID uuid.UUID `json:"overwritten_question_id"`
	NewAnswerText         string    `json:"new_answer_text"`
	ResolvedAt            time.Time `json:"resolved_at"`
}

func (c *Contradiction) Validate() error {
	if c.QuestionAID == uuid.Nil || c.QuestionBID == uuid.Nil || c.QuestionAID == c.QuestionBID {
		return ErrContradictionSamePair
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		return ErrContradictionConfidence
	}
	if strings.TrimSpace(c.Explanation) == "" {
		return ErrContradictionNoExplanation
	}
	return nil
}

// Involves reports whether the contradiction touches the given question.
func (c *Contradiction) Involves(questionID uuid.UUID) bool {
	return c.QuestionAID == questionID || c.QuestionBID == questionID
}

// SamePair compares the contradiction's question pair to (a, b) ignoring order.
func (c *Contradiction) SamePair(a, b uuid.UUID) bool {
	return (c.QuestionAID == a && c.QuestionBID == b) ||
		(c.QuestionAID == b && c.QuestionBID == a)
}

// OrderPair returns the pair in canonical order so that storage and lookups
// treat (a, b) and (b, a) as the same key.
func OrderPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if strings.Compare(a.String(), b.String()) > 0 {
		return b, a
	}
	return a, b
}
