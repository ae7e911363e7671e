package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrAnswerTextEmpty = errors.New("answer text is required")

// Answer is a user's response to a question. Answers are owned by exactly one
// session. When a contradiction is resolved by overwrite the stored text is
// replaced and the prior text is kept on PreviousText as the audit trail.
type Answer struct {
	ID           uuid.UUID `json:"id"`
	SessionID    uuid.UUID `json:"session_id"`
	QuestionID   uuid.UUID `json:"question_id"`
	Text         string    `json:"text"`
	PreviousText string    `json:"previous_text,omitempty"`
	Modified     bool      `json:"modified"`
	Embedding    []float32 `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (a *Answer) Validate() error {
	if strings.TrimSpace(a.Text) == "" {
		return ErrAnswerTextEmpty
	}
	if a.QuestionID == uuid.Nil {
		return errors.New("answer question_id is required")
	}
	return nil
}

// AnsweredQuestion pairs an answer with its owning question. It is the unit
// the candidate generator and judge operate on.
type AnsweredQuestion struct {
	Question Question `json:"question"`
	Answer   Answer   `json:"answer"`
}
