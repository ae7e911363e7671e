package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrUserIDEmpty = errors.New("user_id is required")

// Analysis is the cached result of scoring a session: a bounded consistency
// score plus a framework-alignment distribution. Degraded marks results that
// fell back to the heuristic path because the inference oracle was
// unavailable or unparseable.
type Analysis struct {
	FrameworkAlignment map[FrameworkKey]float64 `json:"framework_alignment"`
	KeyPrinciples      []string                 `json:"key_principles,omitempty"`
	MetaPrinciples     []string                 `json:"meta_principles,omitempty"`
	SubtlePatterns     []string                 `json:"subtle_patterns,omitempty"`
	ConsistencyScore   int                      `json:"consistency_score"`
	Degraded           bool                     `json:"degraded"`
	ComputedAt         time.Time                `json:"computed_at"`
}

// Session holds one user's progress: their answers, detected contradictions,
// current stage and cached analysis. A session exclusively owns its answers
// and contradictions.
type Session struct {
	ID              uuid.UUID       `json:"id"`
	UserID          string          `json:"user_id"`
	CurrentStage    int             `json:"current_stage"`
	CompletedStages []int           `json:"completed_stages,omitempty"`
	Answers         []Answer        `json:"answers,omitempty"`
	Contradictions  []Contradiction `json:"contradictions,omitempty"`
	Analysis        *Analysis       `json:"analysis,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (s *Session) Validate() error {
	if s.UserID == "" {
		return ErrUserIDEmpty
	}
	if s.CurrentStage < 1 {
		return errors.New("session current_stage must be >= 1")
	}
	return nil
}

// AnswerFor returns the session's answer to the given question, or nil.
func (s *Session) AnswerFor(questionID uuid.UUID) *Answer {
	for i := range s.Answers {
		if s.Answers[i].QuestionID == questionID {
			return &s.Answers[i]
		}
	}
	return nil
}

// UnresolvedCount returns the number of open contradictions.
func (s *Session) UnresolvedCount() int {
	n := 0
	for i := range s.Contradictions {
		if !s.Contradictions[i].Resolved {
			n++
		}
	}
	return n
}

// ResolvedCount returns the number of settled contradictions.
func (s *Session) ResolvedCount() int {
	n := 0
	for i := range s.Contradictions {
		if s.Contradictions[i].Resolved {
			n++
		}
	}
	return n
}

// ContradictionByID returns the contradiction with the given id, or nil.
func (s *Session) ContradictionByID(id uuid.UUID) *Contradiction {
	for i := range s.Contradictions {
		if s.Contradictions[i].ID == id {
			return &s.Contradictions[i]
		}
	}
	return nil
}

// MarkStageCompleted appends the stage ordinal to CompletedStages without
// duplicating it.
func (s *Session) MarkStageCompleted(ordinal int) {
	for _, c := range s.CompletedStages {
		if c == ordinal {
			return
		}
	}
	s.CompletedStages = append(s.CompletedStages, ordinal)
}
