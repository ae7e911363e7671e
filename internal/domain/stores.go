package domain

import (
	"context"

	"github.com/google/uuid"
)

// QuestionWithDistance is a nearest-neighbor result. Distance is cosine
// distance; similarity is 1 - distance for L2-normalized spaces.
type QuestionWithDistance struct {
	Question
	Distance float64 `json:"distance"`
}

type QuestionStore interface {
	Create(ctx context.Context, q *Question) error
	GetByID(ctx context.Context, id uuid.UUID) (*Question, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]Question, error)
	GetByStage(ctx context.Context, stage int) ([]Question, error)
	ListAll(ctx context.Context) ([]Question, error)
	NearestByEmbedding(ctx context.Context, embedding []float32, k int) ([]QuestionWithDistance, error)
	UpdateEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error
}

type LinkStore interface {
	Create(ctx context.Context, l *QuestionLink) error
	GetBySource(ctx context.Context, sourceID uuid.UUID) ([]QuestionLink, error)
	GetRelated(ctx context.Context, questionID uuid.UUID, relation RelationType) ([]uuid.UUID, error)
}

type SessionStore interface {
	Create(ctx context.Context, s *Session) error
	// GetByUserID returns the session hydrated with its answers (in
	// submission order) and contradictions.
	GetByUserID(ctx context.Context, userID string) (*Session, error)
	UpdateProgress(ctx context.Context, id uuid.UUID, currentStage int, completedStages []int) error
	CacheAnalysis(ctx context.Context, id uuid.UUID, a *Analysis) error
	ClearAnalysis(ctx context.Context, id uuid.UUID) error
}

type AnswerStore interface {
	Create(ctx context.Context, a *Answer) error
	GetBySessionAndQuestion(ctx context.Context, sessionID, questionID uuid.UUID) (*Answer, error)
	// Supersede replaces the stored text, keeps the old text as the audit
	// trail and flips the modified flag.
	Supersede(ctx context.Context, id uuid.UUID, newText string, embedding []float32) error
}

type ContradictionStore interface {
	// Create persists the contradiction unless one already exists for the
	// same unordered question pair in the session. Returns whether a row was
	// actually created.
	Create(ctx context.Context, c *Contradiction) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Contradiction, error)
	GetBySession(ctx context.Context, sessionID uuid.UUID) ([]Contradiction, error)
	ExistsForPair(ctx context.Context, sessionID, questionA, questionB uuid.UUID) (bool, error)
	Resolve(ctx context.Context, id uuid.UUID, r Resolution) error
}

type FrameworkStore interface {
	Create(ctx context.Context, f *Framework) error
	ListAll(ctx context.Context) ([]Framework, error)
}

type StageStore interface {
	Create(ctx context.Context, s *Stage) error
	GetByOrdinal(ctx context.Context, ordinal int) (*Stage, error)
	ListAll(ctx context.Context) ([]Stage, error)
	MaxOrdinal(ctx context.Context) (int, error)
}

type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// QA is a question/answer pair rendered for oracle prompts.
type QA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// AlignmentExtraction is the oracle's structured alignment verdict. Alignment
// percentages are validated by the analyzer before being trusted.
type AlignmentExtraction struct {
	Alignment      map[FrameworkKey]float64 `json:"alignment"`
	KeyPrinciples  []string                 `json:"key_principles"`
	MetaPrinciples []string                 `json:"meta_principles,omitempty"`
	SubtlePatterns []string                 `json:"subtle_patterns,omitempty"`
}

// GeneratedQuestion is the oracle's synthesized question for a stage.
type GeneratedQuestion struct {
	Text string   `json:"text"`
	Tags []string `json:"tags"`
}

// LLMClient is the inference oracle. JudgeContradiction returns the oracle's
// raw free-text verdict; the judge extracts the conclusion deterministically.
// The structured methods parse defensively and return an error on unparseable
// output so callers can fall back to heuristics.
type LLMClient interface {
	JudgeContradiction(ctx context.Context, a, b QA) (string, error)
	ScoreConsistency(ctx context.Context, answers []QA) (int, error)
	AnalyzeAlignment(ctx context.Context, answers []QA, frameworks []Framework) (*AlignmentExtraction, error)
	AssessStageReadiness(ctx context.Context, stage Stage, answers []QA) (bool, error)
	GenerateQuestion(ctx context.Context, stage Stage, existing []string) (*GeneratedQuestion, error)
	ResolutionFeedback(ctx context.Context, a, b QA, explanation string, resolution Resolution) (string, error)
}
