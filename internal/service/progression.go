package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethoslabs/ethos/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrNoFurtherStage = errors.New("no further stage exists")

// Advancement block reasons, stable strings for API consumers.
const (
	BlockNone                 = ""
	BlockInsufficientAnswers  = "insufficient_answers"
	BlockUnresolvedConflicts  = "unresolved_contradictions"
	BlockReasoningNotDemonstr = "reasoning_not_demonstrated"
)

// AdvanceResult reports the outcome of a stage advancement attempt.
type AdvanceResult struct {
	Advanced      bool   `json:"advanced"`
	CurrentStage  int    `json:"current_stage"`
	BlockedReason string `json:"blocked_reason,omitempty"`
	// Answered and Required describe the answer-count guard for the
	// stage that was evaluated.
	Answered int `json:"answered"`
	Required int `json:"required"`
	Terminal bool `json:"terminal"`
}

// StageService gates advancement through the ordered moral-development
// stages. The two structural guards (answer count, unresolved contradictions)
// fail closed; the oracle readiness check is advisory and fails open, since a
// flaky oracle must not strand a user who has done the work.
type StageService struct {
	stages    domain.StageStore
	questions domain.QuestionStore
	sessions  domain.SessionStore
	llm       domain.LLMClient
	logger    *zap.Logger
}

func NewStageService(stages domain.StageStore, questions domain.QuestionStore, sessions domain.SessionStore, llm domain.LLMClient, logger *zap.Logger) *StageService {
	return &StageService{
		stages:    stages,
		questions: questions,
		sessions:  sessions,
		llm:       llm,
		logger:    logger,
	}
}

// ListStages returns the full ordered stage sequence.
func (s *StageService) ListStages(ctx context.Context) ([]domain.Stage, error) {
	return s.stages.ListAll(ctx)
}

// Advance evaluates the transition guard for the session's current stage and,
// when it passes, records the completion and moves the session forward.
func (s *StageService) Advance(ctx context.Context, session *domain.Session) (*AdvanceResult, error) {
	maxOrdinal, err := s.stages.MaxOrdinal(ctx)
	if err != nil {
		return nil, fmt.Errorf("determine stage count: %w", err)
	}
	if session.CurrentStage > maxOrdinal {
		return &AdvanceResult{CurrentStage: session.CurrentStage, Terminal: true}, nil
	}

	stage, err := s.stages.GetByOrdinal(ctx, session.CurrentStage)
	if err != nil {
		return nil, fmt.Errorf("load stage %d: %w", session.CurrentStage, err)
	}

	inStage, err := s.answersInStage(ctx, session, stage.Ordinal)
	if err != nil {
		return nil, err
	}

	result := &AdvanceResult{
		CurrentStage: session.CurrentStage,
		Answered:     len(inStage),
		Required:     stage.Threshold(),
	}

	if len(inStage) < stage.Threshold() {
		result.BlockedReason = BlockInsufficientAnswers
		return result, nil
	}

	if hasUnresolvedTouching(session, inStage) {
		result.BlockedReason = BlockUnresolvedConflicts
		return result, nil
	}

	if stage.Ordinal > 1 && !s.demonstratesReasoning(ctx, stage, inStage) {
		result.BlockedReason = BlockReasoningNotDemonstr
		return result, nil
	}

	session.MarkStageCompleted(stage.Ordinal)
	session.CurrentStage = stage.Ordinal + 1
	if err := s.sessions.UpdateProgress(ctx, session.ID, session.CurrentStage, session.CompletedStages); err != nil {
		return nil, fmt.Errorf("persist stage advancement: %w", err)
	}

	s.logger.Info("session advanced to next stage",
		zap.String("user_id", session.UserID),
		zap.Int("completed_stage", stage.Ordinal),
		zap.Int("current_stage", session.CurrentStage))

	result.Advanced = true
	result.CurrentStage = session.CurrentStage
	result.Terminal = session.CurrentStage > maxOrdinal
	return result, nil
}

// answersInStage returns the session's answered questions belonging to the
// given stage ordinal.
func (s *StageService) answersInStage(ctx context.Context, session *domain.Session, ordinal int) ([]domain.AnsweredQuestion, error) {
	if len(session.Answers) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, len(session.Answers))
	for i, a := range session.Answers {
		ids[i] = a.QuestionID
	}
	questions, err := s.questions.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load answered questions: %w", err)
	}
	byID := make(map[uuid.UUID]domain.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	var inStage []domain.AnsweredQuestion
	for _, ans := range session.Answers {
		q, ok := byID[ans.QuestionID]
		if !ok || q.Stage != ordinal {
			continue
		}
		inStage = append(inStage, domain.AnsweredQuestion{Question: q, Answer: ans})
	}
	return inStage, nil
}

// hasUnresolvedTouching reports whether any open contradiction references a
// question from the answered set.
func hasUnresolvedTouching(session *domain.Session, answered []domain.AnsweredQuestion) bool {
	ids := make(map[uuid.UUID]bool, len(answered))
	for _, aq := range answered {
		ids[aq.Question.ID] = true
	}
	for i := range session.Contradictions {
		c := &session.Contradictions[i]
		if c.Resolved {
			continue
		}
		if ids[c.QuestionAID] || ids[c.QuestionBID] {
			return true
		}
	}
	return false
}

// demonstratesReasoning asks the oracle whether the in-stage answers show the
// stage's reasoning. An explicit negative blocks; any failure passes.
func (s *StageService) demonstratesReasoning(ctx context.Context, stage *domain.Stage, answered []domain.AnsweredQuestion) bool {
	if s.llm == nil {
		return true
	}
	qas := make([]domain.QA, len(answered))
	for i, aq := range answered {
		qas[i] = domain.QA{Question: aq.Question.Text, Answer: aq.Answer.Text}
	}
	ready, err := s.llm.AssessStageReadiness(ctx, *stage, qas)
	if err != nil {
		s.logger.Warn("stage readiness check unavailable, allowing advancement",
			zap.Int("stage", stage.Ordinal),
			zap.Error(err))
		return true
	}
	return ready
}
