package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethoslabs/ethos/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrNoQuestionAvailable = errors.New("no question available for stage")

// QuestionService manages the question bank: seeded and generated questions,
// their embeddings and their explicit links.
type QuestionService struct {
	questions domain.QuestionStore
	links     domain.LinkStore
	embedder  domain.EmbeddingClient
	llm       domain.LLMClient
	logger    *zap.Logger
}

func NewQuestionService(questions domain.QuestionStore, links domain.LinkStore, embedder domain.EmbeddingClient, llm domain.LLMClient, logger *zap.Logger) *QuestionService {
	return &QuestionService{
		questions: questions,
		links:     links,
		embedder:  embedder,
		llm:       llm,
		logger:    logger,
	}
}

// Create validates and persists a question, embeds its text, and materializes
// its explicit links as RELATED_TO edges. Embedding failure is tolerated; the
// question is still usable through the structural signals.
func (s *QuestionService) Create(ctx context.Context, q *domain.Question) error {
	if err := q.Validate(); err != nil {
		return err
	}
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}

	if s.embedder != nil {
		vec, err := s.embedder.Embed(ctx, q.Text)
		if err != nil {
			s.logger.Warn("question embedding failed, storing without vector",
				zap.String("question_id", q.ID.String()),
				zap.Error(err))
		} else {
			q.Embedding = vec
		}
	}

	if err := s.questions.Create(ctx, q); err != nil {
		return fmt.Errorf("create question: %w", err)
	}

	for _, relatedID := range q.RelatedQuestionIDs {
		link := &domain.QuestionLink{
			ID:           uuid.New(),
			SourceID:     q.ID,
			TargetID:     relatedID,
			RelationType: domain.RelationRelatedTo,
			Weight:       1.0,
		}
		if err := s.links.Create(ctx, link); err != nil {
			s.logger.Warn("related link creation failed",
				zap.String("source_id", q.ID.String()),
				zap.String("target_id", relatedID.String()),
				zap.Error(err))
		}
	}
	return nil
}

func (s *QuestionService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Question, error) {
	return s.questions.GetByID(ctx, id)
}

// LinksFor returns the question's outgoing graph edges, RELATED_TO and
// CONTRADICTS alike.
func (s *QuestionService) LinksFor(ctx context.Context, id uuid.UUID) ([]domain.QuestionLink, error) {
	if _, err := s.questions.GetByID(ctx, id); err != nil {
		return nil, err
	}
	links, err := s.links.GetBySource(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load question links: %w", err)
	}
	return links, nil
}

func (s *QuestionService) ListByStage(ctx context.Context, stage int) ([]domain.Question, error) {
	return s.questions.GetByStage(ctx, stage)
}

// NextForSession returns an unanswered question from the session's current
// stage, synthesizing a new one when the bank is exhausted.
func (s *QuestionService) NextForSession(ctx context.Context, session *domain.Session, stage *domain.Stage) (*domain.Question, error) {
	available, err := s.questions.GetByStage(ctx, session.CurrentStage)
	if err != nil {
		return nil, fmt.Errorf("list stage questions: %w", err)
	}

	for i := range available {
		if session.AnswerFor(available[i].ID) == nil {
			return &available[i], nil
		}
	}

	if stage == nil || s.llm == nil {
		return nil, ErrNoQuestionAvailable
	}
	return s.GenerateForStage(ctx, stage, available)
}

// GenerateForStage asks the oracle for a fresh question in the stage's
// register, avoiding duplicates of the existing bank, and persists it.
func (s *QuestionService) GenerateForStage(ctx context.Context, stage *domain.Stage, existing []domain.Question) (*domain.Question, error) {
	texts := make([]string, len(existing))
	for i, q := range existing {
		texts[i] = q.Text
	}

	generated, err := s.llm.GenerateQuestion(ctx, *stage, texts)
	if err != nil {
		return nil, fmt.Errorf("generate question for stage %d: %w", stage.Ordinal, err)
	}

	q := &domain.Question{
		ID:     uuid.New(),
		Text:   generated.Text,
		Stage:  stage.Ordinal,
		Tags:   generated.Tags,
		Source: domain.QuestionSourceGenerated,
	}
	if err := s.Create(ctx, q); err != nil {
		return nil, err
	}

	s.logger.Info("generated new question",
		zap.Int("stage", stage.Ordinal),
		zap.String("question_id", q.ID.String()))
	return q, nil
}
