package service

import (
	"context"
	"errors"
	"testing"

	"github.com/ethoslabs/ethos/internal/domain"
	"github.com/ethoslabs/ethos/internal/embedding"
	"github.com/ethoslabs/ethos/internal/llm"
	"github.com/ethoslabs/ethos/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func TestQuestionService_CreateEmbedsAndLinks(t *testing.T) {
	qs := newMemQuestionStore()
	links := newMemLinkStore()
	svc := NewQuestionService(qs, links, embedding.NewMockClient(), llm.NewMockClient(), zap.NewNop())

	related := uuid.New()
	q := &domain.Question{
		Text:               "Should promises ever be broken?",
		Stage:              1,
		Tags:               []string{"promises"},
		RelatedQuestionIDs: []uuid.UUID{related},
		Source:             domain.QuestionSourceSeed,
	}

	if err := svc.Create(context.Background(), q); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(q.Embedding) != embedding.Dimensions {
		t.Errorf("embedding dimensions = %d, want %d", len(q.Embedding), embedding.Dimensions)
	}
	if len(links.links) != 1 {
		t.Fatalf("link count = %d, want 1", len(links.links))
	}
	l := links.links[0]
	if l.RelationType != domain.RelationRelatedTo || l.TargetID != related || l.Weight != 1.0 {
		t.Errorf("unexpected link: %+v", l)
	}
}

func TestQuestionService_CreateToleratesEmbeddingFailure(t *testing.T) {
	embedder := embedding.NewMockClient()
	embedder.EmbedError = errors.New("embedding down")
	svc := NewQuestionService(newMemQuestionStore(), newMemLinkStore(), embedder, llm.NewMockClient(), zap.NewNop())

	q := &domain.Question{Text: "q", Stage: 1, Source: domain.QuestionSourceSeed}
	if err := svc.Create(context.Background(), q); err != nil {
		t.Fatalf("embedding failure must not fail creation: %v", err)
	}
	if q.Embedding != nil {
		t.Error("expected no embedding")
	}
}

func TestQuestionService_CreateToleratesLinkFailure(t *testing.T) {
	qs := newMemQuestionStore()
	links := newMemLinkStore()
	links.createErr = errors.New("edge insert failed")
	svc := NewQuestionService(qs, links, embedding.NewMockClient(), llm.NewMockClient(), zap.NewNop())

	q := &domain.Question{
		Text:               "q",
		Stage:              1,
		RelatedQuestionIDs: []uuid.UUID{uuid.New()},
		Source:             domain.QuestionSourceSeed,
	}
	if err := svc.Create(context.Background(), q); err != nil {
		t.Fatalf("link failure must not fail creation: %v", err)
	}
	if _, ok := qs.questions[q.ID]; !ok {
		t.Error("question should still be persisted")
	}
}

func TestQuestionService_CreateRejectsInvalid(t *testing.T) {
	svc := NewQuestionService(newMemQuestionStore(), newMemLinkStore(), nil, nil, zap.NewNop())

	if err := svc.Create(context.Background(), &domain.Question{Text: "", Stage: 1}); !errors.Is(err, domain.ErrQuestionTextEmpty) {
		t.Errorf("expected ErrQuestionTextEmpty, got %v", err)
	}
	if err := svc.Create(context.Background(), &domain.Question{Text: "q", Stage: 0}); !errors.Is(err, domain.ErrQuestionStageInvalid) {
		t.Errorf("expected ErrQuestionStageInvalid, got %v", err)
	}
}

func TestQuestionService_LinksFor(t *testing.T) {
	qs := newMemQuestionStore()
	links := newMemLinkStore()
	svc := NewQuestionService(qs, links, embedding.NewMockClient(), llm.NewMockClient(), zap.NewNop())

	related := uuid.New()
	q := &domain.Question{
		Text:               "Should promises ever be broken?",
		Stage:              1,
		RelatedQuestionIDs: []uuid.UUID{related},
		Source:             domain.QuestionSourceSeed,
	}
	if err := svc.Create(context.Background(), q); err != nil {
		t.Fatalf("create question: %v", err)
	}

	got, err := svc.LinksFor(context.Background(), q.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].TargetID != related || got[0].RelationType != domain.RelationRelatedTo {
		t.Errorf("links = %+v, want the RELATED_TO edge", got)
	}

	if _, err := svc.LinksFor(context.Background(), uuid.New()); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("unknown question: got %v, want ErrNotFound", err)
	}
}

func TestQuestionService_GenerateForStage_OracleFailure(t *testing.T) {
	mock := llm.NewMockClient()
	mock.GenerateQuestionError = errors.New("oracle down")
	svc := NewQuestionService(newMemQuestionStore(), newMemLinkStore(), embedding.NewMockClient(), mock, zap.NewNop())

	stage := &domain.Stage{Ordinal: 1, Name: "stage"}
	if _, err := svc.GenerateForStage(context.Background(), stage, nil); err == nil {
		t.Fatal("expected generation failure to propagate")
	}
}

func TestQuestionService_GenerateForStage_PassesExistingTexts(t *testing.T) {
	mock := llm.NewMockClient()
	qs := newMemQuestionStore()
	svc := NewQuestionService(qs, newMemLinkStore(), embedding.NewMockClient(), mock, zap.NewNop())

	stage := &domain.Stage{Ordinal: 2, Name: "stage"}
	existing := []domain.Question{{Text: "old question"}}

	q, err := svc.GenerateForStage(context.Background(), stage, existing)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if q.Stage != 2 || q.Source != domain.QuestionSourceGenerated {
		t.Errorf("generated question misconfigured: %+v", q)
	}
	if _, ok := qs.questions[q.ID]; !ok {
		t.Error("generated question should be persisted")
	}
	if len(mock.GenerateQuestionCalls) != 1 {
		t.Errorf("oracle calls = %d, want 1", len(mock.GenerateQuestionCalls))
	}
}
