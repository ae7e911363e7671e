package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ethoslabs/ethos/internal/domain"
	"github.com/ethoslabs/ethos/internal/embedding"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func answeredQ(stage int, text, answer string, tags ...string) domain.AnsweredQuestion {
	qid := uuid.New()
	return domain.AnsweredQuestion{
		Question: domain.Question{ID: qid, Text: text, Stage: stage, Tags: tags},
		Answer:   domain.Answer{ID: uuid.New(), QuestionID: qid, Text: answer},
	}
}

func newTestGenerator(qs *memQuestionStore, links *memLinkStore) *CandidateGenerator {
	return NewCandidateGenerator(qs, links, nil, zap.NewNop())
}

func TestCandidateGenerator_ExplicitLinks(t *testing.T) {
	prior := answeredQ(1, "Is it right to lie to avoid punishment?", "Yes, if it prevents starvation.")
	current := answeredQ(1, "Should you steal food to avoid starving?", "No, stealing is always wrong.")
	current.Question.RelatedQuestionIDs = []uuid.UUID{prior.Question.ID}

	gen := newTestGenerator(newMemQuestionStore(), newMemLinkStore())
	candidates, err := gen.Generate(context.Background(), current, []domain.AnsweredQuestion{prior})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].Weight != 1.0 {
		t.Errorf("explicit link weight = %f, want 1.0", candidates[0].Weight)
	}
	if candidates[0].Signal != SignalExplicitLink {
		t.Errorf("signal = %s, want %s", candidates[0].Signal, SignalExplicitLink)
	}
}

func TestCandidateGenerator_TagOverlap(t *testing.T) {
	current := answeredQ(1, "Should you steal food to avoid starving?", "No, stealing is always wrong.",
		"punishment", "honesty", "survival")
	overlapping := answeredQ(1, "Is it right to lie to avoid punishment?", "Yes, if it prevents starvation.",
		"punishment", "honesty")
	single := answeredQ(1, "Is charity a duty?", "Only when convenient.", "honesty")
	unrelated := answeredQ(1, "Should animals have rights?", "Yes.", "animals", "rights")

	gen := newTestGenerator(newMemQuestionStore(), newMemLinkStore())
	candidates, err := gen.Generate(context.Background(), current,
		[]domain.AnsweredQuestion{overlapping, single, unrelated})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(candidates) != 1 {
		t.Fatalf("expected only the >=2 overlap question, got %d candidates", len(candidates))
	}
	if candidates[0].Question.ID != overlapping.Question.ID {
		t.Error("wrong candidate surfaced")
	}
	want := 0.8 + 0.05*2
	if !scoreEq(candidates[0].Weight, want) {
		t.Errorf("weight = %f, want %f", candidates[0].Weight, want)
	}
}

func TestCandidateGenerator_TagOverlapTopThree(t *testing.T) {
	current := answeredQ(1, "q", "a", "t1", "t2", "t3", "t4", "t5")

	var prior []domain.AnsweredQuestion
	// Five prior questions with increasing overlap 2..5 plus a duplicate.
	for i := 2; i <= 5; i++ {
		tags := make([]string, i)
		for j := 0; j < i; j++ {
			tags[j] = fmt.Sprintf("t%d", j+1)
		}
		prior = append(prior, answeredQ(1, fmt.Sprintf("q%d", i), "answer", tags...))
	}
	prior = append(prior, answeredQ(1, "q-dup", "answer", "t1", "t2"))

	gen := newTestGenerator(newMemQuestionStore(), newMemLinkStore())
	candidates, err := gen.Generate(context.Background(), current, prior)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(candidates) != 3 {
		t.Fatalf("expected top 3 by overlap, got %d", len(candidates))
	}
	if !scoreEq(candidates[0].Weight, 0.8+0.05*5) {
		t.Errorf("best candidate weight = %f, want %f", candidates[0].Weight, 0.8+0.05*5)
	}
	if !scoreEq(candidates[2].Weight, 0.8+0.05*3) {
		t.Errorf("third candidate weight = %f, want %f", candidates[2].Weight, 0.8+0.05*3)
	}
}

func TestCandidateGenerator_EmbeddingOnlyWhenFewCandidates(t *testing.T) {
	qs := newMemQuestionStore()
	current := answeredQ(1, "q", "a")
	current.Question.Embedding = []float32{1, 0, 0}

	prior := make([]domain.AnsweredQuestion, 0, 6)
	for i := 0; i < 2; i++ {
		prior = append(prior, answeredQ(1, fmt.Sprintf("nn-%d", i), "answer"))
		qs.neighbors = append(qs.neighbors, domain.QuestionWithDistance{Question: prior[i].Question, Distance: 0.1})
	}

	gen := newTestGenerator(qs, newMemLinkStore())
	candidates, err := gen.Generate(context.Background(), current, prior)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(candidates) != 2 {
		t.Fatalf("expected 2 neighbor candidates, got %d", len(candidates))
	}
	for _, c := range candidates {
		if c.Signal != SignalQuestionSimilarity || c.Weight != 0.6 {
			t.Errorf("candidate %s: signal %s weight %f", c.Question.Text, c.Signal, c.Weight)
		}
	}
	if qs.nearestCalls != 1 {
		t.Errorf("nearest calls = %d, want 1", qs.nearestCalls)
	}
}

func TestCandidateGenerator_BackfillsMissingQuestionEmbedding(t *testing.T) {
	qs := newMemQuestionStore()
	current := answeredQ(1, "q without stored vector", "a")
	stored := current.Question
	_ = qs.Create(context.Background(), &stored)

	prior := answeredQ(1, "neighbor", "answer")
	qs.neighbors = []domain.QuestionWithDistance{{Question: prior.Question, Distance: 0.1}}

	gen := NewCandidateGenerator(qs, newMemLinkStore(), embedding.NewMockClient(), zap.NewNop())
	candidates, err := gen.Generate(context.Background(), current, []domain.AnsweredQuestion{prior})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(candidates) != 1 || candidates[0].Signal != SignalQuestionSimilarity {
		t.Fatalf("expected neighbor candidate via lazy embedding, got %+v", candidates)
	}
	if len(qs.updatedEmbeddings) != 1 || qs.updatedEmbeddings[0] != current.Question.ID {
		t.Fatalf("embedding backfill calls = %v, want the current question", qs.updatedEmbeddings)
	}
	if len(qs.questions[current.Question.ID].Embedding) == 0 {
		t.Error("backfilled vector should be persisted on the stored question")
	}
}

func TestCandidateGenerator_EmbeddingSkippedWhenEnoughCandidates(t *testing.T) {
	qs := newMemQuestionStore()
	qs.nearestErr = errors.New("should not be called")

	current := answeredQ(1, "q", "a", "t1", "t2")
	current.Question.Embedding = []float32{1, 0, 0}

	var prior []domain.AnsweredQuestion
	for i := 0; i < 5; i++ {
		p := answeredQ(1, fmt.Sprintf("linked-%d", i), "answer")
		current.Question.RelatedQuestionIDs = append(current.Question.RelatedQuestionIDs, p.Question.ID)
		prior = append(prior, p)
	}

	gen := newTestGenerator(qs, newMemLinkStore())
	candidates, err := gen.Generate(context.Background(), current, prior)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 5 {
		t.Fatalf("expected 5 explicit candidates, got %d", len(candidates))
	}
	if qs.nearestCalls != 0 {
		t.Error("nearest-neighbor index should not be queried with 5 candidates already found")
	}
}

func TestCandidateGenerator_AnswerSimilarity(t *testing.T) {
	current := answeredQ(1, "q", "a long and substantial answer text")
	current.Answer.Embedding = []float32{1, 0, 0}

	similar := answeredQ(1, "other question", "another answer")
	similar.Answer.Embedding = []float32{0.99, 0.1, 0}
	dissimilar := answeredQ(1, "third question", "different answer")
	dissimilar.Answer.Embedding = []float32{0, 1, 0}

	gen := newTestGenerator(newMemQuestionStore(), newMemLinkStore())
	candidates, err := gen.Generate(context.Background(), current,
		[]domain.AnsweredQuestion{similar, dissimilar})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate from answer similarity, got %d", len(candidates))
	}
	if candidates[0].Question.ID != similar.Question.ID {
		t.Error("wrong candidate surfaced")
	}
	if candidates[0].Signal != SignalAnswerSimilarity || candidates[0].Weight != 0.7 {
		t.Errorf("signal %s weight %f, want %s 0.7", candidates[0].Signal, candidates[0].Weight, SignalAnswerSimilarity)
	}
}

func TestCandidateGenerator_ShortAnswerSkipsAnswerSimilarity(t *testing.T) {
	current := answeredQ(1, "q", "short")
	current.Answer.Embedding = []float32{1, 0, 0}

	similar := answeredQ(1, "other", "answer")
	similar.Answer.Embedding = []float32{1, 0, 0}

	gen := newTestGenerator(newMemQuestionStore(), newMemLinkStore())
	candidates, err := gen.Generate(context.Background(), current, []domain.AnsweredQuestion{similar})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("short answers should not trigger answer similarity, got %d candidates", len(candidates))
	}
}

func TestCandidateGenerator_FirstSignalWins(t *testing.T) {
	prior := answeredQ(1, "linked and tagged", "answer", "t1", "t2", "t3")
	current := answeredQ(1, "q", "a", "t1", "t2", "t3")
	current.Question.RelatedQuestionIDs = []uuid.UUID{prior.Question.ID}

	gen := newTestGenerator(newMemQuestionStore(), newMemLinkStore())
	candidates, err := gen.Generate(context.Background(), current, []domain.AnsweredQuestion{prior})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(candidates) != 1 {
		t.Fatalf("expected de-duplication to a single candidate, got %d", len(candidates))
	}
	if candidates[0].Signal != SignalExplicitLink || candidates[0].Weight != 1.0 {
		t.Errorf("most-trusted signal should win: got %s at %f", candidates[0].Signal, candidates[0].Weight)
	}
}

func TestCandidateGenerator_CapKeepsExplicitLinks(t *testing.T) {
	current := answeredQ(1, "q", "a", "t1", "t2")

	var prior []domain.AnsweredQuestion
	var linked []uuid.UUID
	for i := 0; i < 4; i++ {
		p := answeredQ(1, fmt.Sprintf("linked-%d", i), "answer")
		linked = append(linked, p.Question.ID)
		prior = append(prior, p)
	}
	current.Question.RelatedQuestionIDs = linked

	for i := 0; i < 3; i++ {
		prior = append(prior, answeredQ(1, fmt.Sprintf("tagged-%d", i), "answer", "t1", "t2"))
	}

	gen := newTestGenerator(newMemQuestionStore(), newMemLinkStore())
	candidates, err := gen.Generate(context.Background(), current, prior)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(candidates) != 5 {
		t.Fatalf("expected cap of 5, got %d", len(candidates))
	}
	explicit := 0
	for _, c := range candidates {
		if c.Signal == SignalExplicitLink {
			explicit++
		}
	}
	if explicit != 4 {
		t.Errorf("all 4 explicit links must survive the cap, got %d", explicit)
	}
}

func TestCandidateGenerator_NoPriorAnswers(t *testing.T) {
	current := answeredQ(1, "q", "a")
	gen := newTestGenerator(newMemQuestionStore(), newMemLinkStore())
	candidates, err := gen.Generate(context.Background(), current, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if candidates != nil {
		t.Error("expected no candidates for an empty session")
	}
}

func TestCandidateGenerator_LinkStoreEdges(t *testing.T) {
	prior := answeredQ(1, "graph-linked", "answer")
	current := answeredQ(1, "q", "a")

	links := newMemLinkStore()
	links.related[current.Question.ID] = []uuid.UUID{prior.Question.ID}

	gen := newTestGenerator(newMemQuestionStore(), links)
	candidates, err := gen.Generate(context.Background(), current, []domain.AnsweredQuestion{prior})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(candidates) != 1 || candidates[0].Signal != SignalExplicitLink {
		t.Fatalf("expected graph edge to act as explicit link, got %+v", candidates)
	}
}

func TestCosineSimilarity(t *testing.T) {
	if got := cosineSimilarity([]float32{1, 0}, []float32{1, 0}); !scoreEq(got, 1) {
		t.Errorf("identical vectors: got %f, want 1", got)
	}
	if got := cosineSimilarity([]float32{1, 0}, []float32{0, 1}); !scoreEq(got, 0) {
		t.Errorf("orthogonal vectors: got %f, want 0", got)
	}
	if got := cosineSimilarity([]float32{1, 0}, []float32{-1, 0}); !scoreEq(got, -1) {
		t.Errorf("opposite vectors: got %f, want -1", got)
	}
	if got := cosineSimilarity([]float32{1, 0}, []float32{1, 0, 0}); got != 0 {
		t.Errorf("mismatched dimensions should score 0, got %f", got)
	}
}
