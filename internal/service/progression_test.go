package service

import (
	"context"
	"errors"
	"testing"

	"github.com/ethoslabs/ethos/internal/domain"
	"github.com/ethoslabs/ethos/internal/llm"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type progressionFixture struct {
	svc      *StageService
	sessions *memSessionStore
	qs       *memQuestionStore
	llm      *llm.MockClient
	session  *domain.Session
}

func newProgressionFixture(t *testing.T, currentStage int) *progressionFixture {
	t.Helper()
	stages := newMemStageStore()
	for i := 1; i <= 3; i++ {
		_ = stages.Create(context.Background(), &domain.Stage{Ordinal: i, Name: "stage"})
	}

	qs := newMemQuestionStore()
	sessions := newMemSessionStore()
	mock := llm.NewMockClient()

	session := &domain.Session{ID: uuid.New(), UserID: "u1", CurrentStage: currentStage}
	_ = sessions.Create(context.Background(), session)

	return &progressionFixture{
		svc:      NewStageService(stages, qs, sessions, mock, zap.NewNop()),
		sessions: sessions,
		qs:       qs,
		llm:      mock,
		session:  session,
	}
}

// answerInStage seeds a question in the given stage plus the session's answer.
func (f *progressionFixture) answerInStage(stage int) uuid.UUID {
	q := &domain.Question{ID: uuid.New(), Text: "q", Stage: stage}
	_ = f.qs.Create(context.Background(), q)
	f.session.Answers = append(f.session.Answers, domain.Answer{
		ID: uuid.New(), SessionID: f.session.ID, QuestionID: q.ID, Text: "a",
	})
	return q.ID
}

func TestStageService_BlockedOnInsufficientAnswers(t *testing.T) {
	f := newProgressionFixture(t, 1)
	f.answerInStage(1)
	f.answerInStage(1)

	result, err := f.svc.Advance(context.Background(), f.session)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Advanced {
		t.Error("should not advance with 2 of 3 required answers")
	}
	if result.BlockedReason != BlockInsufficientAnswers {
		t.Errorf("reason = %s, want %s", result.BlockedReason, BlockInsufficientAnswers)
	}
	if result.Answered != 2 || result.Required != 3 {
		t.Errorf("answered/required = %d/%d, want 2/3", result.Answered, result.Required)
	}
	if f.session.CurrentStage != 1 {
		t.Error("stage must not move when blocked")
	}
}

func TestStageService_BlockedOnUnresolvedContradiction(t *testing.T) {
	f := newProgressionFixture(t, 1)
	qa := f.answerInStage(1)
	qb := f.answerInStage(1)
	f.answerInStage(1)

	f.session.Contradictions = []domain.Contradiction{{
		ID: uuid.New(), QuestionAID: qa, QuestionBID: qb, Resolved: false,
	}}

	result, err := f.svc.Advance(context.Background(), f.session)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Advanced || result.BlockedReason != BlockUnresolvedConflicts {
		t.Fatalf("expected unresolved-contradiction block, got %+v", result)
	}

	// Resolving the contradiction unblocks immediately.
	f.session.Contradictions[0].Resolved = true

	result, err = f.svc.Advance(context.Background(), f.session)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Advanced {
		t.Fatalf("expected advancement after resolution, got %+v", result)
	}
	if f.session.CurrentStage != 2 {
		t.Errorf("current stage = %d, want 2", f.session.CurrentStage)
	}
	if len(f.session.CompletedStages) != 1 || f.session.CompletedStages[0] != 1 {
		t.Errorf("completed stages = %v, want [1]", f.session.CompletedStages)
	}
}

func TestStageService_ContradictionOutsideStageDoesNotBlock(t *testing.T) {
	f := newProgressionFixture(t, 2)
	f.answerInStage(2)
	f.answerInStage(2)
	f.answerInStage(2)
	stage1Q := f.answerInStage(1)

	f.session.Contradictions = []domain.Contradiction{{
		ID: uuid.New(), QuestionAID: stage1Q, QuestionBID: uuid.New(), Resolved: false,
	}}

	result, err := f.svc.Advance(context.Background(), f.session)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Advanced {
		t.Errorf("contradiction confined to another stage's questions must not block, got %+v", result)
	}
}

func TestStageService_FirstStageSkipsReadinessCheck(t *testing.T) {
	f := newProgressionFixture(t, 1)
	f.answerInStage(1)
	f.answerInStage(1)
	f.answerInStage(1)
	f.llm.AssessStageReadinessResponse = false

	result, err := f.svc.Advance(context.Background(), f.session)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Advanced {
		t.Error("stage 1 has no readiness gate and should advance")
	}
	if len(f.llm.AssessStageReadinessCalls) != 0 {
		t.Error("readiness oracle must not be consulted for stage 1")
	}
}

func TestStageService_ReadinessNegativeBlocks(t *testing.T) {
	f := newProgressionFixture(t, 2)
	f.answerInStage(2)
	f.answerInStage(2)
	f.answerInStage(2)
	f.llm.AssessStageReadinessResponse = false

	result, err := f.svc.Advance(context.Background(), f.session)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Advanced {
		t.Error("explicit negative readiness verdict must block")
	}
	if result.BlockedReason != BlockReasoningNotDemonstr {
		t.Errorf("reason = %s, want %s", result.BlockedReason, BlockReasoningNotDemonstr)
	}
}

func TestStageService_ReadinessFailureFailsOpen(t *testing.T) {
	f := newProgressionFixture(t, 2)
	f.answerInStage(2)
	f.answerInStage(2)
	f.answerInStage(2)
	f.llm.AssessStageReadinessError = errors.New("oracle down")

	result, err := f.svc.Advance(context.Background(), f.session)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Advanced {
		t.Error("readiness oracle failure must not strand the user")
	}
}

func TestStageService_CompletedStagesIdempotent(t *testing.T) {
	f := newProgressionFixture(t, 1)
	f.answerInStage(1)
	f.answerInStage(1)
	f.answerInStage(1)
	f.session.CompletedStages = []int{1}

	result, err := f.svc.Advance(context.Background(), f.session)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Advanced {
		t.Fatal("expected advancement")
	}
	if len(f.session.CompletedStages) != 1 {
		t.Errorf("completed stages duplicated: %v", f.session.CompletedStages)
	}
}

func TestStageService_TerminalState(t *testing.T) {
	f := newProgressionFixture(t, 4)

	result, err := f.svc.Advance(context.Background(), f.session)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Advanced {
		t.Error("no advancement beyond the last stage")
	}
	if !result.Terminal {
		t.Error("expected terminal state past the final stage")
	}
}

func TestStageService_AdvancePersistsProgress(t *testing.T) {
	f := newProgressionFixture(t, 1)
	f.answerInStage(1)
	f.answerInStage(1)
	f.answerInStage(1)

	if _, err := f.svc.Advance(context.Background(), f.session); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored := f.sessions.sessions["u1"]
	if stored.CurrentStage != 2 {
		t.Errorf("persisted stage = %d, want 2", stored.CurrentStage)
	}
}
