package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethoslabs/ethos/internal/domain"
	"github.com/ethoslabs/ethos/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrAlreadyResolved       = errors.New("contradiction already resolved")
	ErrContradictionNotFound = errors.New("contradiction not found in session")
	ErrQuestionNotAnswered   = errors.New("question has no answer in this session")
)

// SubmitResult reports the outcome of an answer submission: the stored
// answer plus any contradictions the submission surfaced.
type SubmitResult struct {
	Answer            *domain.Answer         `json:"answer"`
	NewContradictions []domain.Contradiction `json:"new_contradictions,omitempty"`
	CandidatesChecked int                    `json:"candidates_checked"`
}

// ResolveResult reports a settled contradiction plus optional oracle feedback
// on the user's reasoning.
type ResolveResult struct {
	Contradiction *domain.Contradiction `json:"contradiction"`
	Feedback      string                `json:"feedback,omitempty"`
}

// SessionService orchestrates the probing loop: answer submission with
// contradiction detection, contradiction resolution, analysis, and the next
// question to ask. Mutating operations are serialized per user; reads and
// operations for different users run in parallel.
type SessionService struct {
	sessions       domain.SessionStore
	answers        domain.AnswerStore
	contradictions domain.ContradictionStore
	questions      domain.QuestionStore
	links          domain.LinkStore
	frameworks     domain.FrameworkStore
	stages         domain.StageStore
	embedder       domain.EmbeddingClient
	llm            domain.LLMClient

	generator   *CandidateGenerator
	judge       *ContradictionJudge
	scorer      *ConsistencyScorer
	analyzer    *FrameworkAnalyzer
	questionSvc *QuestionService
	stageSvc    *StageService
	locker      *SessionLocker
	logger      *zap.Logger
}

type SessionServiceDeps struct {
	Sessions       domain.SessionStore
	Answers        domain.AnswerStore
	Contradictions domain.ContradictionStore
	Questions      domain.QuestionStore
	Links          domain.LinkStore
	Frameworks     domain.FrameworkStore
	Stages         domain.StageStore
	Embedder       domain.EmbeddingClient
	LLM            domain.LLMClient
	Generator      *CandidateGenerator
	Judge          *ContradictionJudge
	Scorer         *ConsistencyScorer
	Analyzer       *FrameworkAnalyzer
	QuestionSvc    *QuestionService
	StageSvc       *StageService
	Logger         *zap.Logger
}

func NewSessionService(deps SessionServiceDeps) *SessionService {
	return &SessionService{
		sessions:       deps.Sessions,
		answers:        deps.Answers,
		contradictions: deps.Contradictions,
		questions:      deps.Questions,
		links:          deps.Links,
		frameworks:     deps.Frameworks,
		stages:         deps.Stages,
		embedder:       deps.Embedder,
		llm:            deps.LLM,
		generator:      deps.Generator,
		judge:          deps.Judge,
		scorer:         deps.Scorer,
		analyzer:       deps.Analyzer,
		questionSvc:    deps.QuestionSvc,
		stageSvc:       deps.StageSvc,
		locker:         NewSessionLocker(),
		logger:         deps.Logger,
	}
}

// GetOrCreate returns the user's session, creating one at stage 1 on first
// interaction.
func (s *SessionService) GetOrCreate(ctx context.Context, userID string) (*domain.Session, error) {
	if userID == "" {
		return nil, domain.ErrUserIDEmpty
	}

	session, err := s.sessions.GetByUserID(ctx, userID)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("load session: %w", err)
	}

	session = &domain.Session{
		ID:           uuid.New(),
		UserID:       userID,
		CurrentStage: 1,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	s.logger.Info("created session", zap.String("user_id", userID))
	return session, nil
}

// SubmitAnswer records the answer and runs contradiction detection against
// the session's prior answers. Resubmitting the same question supersedes the
// stored answer rather than duplicating it. One candidate pair failing at the
// judge never aborts the batch.
func (s *SessionService) SubmitAnswer(ctx context.Context, userID string, questionID uuid.UUID, text string) (*SubmitResult, error) {
	unlock := s.locker.Lock(userID)
	defer unlock()

	session, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	question, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("load question: %w", err)
	}

	answer := &domain.Answer{
		ID:         uuid.New(),
		SessionID:  session.ID,
		QuestionID: questionID,
		Text:       text,
	}
	if err := answer.Validate(); err != nil {
		return nil, err
	}

	answer.Embedding = s.embedText(ctx, text)

	existing, err := s.answers.GetBySessionAndQuestion(ctx, session.ID, questionID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("load existing answer: %w", err)
	}
	if existing != nil {
		previous := existing.Text
		if err := s.answers.Supersede(ctx, existing.ID, text, answer.Embedding); err != nil {
			return nil, fmt.Errorf("supersede answer: %w", err)
		}
		answer.ID = existing.ID
		answer.PreviousText = previous
		answer.Modified = true
		answer.CreatedAt = existing.CreatedAt
	} else {
		if err := s.answers.Create(ctx, answer); err != nil {
			return nil, fmt.Errorf("create answer: %w", err)
		}
	}

	// Any mutation invalidates the cached analysis.
	if err := s.sessions.ClearAnalysis(ctx, session.ID); err != nil {
		s.logger.Warn("failed to clear cached analysis", zap.Error(err))
	}

	prior, err := s.answeredQuestions(ctx, session, questionID)
	if err != nil {
		return nil, err
	}

	current := domain.AnsweredQuestion{Question: *question, Answer: *answer}
	candidates, err := s.generator.Generate(ctx, current, prior)
	if err != nil {
		return nil, fmt.Errorf("generate candidates: %w", err)
	}

	result := &SubmitResult{Answer: answer, CandidatesChecked: len(candidates)}
	for _, cand := range candidates {
		exists, err := s.contradictions.ExistsForPair(ctx, session.ID, questionID, cand.Question.ID)
		if err != nil {
			s.logger.Warn("contradiction dedup check failed, judging pair anyway", zap.Error(err))
		} else if exists {
			continue
		}

		detected, err := s.judgeCandidate(ctx, session, current, cand)
		if err != nil {
			s.logger.Warn("contradiction check failed for candidate, continuing",
				zap.String("user_id", userID),
				zap.String("candidate_question_id", cand.Question.ID.String()),
				zap.Error(err))
			continue
		}
		if detected != nil {
			session.Contradictions = append(session.Contradictions, *detected)
			result.NewContradictions = append(result.NewContradictions, *detected)
		}
	}

	s.logger.Info("answer submitted",
		zap.String("user_id", userID),
		zap.String("question_id", questionID.String()),
		zap.Int("candidates_checked", result.CandidatesChecked),
		zap.Int("contradictions_found", len(result.NewContradictions)))

	return result, nil
}

// judgeCandidate runs the judge on one pair and persists a detected
// contradiction. Returns nil when the pair is consistent or a contradiction
// for the pair already exists.
func (s *SessionService) judgeCandidate(ctx context.Context, session *domain.Session, current domain.AnsweredQuestion, cand Candidate) (*domain.Contradiction, error) {
	verdict, err := s.judge.Judge(ctx,
		domain.QA{Question: current.Question.Text, Answer: current.Answer.Text},
		domain.QA{Question: cand.Question.Text, Answer: cand.Answer.Text})
	if err != nil {
		return nil, err
	}
	if !verdict.Contradiction {
		return nil, nil
	}

	contradiction := &domain.Contradiction{
		ID:          uuid.New(),
		SessionID:   session.ID,
		QuestionAID: current.Question.ID,
		QuestionBID: cand.Question.ID,
		AnswerAText: current.Answer.Text,
		AnswerBText: cand.Answer.Text,
		Explanation: verdict.Explanation,
		Confidence:  verdict.Confidence,
	}
	if err := contradiction.Validate(); err != nil {
		return nil, err
	}

	created, err := s.contradictions.Create(ctx, contradiction)
	if err != nil {
		return nil, fmt.Errorf("persist contradiction: %w", err)
	}
	if !created {
		return nil, nil
	}

	// Mirror the finding into the knowledge graph so the pair surfaces for
	// other sessions too.
	link := &domain.QuestionLink{
		ID:           uuid.New(),
		SourceID:     current.Question.ID,
		TargetID:     cand.Question.ID,
		RelationType: domain.RelationContradicts,
		Weight:       verdict.Confidence,
	}
	if err := s.links.Create(ctx, link); err != nil {
		s.logger.Warn("contradiction link creation failed", zap.Error(err))
	}

	return contradiction, nil
}

// ResolveContradiction settles a contradiction by overwriting one of the
// paired answers. The other answer is untouched. Oracle feedback on the
// resolution is best effort.
func (s *SessionService) ResolveContradiction(ctx context.Context, userID string, contradictionID uuid.UUID, r domain.Resolution) (*ResolveResult, error) {
	unlock := s.locker.Lock(userID)
	defer unlock()

	session, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	contradiction := session.ContradictionByID(contradictionID)
	if contradiction == nil {
		return nil, ErrContradictionNotFound
	}
	if contradiction.Resolved {
		return nil, ErrAlreadyResolved
	}
	if !contradiction.Involves(r.OverwrittenQuestionID) {
		return nil, domain.ErrResolutionQuestionNotInPair
	}

	overwritten, err := s.answers.GetBySessionAndQuestion(ctx, session.ID, r.OverwrittenQuestionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrQuestionNotAnswered
		}
		return nil, fmt.Errorf("load overwritten answer: %w", err)
	}

	embedding := s.embedText(ctx, r.NewAnswerText)
	if err := s.answers.Supersede(ctx, overwritten.ID, r.NewAnswerText, embedding); err != nil {
		return nil, fmt.Errorf("overwrite answer: %w", err)
	}

	r.ResolvedAt = time.Now().UTC()
	if err := s.contradictions.Resolve(ctx, contradictionID, r); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAlreadyResolved
		}
		return nil, fmt.Errorf("resolve contradiction: %w", err)
	}

	contradiction.Resolved = true
	contradiction.Resolution = &r

	if err := s.sessions.ClearAnalysis(ctx, session.ID); err != nil {
		s.logger.Warn("failed to clear cached analysis", zap.Error(err))
	}

	s.logger.Info("contradiction resolved",
		zap.String("user_id", userID),
		zap.String("contradiction_id", contradictionID.String()))

	result := &ResolveResult{Contradiction: contradiction}
	result.Feedback = s.resolutionFeedback(ctx, session, contradiction, r)
	return result, nil
}

// resolutionFeedback asks the oracle to reflect on the user's resolution.
// Failures degrade to no feedback.
func (s *SessionService) resolutionFeedback(ctx context.Context, session *domain.Session, c *domain.Contradiction, r domain.Resolution) string {
	if s.llm == nil {
		return ""
	}

	questions, err := s.questions.GetByIDs(ctx, []uuid.UUID{c.QuestionAID, c.QuestionBID})
	if err != nil || len(questions) != 2 {
		s.logger.Warn("could not load pair for resolution feedback", zap.Error(err))
		return ""
	}
	texts := map[uuid.UUID]string{
		questions[0].ID: questions[0].Text,
		questions[1].ID: questions[1].Text,
	}

	feedback, err := s.llm.ResolutionFeedback(ctx,
		domain.QA{Question: texts[c.QuestionAID], Answer: c.AnswerAText},
		domain.QA{Question: texts[c.QuestionBID], Answer: c.AnswerBText},
		c.Explanation, r)
	if err != nil {
		s.logger.Warn("resolution feedback unavailable", zap.Error(err))
		return ""
	}
	return feedback
}

// Analysis returns the session's consistency score and framework alignment,
// cached until the next mutation. A degraded result still carries the full
// heuristic analysis, flagged so the caller can tell.
func (s *SessionService) Analysis(ctx context.Context, userID string, refresh bool) (*domain.Analysis, error) {
	unlock := s.locker.Lock(userID)
	defer unlock()

	session, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session.Analysis != nil && !refresh {
		return session.Analysis, nil
	}

	answered, err := s.answeredQuestions(ctx, session, uuid.Nil)
	if err != nil {
		return nil, err
	}
	qas := make([]domain.QA, len(answered))
	for i, aq := range answered {
		qas[i] = domain.QA{Question: aq.Question.Text, Answer: aq.Answer.Text}
	}

	frameworks, err := s.frameworks.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load frameworks: %w", err)
	}

	score, scoreDegraded := s.scorer.Score(ctx, session, qas)
	extraction, alignDegraded := s.analyzer.Analyze(ctx, answered, frameworks)

	analysis := &domain.Analysis{
		FrameworkAlignment: extraction.Alignment,
		KeyPrinciples:      extraction.KeyPrinciples,
		MetaPrinciples:     extraction.MetaPrinciples,
		SubtlePatterns:     extraction.SubtlePatterns,
		ConsistencyScore:   score,
		Degraded:           scoreDegraded || alignDegraded,
		ComputedAt:         time.Now().UTC(),
	}

	if err := s.sessions.CacheAnalysis(ctx, session.ID, analysis); err != nil {
		s.logger.Warn("failed to cache analysis", zap.Error(err))
	}
	session.Analysis = analysis
	return analysis, nil
}

// NextQuestion returns an unanswered question for the session's current
// stage, generating one when the stage's bank is exhausted.
func (s *SessionService) NextQuestion(ctx context.Context, userID string) (*domain.Question, error) {
	session, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	stage, err := s.stages.GetByOrdinal(ctx, session.CurrentStage)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("load stage: %w", err)
	}

	return s.questionSvc.NextForSession(ctx, session, stage)
}

// AdvanceStage evaluates stage advancement for the user under the same
// per-user lock as the other mutations, so a submission landing mid-check
// cannot slip a fresh contradiction past the guard.
func (s *SessionService) AdvanceStage(ctx context.Context, userID string) (*AdvanceResult, error) {
	unlock := s.locker.Lock(userID)
	defer unlock()

	session, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.stageSvc.Advance(ctx, session)
}

// ListFrameworks exposes the framework reference data.
func (s *SessionService) ListFrameworks(ctx context.Context) ([]domain.Framework, error) {
	return s.frameworks.ListAll(ctx)
}

// answeredQuestions joins the session's answers with their owning questions,
// excluding the given question id when set.
func (s *SessionService) answeredQuestions(ctx context.Context, session *domain.Session, exclude uuid.UUID) ([]domain.AnsweredQuestion, error) {
	if len(session.Answers) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(session.Answers))
	for _, a := range session.Answers {
		if a.QuestionID == exclude {
			continue
		}
		ids = append(ids, a.QuestionID)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	questions, err := s.questions.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load answered questions: %w", err)
	}
	byID := make(map[uuid.UUID]domain.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	answered := make([]domain.AnsweredQuestion, 0, len(ids))
	for _, a := range session.Answers {
		q, ok := byID[a.QuestionID]
		if !ok {
			continue
		}
		answered = append(answered, domain.AnsweredQuestion{Question: q, Answer: a})
	}
	return answered, nil
}

// embedText embeds text best-effort; a nil result simply disables the
// similarity signals downstream.
func (s *SessionService) embedText(ctx context.Context, text string) []float32 {
	if s.embedder == nil {
		return nil
	}
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		s.logger.Warn("embedding unavailable", zap.Error(err))
		return nil
	}
	return vec
}
