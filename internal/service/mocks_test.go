package service

import (
	"context"

	"github.com/ethoslabs/ethos/internal/domain"
	"github.com/ethoslabs/ethos/internal/store"
	"github.com/google/uuid"
)

type memQuestionStore struct {
	questions         map[uuid.UUID]*domain.Question
	neighbors         []domain.QuestionWithDistance
	nearestErr        error
	nearestCalls      int
	updatedEmbeddings []uuid.UUID
}

func newMemQuestionStore() *memQuestionStore {
	return &memQuestionStore{questions: make(map[uuid.UUID]*domain.Question)}
}

func (m *memQuestionStore) Create(ctx context.Context, q *domain.Question) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	m.questions[q.ID] = q
	return nil
}

func (m *memQuestionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Question, error) {
	q, ok := m.questions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return q, nil
}

func (m *memQuestionStore) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Question, error) {
	var out []domain.Question
	seen := make(map[uuid.UUID]bool)
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if q, ok := m.questions[id]; ok {
			out = append(out, *q)
		}
	}
	return out, nil
}

func (m *memQuestionStore) GetByStage(ctx context.Context, stage int) ([]domain.Question, error) {
	var out []domain.Question
	for _, q := range m.questions {
		if q.Stage == stage {
			out = append(out, *q)
		}
	}
	return out, nil
}

func (m *memQuestionStore) ListAll(ctx context.Context) ([]domain.Question, error) {
	var out []domain.Question
	for _, q := range m.questions {
		out = append(out, *q)
	}
	return out, nil
}

func (m *memQuestionStore) NearestByEmbedding(ctx context.Context, embedding []float32, k int) ([]domain.QuestionWithDistance, error) {
	m.nearestCalls++
	if m.nearestErr != nil {
		return nil, m.nearestErr
	}
	if len(m.neighbors) > k {
		return m.neighbors[:k], nil
	}
	return m.neighbors, nil
}

func (m *memQuestionStore) UpdateEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error {
	m.updatedEmbeddings = append(m.updatedEmbeddings, id)
	if q, ok := m.questions[id]; ok {
		q.Embedding = embedding
	}
	return nil
}

type memLinkStore struct {
	links     []domain.QuestionLink
	related   map[uuid.UUID][]uuid.UUID
	createErr error
}

func newMemLinkStore() *memLinkStore {
	return &memLinkStore{related: make(map[uuid.UUID][]uuid.UUID)}
}

func (m *memLinkStore) Create(ctx context.Context, l *domain.QuestionLink) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.links = append(m.links, *l)
	return nil
}

func (m *memLinkStore) GetBySource(ctx context.Context, sourceID uuid.UUID) ([]domain.QuestionLink, error) {
	var out []domain.QuestionLink
	for _, l := range m.links {
		if l.SourceID == sourceID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memLinkStore) GetRelated(ctx context.Context, questionID uuid.UUID, relation domain.RelationType) ([]uuid.UUID, error) {
	return m.related[questionID], nil
}

type memSessionStore struct {
	sessions        map[string]*domain.Session
	analysisCached  int
	analysisCleared int
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[string]*domain.Session)}
}

func (m *memSessionStore) Create(ctx context.Context, s *domain.Session) error {
	m.sessions[s.UserID] = s
	return nil
}

func (m *memSessionStore) GetByUserID(ctx context.Context, userID string) (*domain.Session, error) {
	s, ok := m.sessions[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s, nil
}

func (m *memSessionStore) UpdateProgress(ctx context.Context, id uuid.UUID, currentStage int, completedStages []int) error {
	for _, s := range m.sessions {
		if s.ID == id {
			s.CurrentStage = currentStage
			s.CompletedStages = completedStages
		}
	}
	return nil
}

func (m *memSessionStore) CacheAnalysis(ctx context.Context, id uuid.UUID, a *domain.Analysis) error {
	m.analysisCached++
	for _, s := range m.sessions {
		if s.ID == id {
			s.Analysis = a
		}
	}
	return nil
}

func (m *memSessionStore) ClearAnalysis(ctx context.Context, id uuid.UUID) error {
	m.analysisCleared++
	for _, s := range m.sessions {
		if s.ID == id {
			s.Analysis = nil
		}
	}
	return nil
}

type memAnswerStore struct {
	answers    map[uuid.UUID]*domain.Answer
	superseded []uuid.UUID
}

func newMemAnswerStore() *memAnswerStore {
	return &memAnswerStore{answers: make(map[uuid.UUID]*domain.Answer)}
}

func (m *memAnswerStore) Create(ctx context.Context, a *domain.Answer) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	m.answers[a.ID] = a
	return nil
}

func (m *memAnswerStore) GetBySessionAndQuestion(ctx context.Context, sessionID, questionID uuid.UUID) (*domain.Answer, error) {
	for _, a := range m.answers {
		if a.SessionID == sessionID && a.QuestionID == questionID {
			return a, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memAnswerStore) Supersede(ctx context.Context, id uuid.UUID, newText string, embedding []float32) error {
	a, ok := m.answers[id]
	if !ok {
		return store.ErrNotFound
	}
	a.PreviousText = a.Text
	a.Text = newText
	a.Modified = true
	if embedding != nil {
		a.Embedding = embedding
	}
	m.superseded = append(m.superseded, id)
	return nil
}

type memContradictionStore struct {
	contradictions map[uuid.UUID]*domain.Contradiction
}

func newMemContradictionStore() *memContradictionStore {
	return &memContradictionStore{contradictions: make(map[uuid.UUID]*domain.Contradiction)}
}

func (m *memContradictionStore) Create(ctx context.Context, c *domain.Contradiction) (bool, error) {
	for _, existing := range m.contradictions {
		if existing.SessionID == c.SessionID && existing.SamePair(c.QuestionAID, c.QuestionBID) {
			return false, nil
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	m.contradictions[c.ID] = c
	return true, nil
}

func (m *memContradictionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Contradiction, error) {
	c, ok := m.contradictions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return c, nil
}

func (m *memContradictionStore) GetBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.Contradiction, error) {
	var out []domain.Contradiction
	for _, c := range m.contradictions {
		if c.SessionID == sessionID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memContradictionStore) ExistsForPair(ctx context.Context, sessionID, questionA, questionB uuid.UUID) (bool, error) {
	for _, c := range m.contradictions {
		if c.SessionID == sessionID && c.SamePair(questionA, questionB) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memContradictionStore) Resolve(ctx context.Context, id uuid.UUID, r domain.Resolution) error {
	c, ok := m.contradictions[id]
	if !ok || c.Resolved {
		return store.ErrNotFound
	}
	c.Resolved = true
	c.Resolution = &r
	return nil
}

type memFrameworkStore struct {
	frameworks []domain.Framework
}

func (m *memFrameworkStore) Create(ctx context.Context, f *domain.Framework) error {
	m.frameworks = append(m.frameworks, *f)
	return nil
}

func (m *memFrameworkStore) ListAll(ctx context.Context) ([]domain.Framework, error) {
	return m.frameworks, nil
}

type memStageStore struct {
	stages map[int]*domain.Stage
}

func newMemStageStore() *memStageStore {
	return &memStageStore{stages: make(map[int]*domain.Stage)}
}

func (m *memStageStore) Create(ctx context.Context, s *domain.Stage) error {
	m.stages[s.Ordinal] = s
	return nil
}

func (m *memStageStore) GetByOrdinal(ctx context.Context, ordinal int) (*domain.Stage, error) {
	s, ok := m.stages[ordinal]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s, nil
}

func (m *memStageStore) ListAll(ctx context.Context) ([]domain.Stage, error) {
	var out []domain.Stage
	for _, s := range m.stages {
		out = append(out, *s)
	}
	return out, nil
}

func (m *memStageStore) MaxOrdinal(ctx context.Context) (int, error) {
	max := 0
	for o := range m.stages {
		if o > max {
			max = o
		}
	}
	return max, nil
}
