package store

import (
	"context"
	"errors"

	"github.com/ethoslabs/ethos/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

type SessionStore struct {
	db *pgxpool.Pool
}

func NewSessionStore(db *pgxpool.Pool) *SessionStore {
	return &SessionStore{db: db}
}

func (s *SessionStore) Create(ctx context.Context, sess *domain.Session) error {
	if sess.CurrentStage == 0 {
		sess.CurrentStage = 1
	}

	return s.db.QueryRow(ctx,
		`INSERT INTO sessions (user_id, current_stage, completed_stages)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		sess.UserID, sess.CurrentStage, sess.CompletedStages,
	).Scan(&sess.ID, &sess.CreatedAt, &sess.UpdatedAt)
}

// GetByUserID loads the session row plus its answers (submission order) and
// contradictions.
func (s *SessionStore) GetByUserID(ctx context.Context, userID string) (*domain.Session, error) {
	sess := &domain.Session{}
	err := s.db.QueryRow(ctx,
		`SELECT id, user_id, current_stage, completed_stages, analysis, created_at, updated_at
		 FROM sessions WHERE user_id = $1`,
		userID,
	).Scan(&sess.ID, &sess.UserID, &sess.CurrentStage, &sess.CompletedStages,
		&sess.Analysis, &sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if sess.Answers, err = s.answersForSession(ctx, sess.ID); err != nil {
		return nil, err
	}
	if sess.Contradictions, err = s.contradictionsForSession(ctx, sess.ID); err != nil {
		return nil, err
	}

	return sess, nil
}

func (s *SessionStore) UpdateProgress(ctx context.Context, id uuid.UUID, currentStage int, completedStages []int) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE sessions SET current_stage = $2, completed_stages = $3, updated_at = NOW()
		 WHERE id = $1`,
		id, currentStage, completedStages,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SessionStore) CacheAnalysis(ctx context.Context, id uuid.UUID, a *domain.Analysis) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE sessions SET analysis = $2, updated_at = NOW() WHERE id = $1`,
		id, a,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SessionStore) ClearAnalysis(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.Exec(ctx,
		`UPDATE sessions SET analysis = NULL, updated_at = NOW() WHERE id = $1`,
		id,
	)
	return err
}

func (s *SessionStore) answersForSession(ctx context.Context, sessionID uuid.UUID) ([]domain.Answer, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, session_id, question_id, text, previous_text, modified, embedding, created_at, updated_at
		 FROM answers WHERE session_id = $1 ORDER BY created_at`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []domain.Answer
	for rows.Next() {
		var a domain.Answer
		var vec *pgvector.Vector
		if err := rows.Scan(&a.ID, &a.SessionID, &a.QuestionID, &a.Text,
			&a.PreviousText, &a.Modified, &vec, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		if vec != nil {
			a.Embedding = vec.Slice()
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

func (s *SessionStore) contradictionsForSession(ctx context.Context, sessionID uuid.UUID) ([]domain.Contradiction, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, session_id, question_a_id, question_b_id, answer_a_text, answer_b_text,
		        explanation, confidence, resolved, resolution, detected_at
		 FROM contradictions WHERE session_id = $1 ORDER BY detected_at`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contradictions []domain.Contradiction
	for rows.Next() {
		var c domain.Contradiction
		if err := rows.Scan(&c.ID, &c.SessionID, &c.QuestionAID, &c.QuestionBID,
			&c.AnswerAText, &c.AnswerBText, &c.Explanation, &c.Confidence,
			&c.Resolved, &c.Resolution, &c.DetectedAt); err != nil {
			return nil, err
		}
		contradictions = append(contradictions, c)
	}
	return contradictions, rows.Err()
}
