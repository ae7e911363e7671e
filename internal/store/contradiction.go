package store

import (
	"context"
	"errors"

	"github.com/ethoslabs/ethos/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ContradictionStore struct {
	db *pgxpool.Pool
}

func NewContradictionStore(db *pgxpool.Pool) *ContradictionStore {
	return &ContradictionStore{db: db}
}

// Create persists the contradiction with the question pair in canonical order
// so the unique constraint makes detection idempotent per pair per session.
// Returns false when a contradiction for the pair already exists.
func (s *ContradictionStore) Create(ctx context.Context, c *domain.Contradiction) (bool, error) {
	if err := c.Validate(); err != nil {
		return false, err
	}

	a, b := domain.OrderPair(c.QuestionAID, c.QuestionBID)
	if a != c.QuestionAID {
		c.QuestionAID, c.QuestionBID = a, b
		c.AnswerAText, c.AnswerBText = c.AnswerBText, c.AnswerAText
	}

	err := s.db.QueryRow(ctx,
		`INSERT INTO contradictions (session_id, question_a_id, question_b_id, answer_a_text, answer_b_text, explanation, confidence)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (session_id, question_a_id, question_b_id) DO NOTHING
		 RETURNING id, detected_at`,
		c.SessionID, c.QuestionAID, c.QuestionBID, c.AnswerAText, c.AnswerBText,
		c.Explanation, c.Confidence,
	).Scan(&c.ID, &c.DetectedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Conflict: a contradiction for this pair already exists
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *ContradictionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Contradiction, error) {
	c := &domain.Contradiction{}
	err := s.db.QueryRow(ctx,
		`SELECT id, session_id, question_a_id, question_b_id, answer_a_text, answer_b_text,
		        explanation, confidence, resolved, resolution, detected_at
		 FROM contradictions WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.SessionID, &c.QuestionAID, &c.QuestionBID, &c.AnswerAText,
		&c.AnswerBText, &c.Explanation, &c.Confidence, &c.Resolved, &c.Resolution,
		&c.DetectedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (s *ContradictionStore) GetBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.Contradiction, error) {
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

func (s *ContradictionStore) ExistsForPair(ctx context.Context, sessionID, questionA, questionB uuid.UUID) (bool, error) {
	a, b := domain.OrderPair(questionA, questionB)
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM contradictions
		   WHERE session_id = $1 AND question_a_id = $2 AND question_b_id = $3
		 )`,
		sessionID, a, b,
	).Scan(&exists)
	return exists, err
}

// Resolve flips the resolved flag and records the resolution. The transition
// happens exactly once; resolving an already-resolved contradiction fails.
func (s *ContradictionStore) Resolve(ctx context.Context, id uuid.UUID, r domain.Resolution) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE contradictions
		 SET resolved = TRUE, resolution = $2
		 WHERE id = $1 AND resolved = FALSE`,
		id, r,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
