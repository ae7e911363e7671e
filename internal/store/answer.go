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

type AnswerStore struct {
	db *pgxpool.Pool
}

func NewAnswerStore(db *pgxpool.Pool) *AnswerStore {
	return &AnswerStore{db: db}
}

func (s *AnswerStore) Create(ctx context.Context, a *domain.Answer) error {
	var embedding *pgvector.Vector
	if len(a.Embedding) > 0 {
		v := pgvector.NewVector(a.Embedding)
		embedding = &v
	}

	return s.db.QueryRow(ctx,
		`INSERT INTO answers (session_id, question_id, text, embedding)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		a.SessionID, a.QuestionID, a.Text, embedding,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

func (s *AnswerStore) GetBySessionAndQuestion(ctx context.Context, sessionID, questionID uuid.UUID) (*domain.Answer, error) {
	a := &domain.Answer{}
	err := s.db.QueryRow(ctx,
		`SELECT id, session_id, question_id, text, previous_text, modified, created_at, updated_at
		 FROM answers WHERE session_id = $1 AND question_id = $2`,
		sessionID, questionID,
	).Scan(&a.ID, &a.SessionID, &a.QuestionID, &a.Text, &a.PreviousText,
		&a.Modified, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

// Supersede replaces the answer text in place. The previous text is retained
// for the audit trail and the modified flag is set.
func (s *AnswerStore) Supersede(ctx context.Context, id uuid.UUID, newText string, embedding []float32) error {
	var vec *pgvector.Vector
	if len(embedding) > 0 {
		v := pgvector.NewVector(embedding)
		vec = &v
	}

	tag, err := s.db.Exec(ctx,
		`UPDATE answers
		 SET previous_text = text, text = $2, embedding = COALESCE($3, embedding),
		     modified = TRUE, updated_at = NOW()
		 WHERE id = $1`,
		id, newText, vec,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
