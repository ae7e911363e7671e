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

type QuestionStore struct {
	db *pgxpool.Pool
}

func NewQuestionStore(db *pgxpool.Pool) *QuestionStore {
	return &QuestionStore{db: db}
}

func (s *QuestionStore) Create(ctx context.Context, q *domain.Question) error {
	var embedding *pgvector.Vector
	if len(q.Embedding) > 0 {
		v := pgvector.NewVector(q.Embedding)
		embedding = &v
	}

	if q.Source == "" {
		q.Source = domain.QuestionSourceSeed
	}

	return s.db.QueryRow(ctx,
		`INSERT INTO questions (text, stage, tags, related_question_ids, embedding, source)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		q.Text, q.Stage, q.Tags, q.RelatedQuestionIDs, embedding, q.Source,
	).Scan(&q.ID, &q.CreatedAt)
}

func (s *QuestionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Question, error) {
	q := &domain.Question{}
	err := s.db.QueryRow(ctx,
		`SELECT id, text, stage, tags, related_question_ids, source, created_at
		 FROM questions WHERE id = $1`,
		id,
	).Scan(&q.ID, &q.Text, &q.Stage, &q.Tags, &q.RelatedQuestionIDs, &q.Source, &q.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return q, nil
}

func (s *QuestionStore) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Question, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, text, stage, tags, related_question_ids, source, created_at
		 FROM questions WHERE id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanQuestions(rows)
}

func (s *QuestionStore) GetByStage(ctx context.Context, stage int) ([]domain.Question, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, text, stage, tags, related_question_ids, source, created_at
		 FROM questions WHERE stage = $1 ORDER BY created_at`,
		stage,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanQuestions(rows)
}

func (s *QuestionStore) ListAll(ctx context.Context) ([]domain.Question, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, text, stage, tags, related_question_ids, source, created_at
		 FROM questions ORDER BY stage, created_at`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanQuestions(rows)
}

func (s *QuestionStore) NearestByEmbedding(ctx context.Context, embedding []float32, k int) ([]domain.QuestionWithDistance, error) {
	if k <= 0 {
		k = 10
	}

	vec := pgvector.NewVector(embedding)
	rows, err := s.db.Query(ctx,
		`SELECT id, text, stage, tags, related_question_ids, source, created_at,
		        embedding <=> $1 AS distance
		 FROM questions
		 WHERE embedding IS NOT NULL
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		vec, k,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.QuestionWithDistance
	for rows.Next() {
		var q domain.QuestionWithDistance
		if err := rows.Scan(&q.ID, &q.Text, &q.Stage, &q.Tags, &q.RelatedQuestionIDs,
			&q.Source, &q.CreatedAt, &q.Distance); err != nil {
			return nil, err
		}
		results = append(results, q)
	}
	return results, rows.Err()
}

func (s *QuestionStore) UpdateEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error {
	vec := pgvector.NewVector(embedding)
	tag, err := s.db.Exec(ctx,
		`UPDATE questions SET embedding = $2 WHERE id = $1`,
		id, vec,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanQuestions(rows pgx.Rows) ([]domain.Question, error) {
	var questions []domain.Question
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.ID, &q.Text, &q.Stage, &q.Tags, &q.RelatedQuestionIDs,
			&q.Source, &q.CreatedAt); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}
