package store

import (
	"context"
	"errors"

	"github.com/ethoslabs/ethos/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type StageStore struct {
	db *pgxpool.Pool
}

func NewStageStore(db *pgxpool.Pool) *StageStore {
	return &StageStore{db: db}
}

func (s *StageStore) Create(ctx context.Context, st *domain.Stage) error {
	if err := st.Validate(); err != nil {
		return err
	}
	if st.RequiredAnswers == 0 {
		st.RequiredAnswers = domain.DefaultRequiredAnswers
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO stages (ordinal, name, description, reasoning, required_answers, example_prompts)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (ordinal) DO UPDATE
		 SET name = EXCLUDED.name, description = EXCLUDED.description,
		     reasoning = EXCLUDED.reasoning, required_answers = EXCLUDED.required_answers,
		     example_prompts = EXCLUDED.example_prompts`,
		st.Ordinal, st.Name, st.Description, st.Reasoning, st.RequiredAnswers, st.ExamplePrompts,
	)
	return err
}

func (s *StageStore) GetByOrdinal(ctx context.Context, ordinal int) (*domain.Stage, error) {
	st := &domain.Stage{}
	err := s.db.QueryRow(ctx,
		`SELECT ordinal, name, description, reasoning, required_answers, example_prompts
		 FROM stages WHERE ordinal = $1`,
		ordinal,
	).Scan(&st.Ordinal, &st.Name, &st.Description, &st.Reasoning,
		&st.RequiredAnswers, &st.ExamplePrompts)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return st, nil
}

func (s *StageStore) ListAll(ctx context.Context) ([]domain.Stage, error) {
	rows, err := s.db.Query(ctx,
		`SELECT ordinal, name, description, reasoning, required_answers, example_prompts
		 FROM stages ORDER BY ordinal`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stages []domain.Stage
	for rows.Next() {
		var st domain.Stage
		if err := rows.Scan(&st.Ordinal, &st.Name, &st.Description, &st.Reasoning,
			&st.RequiredAnswers, &st.ExamplePrompts); err != nil {
			return nil, err
		}
		stages = append(stages, st)
	}
	return stages, rows.Err()
}

func (s *StageStore) MaxOrdinal(ctx context.Context) (int, error) {
	var max int
	err := s.db.QueryRow(ctx, `SELECT COALESCE(MAX(ordinal), 0) FROM stages`).Scan(&max)
	return max, err
}
