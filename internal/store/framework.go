package store

import (
	"context"

	"github.com/ethoslabs/ethos/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FrameworkStore struct {
	db *pgxpool.Pool
}

func NewFrameworkStore(db *pgxpool.Pool) *FrameworkStore {
	return &FrameworkStore{db: db}
}

func (s *FrameworkStore) Create(ctx context.Context, f *domain.Framework) error {
	if err := f.Validate(); err != nil {
		return err
	}

	return s.db.QueryRow(ctx,
		`INSERT INTO frameworks (key, name, description, principles, key_thinkers)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (key) DO UPDATE
		 SET name = EXCLUDED.name, description = EXCLUDED.description,
		     principles = EXCLUDED.principles, key_thinkers = EXCLUDED.key_thinkers
		 RETURNING id`,
		f.Key, f.Name, f.Description, f.Principles, f.KeyThinkers,
	).Scan(&f.ID)
}

func (s *FrameworkStore) ListAll(ctx context.Context) ([]domain.Framework, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, key, name, description, principles, key_thinkers
		 FROM frameworks ORDER BY key`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var frameworks []domain.Framework
	for rows.Next() {
		var f domain.Framework
		if err := rows.Scan(&f.ID, &f.Key, &f.Name, &f.Description,
			&f.Principles, &f.KeyThinkers); err != nil {
			return nil, err
		}
		frameworks = append(frameworks, f)
	}
	return frameworks, rows.Err()
}
