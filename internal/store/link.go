package store

import (
	"context"
	"fmt"

	"github.com/ethoslabs/ethos/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LinkStore struct {
	db *pgxpool.Pool
}

func NewLinkStore(db *pgxpool.Pool) *LinkStore {
	return &LinkStore{db: db}
}

func (s *LinkStore) Create(ctx context.Context, l *domain.QuestionLink) error {
	if err := l.Validate(); err != nil {
		return err
	}

	err := s.db.QueryRow(ctx,
		`INSERT INTO question_links (source_id, target_id, relation_type, weight)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (source_id, target_id, relation_type) DO UPDATE
		 SET weight = GREATEST(question_links.weight, EXCLUDED.weight)
		 RETURNING id, created_at`,
		l.SourceID, l.TargetID, l.RelationType, l.Weight,
	).Scan(&l.ID, &l.CreatedAt)
	if err != nil {
		return err
	}

	// For symmetric relations, create the reverse edge
	if domain.SymmetricRelations[l.RelationType] {
		if _, err := s.db.Exec(ctx,
			`INSERT INTO question_links (source_id, target_id, relation_type, weight)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (source_id, target_id, relation_type) DO UPDATE
			 SET weight = GREATEST(question_links.weight, EXCLUDED.weight)`,
			l.TargetID, l.SourceID, l.RelationType, l.Weight,
		); err != nil {
			return fmt.Errorf("create reverse link: %w", err)
		}
	}

	return nil
}

func (s *LinkStore) GetBySource(ctx context.Context, sourceID uuid.UUID) ([]domain.QuestionLink, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, source_id, target_id, relation_type, weight, created_at
		 FROM question_links WHERE source_id = $1`,
		sourceID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []domain.QuestionLink
	for rows.Next() {
		var l domain.QuestionLink
		if err := rows.Scan(&l.ID, &l.SourceID, &l.TargetID, &l.RelationType,
			&l.Weight, &l.CreatedAt); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

func (s *LinkStore) GetRelated(ctx context.Context, questionID uuid.UUID, relation domain.RelationType) ([]uuid.UUID, error) {
	rows, err := s.db.Query(ctx,
		`SELECT target_id FROM question_links
		 WHERE source_id = $1 AND relation_type = $2`,
		questionID, relation,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
