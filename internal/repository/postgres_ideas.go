package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"idea-review/backend/pkg/models"
)

const ideaColumns = "id, title, owner_id, owner_name, status, created_at, updated_at"

// PostgresIdeaStore is a PostgreSQL implementation of IdeaStore.
type PostgresIdeaStore struct {
	db *pgxpool.Pool
}

// NewPostgresIdeaStore creates a new PostgresIdeaStore.
func NewPostgresIdeaStore(db *pgxpool.Pool) *PostgresIdeaStore {
	return &PostgresIdeaStore{db: db}
}

// Create inserts an idea record.
func (s *PostgresIdeaStore) Create(ctx context.Context, idea *models.Idea) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO ideas (id, title, owner_id, owner_name, status) VALUES ($1, $2, $3, $4, $5)`,
		idea.ID, idea.Title, idea.OwnerID, idea.OwnerName, idea.Status,
	)
	if err != nil {
		return fmt.Errorf("insert idea: %w", err)
	}
	return nil
}

// Get retrieves an idea by its ID.
func (s *PostgresIdeaStore) Get(ctx context.Context, id string) (*models.Idea, error) {
	idea, err := scanIdea(s.db.QueryRow(ctx, "SELECT "+ideaColumns+" FROM ideas WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return idea, err
}

// List returns all ideas, newest first.
func (s *PostgresIdeaStore) List(ctx context.Context) ([]*models.Idea, error) {
	rows, err := s.db.Query(ctx, "SELECT "+ideaColumns+" FROM ideas ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("query ideas: %w", err)
	}
	defer rows.Close()

	var ideas []*models.Idea
	for rows.Next() {
		idea, err := scanIdea(rows)
		if err != nil {
			return nil, err
		}
		ideas = append(ideas, idea)
	}
	return ideas, rows.Err()
}

// UpdateStatus sets the idea's status field. Used by the best-effort sync of
// terminal review outcomes.
func (s *PostgresIdeaStore) UpdateStatus(ctx context.Context, id string, status models.IdeaStatus) error {
	tag, err := s.db.Exec(ctx,
		"UPDATE ideas SET status = $1, updated_at = now() WHERE id = $2",
		status, id,
	)
	if err != nil {
		return fmt.Errorf("update idea status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanIdea(row pgx.Row) (*models.Idea, error) {
	var idea models.Idea
	err := row.Scan(&idea.ID, &idea.Title, &idea.OwnerID, &idea.OwnerName, &idea.Status, &idea.CreatedAt, &idea.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan idea: %w", err)
	}
	return &idea, nil
}
