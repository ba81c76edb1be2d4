package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"idea-review/backend/pkg/models"
)

// PostgresWorkflowCatalog is a PostgreSQL implementation of WorkflowCatalog.
type PostgresWorkflowCatalog struct {
	db *pgxpool.Pool
}

// NewPostgresWorkflowCatalog creates a new PostgresWorkflowCatalog.
func NewPostgresWorkflowCatalog(db *pgxpool.Pool) *PostgresWorkflowCatalog {
	return &PostgresWorkflowCatalog{db: db}
}

// CreateAndActivate inserts the definition and its stages as version
// max(existing)+1, deactivating the previously active definition, all in one
// transaction. The version number is computed inside the transaction so
// concurrent activations cannot collide.
func (c *PostgresWorkflowCatalog) CreateAndActivate(ctx context.Context, wf *models.WorkflowDefinition) error {
	tx, err := c.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin activate workflow: %w", err)
	}
	defer tx.Rollback(ctx)

	var version int
	err = tx.QueryRow(ctx, "SELECT COALESCE(MAX(version), 0) + 1 FROM workflow_definitions").Scan(&version)
	if err != nil {
		return fmt.Errorf("next workflow version: %w", err)
	}

	if _, err := tx.Exec(ctx, "UPDATE workflow_definitions SET is_active = FALSE WHERE is_active"); err != nil {
		return fmt.Errorf("deactivate previous workflow: %w", err)
	}

	now := time.Now().UTC()
	_, err = tx.Exec(ctx,
		`INSERT INTO workflow_definitions (id, version, is_active, created_by, created_at, activated_at)
		 VALUES ($1, $2, TRUE, $3, $4, $4)`,
		wf.ID, version, wf.CreatedBy, now,
	)
	if err != nil {
		return fmt.Errorf("insert workflow definition: %w", err)
	}

	for _, stage := range wf.Stages {
		_, err = tx.Exec(ctx,
			`INSERT INTO workflow_stages (id, workflow_id, name, position, is_enabled)
			 VALUES ($1, $2, $3, $4, $5)`,
			stage.ID, wf.ID, stage.Name, stage.Position, stage.IsEnabled,
		)
		if err != nil {
			return fmt.Errorf("insert stage %q: %w", stage.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit activate workflow: %w", err)
	}

	wf.Version = version
	wf.IsActive = true
	wf.CreatedAt = now
	wf.ActivatedAt = &now
	return nil
}

// GetActive returns the active workflow definition with its stages.
func (c *PostgresWorkflowCatalog) GetActive(ctx context.Context) (*models.WorkflowDefinition, error) {
	return c.getOne(ctx, "WHERE is_active", nil)
}

// GetByID returns a workflow definition, active or historical, with its stages.
func (c *PostgresWorkflowCatalog) GetByID(ctx context.Context, id string) (*models.WorkflowDefinition, error) {
	return c.getOne(ctx, "WHERE id = $1", []any{id})
}

func (c *PostgresWorkflowCatalog) getOne(ctx context.Context, where string, args []any) (*models.WorkflowDefinition, error) {
	var wf models.WorkflowDefinition
	query := "SELECT id, version, is_active, created_by, created_at, activated_at FROM workflow_definitions " + where
	err := c.db.QueryRow(ctx, query, args...).Scan(
		&wf.ID, &wf.Version, &wf.IsActive, &wf.CreatedBy, &wf.CreatedAt, &wf.ActivatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query workflow definition: %w", err)
	}

	rows, err := c.db.Query(ctx,
		`SELECT id, workflow_id, name, position, is_enabled
		 FROM workflow_stages WHERE workflow_id = $1 ORDER BY position`,
		wf.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("query workflow stages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var stage models.Stage
		if err := rows.Scan(&stage.ID, &stage.WorkflowID, &stage.Name, &stage.Position, &stage.IsEnabled); err != nil {
			return nil, fmt.Errorf("scan workflow stage: %w", err)
		}
		wf.Stages = append(wf.Stages, &stage)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate workflow stages: %w", err)
	}

	return &wf, nil
}
