package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"idea-review/backend/pkg/models"
)

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx so the conditional write
// can run standalone or inside a transaction.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStageStateStore is a PostgreSQL implementation of StageStateStore.
// Its conditional UPDATE on state_version is the service's entire concurrency
// control mechanism; no separate locks exist.
type PostgresStageStateStore struct {
	db *pgxpool.Pool
}

// NewPostgresStageStateStore creates a new PostgresStageStateStore.
func NewPostgresStageStateStore(db *pgxpool.Pool) *PostgresStageStateStore {
	return &PostgresStageStateStore{db: db}
}

// Bind creates the version-1 state for an item. Binding is idempotent: when a
// state already exists it is returned unchanged and the bool result is false.
func (s *PostgresStageStateStore) Bind(ctx context.Context, state *models.StageState) (*models.StageState, bool, error) {
	now := time.Now().UTC()
	tag, err := s.db.Exec(ctx,
		`INSERT INTO stage_states (item_id, workflow_id, current_stage_id, state_version, terminal_outcome, updated_by, updated_at)
		 VALUES ($1, $2, $3, 1, NULL, $4, $5)
		 ON CONFLICT (item_id) DO NOTHING`,
		state.ItemID, state.WorkflowID, state.CurrentStageID, state.UpdatedBy, now,
	)
	if err != nil {
		return nil, false, fmt.Errorf("bind stage state: %w", err)
	}

	stored, err := s.Get(ctx, state.ItemID)
	if err != nil {
		return nil, false, err
	}
	return stored, tag.RowsAffected() == 1, nil
}

// Get returns the item's stage state.
func (s *PostgresStageStateStore) Get(ctx context.Context, itemID string) (*models.StageState, error) {
	return getState(ctx, s.db, itemID)
}

// Write applies the patch only if the stored state_version matches
// expectedVersion, bumping the version by exactly 1.
func (s *PostgresStageStateStore) Write(ctx context.Context, itemID string, expectedVersion int, patch StatePatch) (*models.StageState, error) {
	return writeState(ctx, s.db, itemID, expectedVersion, patch)
}

// WriteWithEvent commits the conditional state write and the audit event in
// one transaction, so a state change can never land without its event.
func (s *PostgresStageStateStore) WriteWithEvent(ctx context.Context, itemID string, expectedVersion int, patch StatePatch, event *models.StageEvent) (*models.StageState, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transition: %w", err)
	}
	defer tx.Rollback(ctx)

	state, err := writeState(ctx, tx, itemID, expectedVersion, patch)
	if err != nil {
		return nil, err
	}

	if err := appendEvent(ctx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transition: %w", err)
	}
	return state, nil
}

func writeState(ctx context.Context, q dbtx, itemID string, expectedVersion int, patch StatePatch) (*models.StageState, error) {
	var state models.StageState
	err := q.QueryRow(ctx,
		`UPDATE stage_states
		 SET current_stage_id = $1,
		     terminal_outcome = $2,
		     state_version = state_version + 1,
		     updated_by = $3,
		     updated_at = now()
		 WHERE item_id = $4 AND state_version = $5
		 RETURNING item_id, workflow_id, current_stage_id, state_version, terminal_outcome, updated_by, updated_at`,
		patch.CurrentStageID, outcomeText(patch.TerminalOutcome), patch.UpdatedBy, itemID, expectedVersion,
	).Scan(
		&state.ItemID, &state.WorkflowID, &state.CurrentStageID, &state.StateVersion,
		&state.TerminalOutcome, &state.UpdatedBy, &state.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		// Zero rows: either the item has no state at all, or the version is
		// stale. The two must stay distinguishable.
		if _, getErr := getState(ctx, q, itemID); getErr != nil {
			return nil, getErr
		}
		return nil, ErrVersionConflict
	}
	if err != nil {
		return nil, fmt.Errorf("write stage state: %w", err)
	}
	return &state, nil
}

func getState(ctx context.Context, q dbtx, itemID string) (*models.StageState, error) {
	var state models.StageState
	err := q.QueryRow(ctx,
		`SELECT item_id, workflow_id, current_stage_id, state_version, terminal_outcome, updated_by, updated_at
		 FROM stage_states WHERE item_id = $1`,
		itemID,
	).Scan(
		&state.ItemID, &state.WorkflowID, &state.CurrentStageID, &state.StateVersion,
		&state.TerminalOutcome, &state.UpdatedBy, &state.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query stage state: %w", err)
	}
	return &state, nil
}

func outcomeText(o *models.Outcome) *string {
	if o == nil {
		return nil
	}
	s := string(*o)
	return &s
}
