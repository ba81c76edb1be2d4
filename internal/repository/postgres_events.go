package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"idea-review/backend/pkg/models"
)

// PostgresEventLog is a PostgreSQL implementation of EventLog. Rows are only
// ever inserted; nothing updates or deletes them.
type PostgresEventLog struct {
	db *pgxpool.Pool
}

// NewPostgresEventLog creates a new PostgresEventLog.
func NewPostgresEventLog(db *pgxpool.Pool) *PostgresEventLog {
	return &PostgresEventLog{db: db}
}

// Append inserts an event.
func (l *PostgresEventLog) Append(ctx context.Context, event *models.StageEvent) error {
	return appendEvent(ctx, l.db, event)
}

// List returns an item's events ordered ascending by occurrence, with the
// insert id as tiebreaker for events sharing a timestamp.
func (l *PostgresEventLog) List(ctx context.Context, itemID string) ([]*models.StageEvent, error) {
	rows, err := l.db.Query(ctx,
		`SELECT id, item_id, workflow_id, from_stage_id, to_stage_id, action, evaluator_comment, actor_id, occurred_at
		 FROM stage_events WHERE item_id = $1 ORDER BY occurred_at, id`,
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("query stage events: %w", err)
	}
	defer rows.Close()

	var events []*models.StageEvent
	for rows.Next() {
		var ev models.StageEvent
		if err := rows.Scan(
			&ev.ID, &ev.ItemID, &ev.WorkflowID, &ev.FromStageID, &ev.ToStageID,
			&ev.Action, &ev.EvaluatorComment, &ev.ActorID, &ev.OccurredAt,
		); err != nil {
			return nil, fmt.Errorf("scan stage event: %w", err)
		}
		events = append(events, &ev)
	}
	return events, rows.Err()
}

func appendEvent(ctx context.Context, q dbtx, event *models.StageEvent) error {
	_, err := q.Exec(ctx,
		`INSERT INTO stage_events (id, item_id, workflow_id, from_stage_id, to_stage_id, action, evaluator_comment, actor_id, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		event.ID, event.ItemID, event.WorkflowID, event.FromStageID, event.ToStageID,
		string(event.Action), event.EvaluatorComment, event.ActorID, event.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("append stage event: %w", err)
	}
	return nil
}
