package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is the DDL for the review tables. Applied by the seed command and by
// integration tests; production deployments run the same statements via their
// migration tooling.
const Schema = `
CREATE TABLE IF NOT EXISTS workflow_definitions (
	id UUID PRIMARY KEY,
	version INT NOT NULL UNIQUE,
	is_active BOOLEAN NOT NULL DEFAULT FALSE,
	created_by TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	activated_at TIMESTAMPTZ
);

CREATE UNIQUE INDEX IF NOT EXISTS workflow_definitions_one_active
	ON workflow_definitions (is_active) WHERE is_active;

CREATE TABLE IF NOT EXISTS workflow_stages (
	id UUID PRIMARY KEY,
	workflow_id UUID NOT NULL REFERENCES workflow_definitions(id),
	name TEXT NOT NULL,
	position INT NOT NULL,
	is_enabled BOOLEAN NOT NULL DEFAULT TRUE,
	UNIQUE (workflow_id, position)
);

CREATE UNIQUE INDEX IF NOT EXISTS workflow_stages_name_ci
	ON workflow_stages (workflow_id, lower(name));

CREATE TABLE IF NOT EXISTS ideas (
	id UUID PRIMARY KEY,
	title TEXT NOT NULL,
	owner_id TEXT NOT NULL,
	owner_name TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'under_review',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS stage_states (
	item_id UUID PRIMARY KEY REFERENCES ideas(id),
	workflow_id UUID NOT NULL REFERENCES workflow_definitions(id),
	current_stage_id UUID NOT NULL REFERENCES workflow_stages(id),
	state_version INT NOT NULL,
	terminal_outcome TEXT,
	updated_by TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS stage_events (
	id UUID PRIMARY KEY,
	item_id UUID NOT NULL REFERENCES ideas(id),
	workflow_id UUID NOT NULL REFERENCES workflow_definitions(id),
	from_stage_id UUID REFERENCES workflow_stages(id),
	to_stage_id UUID NOT NULL REFERENCES workflow_stages(id),
	action TEXT NOT NULL,
	evaluator_comment TEXT,
	actor_id TEXT NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS stage_events_item_occurred
	ON stage_events (item_id, occurred_at, id);
`

// ApplySchema creates the review tables if they do not exist.
func ApplySchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, Schema)
	return err
}
