package repository

import (
	"context"
	"errors"

	"idea-review/backend/pkg/models"
)

// Sentinel errors returned by the stores. The service layer maps them onto
// the typed error taxonomy in pkg/models.
var (
	// ErrNotFound means the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrVersionConflict means a conditional write found a different
	// state_version than expected. Distinct from ErrNotFound so callers can
	// tell "someone else moved it" apart from "no state at all".
	ErrVersionConflict = errors.New("state version conflict")
)

// WorkflowCatalog stores versioned stage definitions.
type WorkflowCatalog interface {
	// CreateAndActivate persists the definition with the next version number,
	// deactivates the previously active definition, and activates this one,
	// all in a single transaction. The definition's Version field is assigned
	// during the write.
	CreateAndActivate(ctx context.Context, wf *models.WorkflowDefinition) error
	// GetActive returns the currently active definition with its stages.
	// Used only when binding a new item.
	GetActive(ctx context.Context) (*models.WorkflowDefinition, error)
	// GetByID returns a definition (active or historical) with its stages.
	// Every operation on an existing item's review resolves stages through
	// this, never through GetActive.
	GetByID(ctx context.Context, id string) (*models.WorkflowDefinition, error)
}

// StatePatch is the writable subset of StageState applied by a conditional
// write.
type StatePatch struct {
	CurrentStageID  string
	TerminalOutcome *models.Outcome
	UpdatedBy       string
}

// StageStateStore holds the per-item stage pointer and version counter.
type StageStateStore interface {
	// Bind creates the version-1 state for an item. If state already exists
	// the existing row is returned unchanged (idempotent) with created=false.
	Bind(ctx context.Context, state *models.StageState) (*models.StageState, bool, error)
	// Get returns the item's stage state.
	Get(ctx context.Context, itemID string) (*models.StageState, error)
	// Write applies the patch only if the stored state_version equals
	// expectedVersion, bumping the version by 1. Returns ErrVersionConflict
	// on a version mismatch, ErrNotFound if the item has no state.
	Write(ctx context.Context, itemID string, expectedVersion int, patch StatePatch) (*models.StageState, error)
}

// TransitionWriter commits a conditional state write together with its audit
// event in one transaction, so no state change can land without its event.
type TransitionWriter interface {
	WriteWithEvent(ctx context.Context, itemID string, expectedVersion int, patch StatePatch, event *models.StageEvent) (*models.StageState, error)
}

// EventLog is the append-only audit trail of executed transitions.
type EventLog interface {
	Append(ctx context.Context, event *models.StageEvent) error
	// List returns an item's events ordered ascending by occurrence.
	List(ctx context.Context, itemID string) ([]*models.StageEvent, error)
}

// IdeaStore is the boundary to the external idea records. The review core
// only checks existence, reads ownership, and syncs terminal status.
type IdeaStore interface {
	Create(ctx context.Context, idea *models.Idea) error
	Get(ctx context.Context, id string) (*models.Idea, error)
	List(ctx context.Context) ([]*models.Idea, error)
	UpdateStatus(ctx context.Context, id string, status models.IdeaStatus) error
}
