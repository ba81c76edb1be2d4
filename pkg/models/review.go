package models

import (
	"time"
)

// StageState is an item's review position: current stage pointer, version
// counter, and terminal outcome. There is exactly one per reviewed item,
// bound for its whole lifetime to the workflow version that was active when
// the item was first submitted.
type StageState struct {
	ItemID          string    `json:"item_id" db:"item_id"`
	WorkflowID      string    `json:"workflow_id" db:"workflow_id"`
	CurrentStageID  string    `json:"current_stage_id" db:"current_stage_id"`
	StateVersion    int       `json:"state_version" db:"state_version"`
	TerminalOutcome *Outcome  `json:"terminal_outcome,omitempty" db:"terminal_outcome"`
	UpdatedBy       string    `json:"updated_by" db:"updated_by"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// IsTerminal returns true once a terminal outcome has been recorded. Terminal
// states are absorbing: no field of a terminal state ever changes again.
func (s *StageState) IsTerminal() bool {
	return s.TerminalOutcome != nil
}

// StageEvent is one append-only audit entry per executed transition. The
// from stage is nil only on the initial binding event, and the latest event's
// to stage always equals the state's current stage.
type StageEvent struct {
	ID               string    `json:"id" db:"id"`
	ItemID           string    `json:"item_id" db:"item_id"`
	WorkflowID       string    `json:"workflow_id" db:"workflow_id"`
	FromStageID      *string   `json:"from_stage_id,omitempty" db:"from_stage_id"`
	ToStageID        string    `json:"to_stage_id" db:"to_stage_id"`
	Action           Action    `json:"action" db:"action"`
	EvaluatorComment *string   `json:"evaluator_comment,omitempty" db:"evaluator_comment"`
	ActorID          string    `json:"actor_id" db:"actor_id"`
	OccurredAt       time.Time `json:"occurred_at" db:"occurred_at"`
}
