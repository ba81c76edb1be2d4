// Package visibility projects internal review state into role- and
// terminal-status-dependent response shapes. Everything here is a pure
// function over the canonical state; no conditional field omission lives in
// the handlers.
package visibility

import (
	"time"

	"idea-review/backend/pkg/models"
)

// ProgressView is the shaped progress response. Fields absent from the
// reduced submitter shape are zero-valued and omitted from JSON.
type ProgressView struct {
	ItemID           string          `json:"itemId"`
	CurrentStageID   string          `json:"currentStageId,omitempty"`
	CurrentStageName string          `json:"currentStageName"`
	StateVersion     int             `json:"stateVersion,omitempty"`
	TerminalOutcome  *models.Outcome `json:"terminalOutcome,omitempty"`
	UpdatedAt        time.Time       `json:"updatedAt"`
	Events           []EventView     `json:"events"`
}

// EventView is one shaped audit entry.
type EventView struct {
	ToStage    string     `json:"toStage"`
	OccurredAt time.Time  `json:"occurredAt"`
	FromStage  *string    `json:"fromStage,omitempty"`
	Action     string     `json:"action,omitempty"`
	ActorID    string     `json:"actorId,omitempty"`
	Comment    *string    `json:"comment,omitempty"`
}

// ShapeProgress selects the projection for (viewer role, terminal outcome).
// Admins and evaluators always get the full shape. Submitters get a reduced
// shape while the review is in flight: no actor ids, no comments, no actions,
// no from-stages. Once a terminal outcome exists the full shape is granted
// unconditionally; terminal status overrides role-based redaction.
func ShapeProgress(role models.Role, state *models.StageState, events []*models.StageEvent, wf *models.WorkflowDefinition) *ProgressView {
	names := wf.StageNames()
	full := role == models.RoleAdmin || role == models.RoleEvaluator || state.IsTerminal()
	if full {
		return fullView(state, events, names)
	}
	return reducedView(state, events, names)
}

func fullView(state *models.StageState, events []*models.StageEvent, names map[string]string) *ProgressView {
	view := &ProgressView{
		ItemID:           state.ItemID,
		CurrentStageID:   state.CurrentStageID,
		CurrentStageName: names[state.CurrentStageID],
		StateVersion:     state.StateVersion,
		TerminalOutcome:  state.TerminalOutcome,
		UpdatedAt:        state.UpdatedAt,
		Events:           make([]EventView, 0, len(events)),
	}
	for _, ev := range events {
		var from *string
		if ev.FromStageID != nil {
			name := names[*ev.FromStageID]
			from = &name
		}
		view.Events = append(view.Events, EventView{
			ToStage:    names[ev.ToStageID],
			OccurredAt: ev.OccurredAt,
			FromStage:  from,
			Action:     ev.Action.String(),
			ActorID:    ev.ActorID,
			Comment:    ev.EvaluatorComment,
		})
	}
	return view
}

func reducedView(state *models.StageState, events []*models.StageEvent, names map[string]string) *ProgressView {
	view := &ProgressView{
		ItemID:           state.ItemID,
		CurrentStageName: names[state.CurrentStageID],
		UpdatedAt:        state.UpdatedAt,
		Events:           make([]EventView, 0, len(events)),
	}
	for _, ev := range events {
		view.Events = append(view.Events, EventView{
			ToStage:    names[ev.ToStageID],
			OccurredAt: ev.OccurredAt,
		})
	}
	return view
}
