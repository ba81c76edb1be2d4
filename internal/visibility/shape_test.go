package visibility

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idea-review/backend/pkg/models"
)

func testWorkflow() *models.WorkflowDefinition {
	return &models.WorkflowDefinition{
		ID: "wf-1",
		Stages: []*models.Stage{
			{ID: "st-1", WorkflowID: "wf-1", Name: "Screening", Position: 1},
			{ID: "st-2", WorkflowID: "wf-1", Name: "Final", Position: 2},
		},
	}
}

func testEvents() []*models.StageEvent {
	from := "st-1"
	comment := "looks promising"
	return []*models.StageEvent{
		{
			ID:         "ev-1",
			ItemID:     "item-1",
			ToStageID:  "st-1",
			Action:     models.ActionBind,
			ActorID:    "admin-1",
			OccurredAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		},
		{
			ID:               "ev-2",
			ItemID:           "item-1",
			FromStageID:      &from,
			ToStageID:        "st-2",
			Action:           models.ActionAdvance,
			EvaluatorComment: &comment,
			ActorID:          "eval-1",
			OccurredAt:       time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		},
	}
}

func TestShapeProgress(t *testing.T) {
	wf := testWorkflow()
	state := &models.StageState{
		ItemID:         "item-1",
		WorkflowID:     "wf-1",
		CurrentStageID: "st-2",
		StateVersion:   2,
		UpdatedBy:      "eval-1",
		UpdatedAt:      time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}

	for _, role := range []models.Role{models.RoleAdmin, models.RoleEvaluator} {
		t.Run("full shape for "+string(role), func(t *testing.T) {
			view := ShapeProgress(role, state, testEvents(), wf)
			assert.Equal(t, "st-2", view.CurrentStageID)
			assert.Equal(t, "Final", view.CurrentStageName)
			assert.Equal(t, 2, view.StateVersion)
			require.Len(t, view.Events, 2)

			assert.Nil(t, view.Events[0].FromStage, "binding event has no origin stage")
			assert.Equal(t, "bind", view.Events[0].Action)

			require.NotNil(t, view.Events[1].FromStage)
			assert.Equal(t, "Screening", *view.Events[1].FromStage)
			assert.Equal(t, "Final", view.Events[1].ToStage)
			assert.Equal(t, "eval-1", view.Events[1].ActorID)
			require.NotNil(t, view.Events[1].Comment)
		})
	}

	t.Run("reduced shape for a submitter mid-review", func(t *testing.T) {
		view := ShapeProgress(models.RoleSubmitter, state, testEvents(), wf)
		assert.Equal(t, "item-1", view.ItemID)
		assert.Equal(t, "Final", view.CurrentStageName)
		assert.Empty(t, view.CurrentStageID)
		assert.Zero(t, view.StateVersion)
		assert.Nil(t, view.TerminalOutcome)
		require.Len(t, view.Events, 2, "history length is not hidden")
		for _, ev := range view.Events {
			assert.NotEmpty(t, ev.ToStage)
			assert.False(t, ev.OccurredAt.IsZero())
			assert.Nil(t, ev.FromStage)
			assert.Empty(t, ev.Action)
			assert.Empty(t, ev.ActorID)
			assert.Nil(t, ev.Comment)
		}
	})

	t.Run("terminal outcome overrides submitter redaction", func(t *testing.T) {
		outcome := models.OutcomeAccepted
		terminal := *state
		terminal.TerminalOutcome = &outcome
		terminal.StateVersion = 3

		view := ShapeProgress(models.RoleSubmitter, &terminal, testEvents(), wf)
		assert.Equal(t, 3, view.StateVersion)
		require.NotNil(t, view.TerminalOutcome)
		assert.Equal(t, models.OutcomeAccepted, *view.TerminalOutcome)
		assert.Equal(t, "eval-1", view.Events[1].ActorID)
		assert.NotNil(t, view.Events[1].Comment)
	})
}

func TestShouldMask(t *testing.T) {
	outcome := models.OutcomeRejected
	evaluator := models.Actor{ID: "eval-1", Role: models.RoleEvaluator}

	cases := []struct {
		name    string
		blind   bool
		viewer  models.Actor
		ownerID string
		outcome *models.Outcome
		want    bool
	}{
		{"evaluator and in flight", true, evaluator, "alice", nil, true},
		{"blind review disabled", false, evaluator, "alice", nil, false},
		{"admin is exempt", true, models.Actor{ID: "root", Role: models.RoleAdmin}, "alice", nil, false},
		{"owner sees themselves", true, models.Actor{ID: "alice", Role: models.RoleSubmitter}, "alice", nil, false},
		{"terminal outcome reveals", true, evaluator, "alice", &outcome, false},
		{"other submitter and in flight", true, models.Actor{ID: "bob", Role: models.RoleSubmitter}, "alice", nil, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ShouldMask(tc.blind, tc.viewer, tc.ownerID, tc.outcome))
		})
	}
}

func TestMaskOwner(t *testing.T) {
	idea := &models.Idea{
		ID:        "item-1",
		Title:     "solar microgrid",
		OwnerID:   "alice",
		OwnerName: "Alice Liddell",
		Status:    models.IdeaStatusUnderReview,
	}
	evaluator := models.Actor{ID: "eval-1", Role: models.RoleEvaluator}

	masked := MaskOwner(true, evaluator, idea, nil)
	assert.Equal(t, models.AnonymousOwnerID, masked.OwnerID)
	assert.Equal(t, models.AnonymousOwnerName, masked.OwnerName)
	assert.Equal(t, "solar microgrid", masked.Title, "only identity fields change")

	assert.Equal(t, "alice", idea.OwnerID, "input is never mutated")
	assert.Equal(t, "Alice Liddell", idea.OwnerName)

	same := MaskOwner(true, models.Actor{ID: "root", Role: models.RoleAdmin}, idea, nil)
	assert.Same(t, idea, same, "unmasked ideas pass through")
}
