package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"idea-review/backend/pkg/models"
)

func newWorkflow(stageNames ...string) *models.WorkflowDefinition {
	wf := &models.WorkflowDefinition{
		ID:        uuid.New().String(),
		CreatedBy: "test-admin",
	}
	for i, name := range stageNames {
		wf.Stages = append(wf.Stages, &models.Stage{
			ID:         uuid.New().String(),
			WorkflowID: wf.ID,
			Name:       name,
			Position:   i + 1,
			IsEnabled:  true,
		})
	}
	return wf
}

func insertIdea(t *testing.T, ctx context.Context, pool *pgxpool.Pool, owner string) string {
	t.Helper()
	id := uuid.New().String()
	_, err := pool.Exec(ctx,
		`INSERT INTO ideas (id, title, owner_id, owner_name) VALUES ($1, $2, $3, $4)`,
		id, "test idea", owner, owner)
	require.NoError(t, err)
	return id
}

func TestPostgresReviewStores(t *testing.T) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test-db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2)),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	}()

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatal(err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()

	if err := ApplySchema(ctx, pool); err != nil {
		t.Fatal(err)
	}

	catalog := NewPostgresWorkflowCatalog(pool)
	states := NewPostgresStageStateStore(pool)
	events := NewPostgresEventLog(pool)
	ideas := NewPostgresIdeaStore(pool)

	t.Run("CreateAndActivate assigns increasing versions and keeps one active", func(t *testing.T) {
		v1 := newWorkflow("Screening", "Final")
		require.NoError(t, catalog.CreateAndActivate(ctx, v1))
		assert.Equal(t, 1, v1.Version)
		assert.True(t, v1.IsActive)
		require.NotNil(t, v1.ActivatedAt)

		v2 := newWorkflow("Intake", "Decision")
		require.NoError(t, catalog.CreateAndActivate(ctx, v2))
		assert.Equal(t, 2, v2.Version)

		active, err := catalog.GetActive(ctx)
		require.NoError(t, err)
		assert.Equal(t, v2.ID, active.ID)

		// The superseded version stays resolvable by id with its stages in order.
		old, err := catalog.GetByID(ctx, v1.ID)
		require.NoError(t, err)
		assert.False(t, old.IsActive)
		require.Len(t, old.Stages, 2)
		assert.Equal(t, "Screening", old.Stages[0].Name)
		assert.Equal(t, 1, old.Stages[0].Position)
		assert.Equal(t, "Final", old.Stages[1].Name)
	})

	t.Run("GetByID on an unknown id", func(t *testing.T) {
		_, err := catalog.GetByID(ctx, uuid.New().String())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Bind is idempotent", func(t *testing.T) {
		wf := newWorkflow("Screening", "Final")
		require.NoError(t, catalog.CreateAndActivate(ctx, wf))
		itemID := insertIdea(t, ctx, pool, "alice")

		seed := &models.StageState{
			ItemID:         itemID,
			WorkflowID:     wf.ID,
			CurrentStageID: wf.Stages[0].ID,
			UpdatedBy:      "admin-1",
		}
		stored, created, err := states.Bind(ctx, seed)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, 1, stored.StateVersion)
		assert.Equal(t, wf.Stages[0].ID, stored.CurrentStageID)
		assert.Nil(t, stored.TerminalOutcome)

		// Rebinding with a different target stage changes nothing.
		again, created, err := states.Bind(ctx, &models.StageState{
			ItemID:         itemID,
			WorkflowID:     wf.ID,
			CurrentStageID: wf.Stages[1].ID,
			UpdatedBy:      "admin-2",
		})
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, wf.Stages[0].ID, again.CurrentStageID)
		assert.Equal(t, 1, again.StateVersion)
		assert.Equal(t, "admin-1", again.UpdatedBy)
	})

	t.Run("Write distinguishes conflict from not found", func(t *testing.T) {
		wf := newWorkflow("Screening", "Final")
		require.NoError(t, catalog.CreateAndActivate(ctx, wf))
		itemID := insertIdea(t, ctx, pool, "alice")
		_, _, err := states.Bind(ctx, &models.StageState{
			ItemID:         itemID,
			WorkflowID:     wf.ID,
			CurrentStageID: wf.Stages[0].ID,
			UpdatedBy:      "admin-1",
		})
		require.NoError(t, err)

		patch := StatePatch{CurrentStageID: wf.Stages[1].ID, UpdatedBy: "eval-1"}

		written, err := states.Write(ctx, itemID, 1, patch)
		require.NoError(t, err)
		assert.Equal(t, 2, written.StateVersion)
		assert.Equal(t, wf.Stages[1].ID, written.CurrentStageID)

		_, err = states.Write(ctx, itemID, 1, patch)
		assert.ErrorIs(t, err, ErrVersionConflict)

		_, err = states.Write(ctx, uuid.New().String(), 1, patch)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("WriteWithEvent commits state and event together", func(t *testing.T) {
		wf := newWorkflow("Screening", "Final")
		require.NoError(t, catalog.CreateAndActivate(ctx, wf))
		itemID := insertIdea(t, ctx, pool, "alice")
		_, _, err := states.Bind(ctx, &models.StageState{
			ItemID:         itemID,
			WorkflowID:     wf.ID,
			CurrentStageID: wf.Stages[0].ID,
			UpdatedBy:      "admin-1",
		})
		require.NoError(t, err)

		from := wf.Stages[0].ID
		comment := "strong technical case"
		event := &models.StageEvent{
			ID:               uuid.New().String(),
			ItemID:           itemID,
			WorkflowID:       wf.ID,
			FromStageID:      &from,
			ToStageID:        wf.Stages[1].ID,
			Action:           models.ActionAdvance,
			EvaluatorComment: &comment,
			ActorID:          "eval-1",
		}
		written, err := states.WriteWithEvent(ctx, itemID, 1,
			StatePatch{CurrentStageID: wf.Stages[1].ID, UpdatedBy: "eval-1"}, event)
		require.NoError(t, err)
		assert.Equal(t, 2, written.StateVersion)

		logged, err := events.List(ctx, itemID)
		require.NoError(t, err)
		require.Len(t, logged, 1)
		assert.Equal(t, models.ActionAdvance, logged[0].Action)
		require.NotNil(t, logged[0].EvaluatorComment)
		assert.Equal(t, comment, *logged[0].EvaluatorComment)

		// A stale retry of the same write leaves the log untouched.
		_, err = states.WriteWithEvent(ctx, itemID, 1,
			StatePatch{CurrentStageID: wf.Stages[0].ID, UpdatedBy: "eval-2"},
			&models.StageEvent{
				ID:         uuid.New().String(),
				ItemID:     itemID,
				WorkflowID: wf.ID,
				ToStageID:  wf.Stages[0].ID,
				Action:     models.ActionReturn,
				ActorID:    "eval-2",
			})
		assert.ErrorIs(t, err, ErrVersionConflict)

		logged, err = events.List(ctx, itemID)
		require.NoError(t, err)
		assert.Len(t, logged, 1)
	})

	t.Run("terminal outcome round-trips", func(t *testing.T) {
		wf := newWorkflow("Screening", "Final")
		require.NoError(t, catalog.CreateAndActivate(ctx, wf))
		itemID := insertIdea(t, ctx, pool, "alice")
		_, _, err := states.Bind(ctx, &models.StageState{
			ItemID:         itemID,
			WorkflowID:     wf.ID,
			CurrentStageID: wf.Stages[1].ID,
			UpdatedBy:      "admin-1",
		})
		require.NoError(t, err)

		outcome := models.OutcomeAccepted
		written, err := states.Write(ctx, itemID, 1, StatePatch{
			CurrentStageID:  wf.Stages[1].ID,
			TerminalOutcome: &outcome,
			UpdatedBy:       "eval-1",
		})
		require.NoError(t, err)
		require.NotNil(t, written.TerminalOutcome)
		assert.Equal(t, models.OutcomeAccepted, *written.TerminalOutcome)

		fetched, err := states.Get(ctx, itemID)
		require.NoError(t, err)
		require.NotNil(t, fetched.TerminalOutcome)
		assert.Equal(t, models.OutcomeAccepted, *fetched.TerminalOutcome)
	})

	t.Run("event log lists in append order", func(t *testing.T) {
		wf := newWorkflow("Screening", "Final")
		require.NoError(t, catalog.CreateAndActivate(ctx, wf))
		itemID := insertIdea(t, ctx, pool, "alice")

		base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		actions := []models.Action{models.ActionBind, models.ActionAdvance, models.ActionHold}
		for i, action := range actions {
			require.NoError(t, events.Append(ctx, &models.StageEvent{
				ID:         uuid.New().String(),
				ItemID:     itemID,
				WorkflowID: wf.ID,
				ToStageID:  wf.Stages[0].ID,
				Action:     action,
				ActorID:    "eval-1",
				OccurredAt: base.Add(time.Duration(i) * time.Minute),
			}))
		}

		logged, err := events.List(ctx, itemID)
		require.NoError(t, err)
		require.Len(t, logged, len(actions))
		for i, action := range actions {
			assert.Equal(t, action, logged[i].Action)
		}

		other, err := events.List(ctx, uuid.New().String())
		require.NoError(t, err)
		assert.Empty(t, other)
	})

	t.Run("idea store CRUD", func(t *testing.T) {
		idea := &models.Idea{
			ID:        uuid.New().String(),
			Title:     "community garden sensors",
			OwnerID:   "carol",
			OwnerName: "Carol",
			Status:    models.IdeaStatusUnderReview,
		}
		require.NoError(t, ideas.Create(ctx, idea))

		fetched, err := ideas.Get(ctx, idea.ID)
		require.NoError(t, err)
		assert.Equal(t, idea.Title, fetched.Title)
		assert.Equal(t, models.IdeaStatusUnderReview, fetched.Status)

		require.NoError(t, ideas.UpdateStatus(ctx, idea.ID, models.IdeaStatusAccepted))
		fetched, err = ideas.Get(ctx, idea.ID)
		require.NoError(t, err)
		assert.Equal(t, models.IdeaStatusAccepted, fetched.Status)

		err = ideas.UpdateStatus(ctx, uuid.New().String(), models.IdeaStatusRejected)
		assert.ErrorIs(t, err, ErrNotFound)

		listed, err := ideas.List(ctx)
		require.NoError(t, err)
		assert.NotEmpty(t, listed)
	})
}
