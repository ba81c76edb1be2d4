package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"idea-review/backend/internal/repository"
	"idea-review/backend/internal/visibility"
	"idea-review/backend/pkg/models"
)

// ReviewService is the transition engine. It validates and executes actions
// against an item's stage state and the workflow version the item was bound
// to, writes through the version-tagged conditional write, and appends the
// audit event in the same transaction.
type ReviewService struct {
	catalog repository.WorkflowCatalog
	states  repository.StageStateStore
	writer  repository.TransitionWriter
	events  repository.EventLog
	ideas   repository.IdeaStore
	logger  Logger

	maxCommentLen int
	blindEnabled  bool
}

// NewReviewService creates a new ReviewService.
func NewReviewService(
	catalog repository.WorkflowCatalog,
	states repository.StageStateStore,
	writer repository.TransitionWriter,
	events repository.EventLog,
	ideas repository.IdeaStore,
	logger Logger,
	maxCommentLen int,
	blindEnabled bool,
) *ReviewService {
	return &ReviewService{
		catalog:       catalog,
		states:        states,
		writer:        writer,
		events:        events,
		ideas:         ideas,
		logger:        logger,
		maxCommentLen: maxCommentLen,
		blindEnabled:  blindEnabled,
	}
}

// Bind creates the version-1 stage state for an idea, pinning it to the
// workflow version that is active right now. The binding is fixed for the
// item's lifetime; activating a newer workflow later never rebinds it.
// Binding an already-bound idea is an idempotent no-op returning the stored
// state at its true version.
func (s *ReviewService) Bind(ctx context.Context, itemID string, actor models.Actor) (*TransitionResult, error) {
	if _, err := s.ideas.Get(ctx, itemID); err != nil {
		if err == repository.ErrNotFound {
			return nil, &models.NotFoundError{Resource: "idea", ID: itemID}
		}
		return nil, fmt.Errorf("load idea: %w", err)
	}

	active, err := s.catalog.GetActive(ctx)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, &models.NotFoundError{Resource: "active workflow"}
		}
		return nil, fmt.Errorf("load active workflow: %w", err)
	}

	first := active.FirstStage()
	if first == nil {
		return nil, fmt.Errorf("workflow %s has no stages", active.ID)
	}

	state, created, err := s.states.Bind(ctx, &models.StageState{
		ItemID:         itemID,
		WorkflowID:     active.ID,
		CurrentStageID: first.ID,
		UpdatedBy:      actor.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("bind stage state: %w", err)
	}

	if created {
		ev := &models.StageEvent{
			ID:         uuid.New().String(),
			ItemID:     itemID,
			WorkflowID: active.ID,
			FromStageID: nil,
			ToStageID:  first.ID,
			Action:     models.ActionBind,
			ActorID:    actor.ID,
			OccurredAt: state.UpdatedAt,
		}
		if err := s.events.Append(ctx, ev); err != nil {
			// The state row is already committed; losing the binding event is
			// logged for reconciliation rather than failing the bind.
			s.logger.Error("failed to append binding event", "item_id", itemID, "error", err)
		}
	}

	wf, err := s.catalog.GetByID(ctx, state.WorkflowID)
	if err != nil {
		return nil, fmt.Errorf("load bound workflow: %w", err)
	}
	return s.result(state, wf), nil
}

// Transition validates and executes one action against an item's review.
func (s *ReviewService) Transition(ctx context.Context, itemID string, req TransitionRequest, actor models.Actor) (*TransitionResult, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	state, err := s.states.Get(ctx, itemID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, &models.NotFoundError{Resource: "stage state", ID: itemID}
		}
		return nil, fmt.Errorf("load stage state: %w", err)
	}

	// Terminal states are absorbing: no outgoing edges, checked before the
	// version comparison so the reason stays stable for stale readers too.
	if state.IsTerminal() {
		return nil, models.NewInvalidTransition("review already concluded with outcome %q", *state.TerminalOutcome)
	}

	if req.ExpectedStateVersion != state.StateVersion {
		return nil, &models.ConflictError{ItemID: itemID, ExpectedVersion: req.ExpectedStateVersion}
	}

	// Stage resolution always goes through the bound workflow version, never
	// the active one: re-activations must not alter in-flight reviews.
	wf, err := s.catalog.GetByID(ctx, state.WorkflowID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, &models.NotFoundError{Resource: "workflow", ID: state.WorkflowID}
		}
		return nil, fmt.Errorf("load bound workflow: %w", err)
	}

	current := wf.StageByID(state.CurrentStageID)
	if current == nil {
		return nil, fmt.Errorf("stage %s missing from workflow %s", state.CurrentStageID, wf.ID)
	}
	last := wf.LastStage()

	target := current
	var outcome *models.Outcome
	switch req.Action {
	case models.ActionAdvance:
		if current.Position == last.Position {
			return nil, models.NewInvalidTransition("cannot advance past the last stage %q", current.Name)
		}
		target = wf.StageAt(current.Position + 1)
	case models.ActionReturn:
		if current.Position == 1 {
			return nil, models.NewInvalidTransition("cannot return from the first stage %q", current.Name)
		}
		target = wf.StageAt(current.Position - 1)
	case models.ActionHold:
		// No movement; the version still bumps and an event is appended.
	case models.ActionTerminalAccept, models.ActionTerminalReject:
		if current.Position != last.Position {
			return nil, models.NewInvalidTransition("terminal action only allowed at the last stage %q, current stage is %q", last.Name, current.Name)
		}
		outcome = req.Action.Outcome()
	}

	fromID := current.ID
	event := &models.StageEvent{
		ID:               uuid.New().String(),
		ItemID:           itemID,
		WorkflowID:       wf.ID,
		FromStageID:      &fromID,
		ToStageID:        target.ID,
		Action:           req.Action,
		EvaluatorComment: req.Comment,
		ActorID:          actor.ID,
		OccurredAt:       time.Now().UTC(),
	}

	patch := repository.StatePatch{
		CurrentStageID:  target.ID,
		TerminalOutcome: outcome,
		UpdatedBy:       actor.ID,
	}

	written, err := s.writer.WriteWithEvent(ctx, itemID, req.ExpectedStateVersion, patch, event)
	if err != nil {
		switch err {
		case repository.ErrVersionConflict:
			// Lost a race since the read above; propagated identically.
			return nil, &models.ConflictError{ItemID: itemID, ExpectedVersion: req.ExpectedStateVersion}
		case repository.ErrNotFound:
			return nil, &models.NotFoundError{Resource: "stage state", ID: itemID}
		}
		return nil, fmt.Errorf("commit transition: %w", err)
	}

	if outcome != nil {
		s.syncIdeaStatus(ctx, itemID, *outcome)
	}

	return s.result(written, wf), nil
}

// syncIdeaStatus mirrors a terminal outcome onto the external idea record.
// The transition is already committed; a failure here is logged for manual
// reconciliation and never reverses or fails the caller's response.
func (s *ReviewService) syncIdeaStatus(ctx context.Context, itemID string, outcome models.Outcome) {
	status := models.IdeaStatusAccepted
	if outcome == models.OutcomeRejected {
		status = models.IdeaStatusRejected
	}
	if err := s.ideas.UpdateStatus(ctx, itemID, status); err != nil {
		s.logger.Warn("failed to sync idea status after terminal outcome", "item_id", itemID, "status", string(status), "error", err)
	}
}

// Progress returns the viewer-shaped review progress of an item. Stage names
// resolve against the item's bound workflow version.
func (s *ReviewService) Progress(ctx context.Context, itemID string, viewer models.Actor) (*visibility.ProgressView, error) {
	state, err := s.states.Get(ctx, itemID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, &models.NotFoundError{Resource: "stage state", ID: itemID}
		}
		return nil, fmt.Errorf("load stage state: %w", err)
	}

	wf, err := s.catalog.GetByID(ctx, state.WorkflowID)
	if err != nil {
		return nil, fmt.Errorf("load bound workflow: %w", err)
	}

	events, err := s.events.List(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("list stage events: %w", err)
	}

	return visibility.ShapeProgress(viewer.Role, state, events, wf), nil
}

// ListIdeas returns idea summaries with the blind-review mask evaluated
// independently per item.
func (s *ReviewService) ListIdeas(ctx context.Context, viewer models.Actor) ([]*IdeaSummary, error) {
	ideas, err := s.ideas.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ideas: %w", err)
	}

	workflows := make(map[string]*models.WorkflowDefinition)
	summaries := make([]*IdeaSummary, 0, len(ideas))
	for _, idea := range ideas {
		var outcome *models.Outcome
		var stageName string

		state, err := s.states.Get(ctx, idea.ID)
		switch err {
		case nil:
			outcome = state.TerminalOutcome
			wf, ok := workflows[state.WorkflowID]
			if !ok {
				wf, err = s.catalog.GetByID(ctx, state.WorkflowID)
				if err != nil {
					return nil, fmt.Errorf("load bound workflow: %w", err)
				}
				workflows[state.WorkflowID] = wf
			}
			if stage := wf.StageByID(state.CurrentStageID); stage != nil {
				stageName = stage.Name
			}
		case repository.ErrNotFound:
			// Idea submitted but not yet bound; listed without review fields.
		default:
			return nil, fmt.Errorf("load stage state: %w", err)
		}

		shown := visibility.MaskOwner(s.blindEnabled, viewer, idea, outcome)
		summaries = append(summaries, &IdeaSummary{
			ID:               shown.ID,
			Title:            shown.Title,
			OwnerID:          shown.OwnerID,
			OwnerName:        shown.OwnerName,
			Status:           shown.Status,
			CurrentStageName: stageName,
			TerminalOutcome:  outcome,
		})
	}
	return summaries, nil
}

func (s *ReviewService) validateRequest(req TransitionRequest) error {
	if !req.Action.IsTransition() {
		return models.NewValidationError("unknown action %q", string(req.Action))
	}
	if req.ExpectedStateVersion < 1 {
		return models.NewValidationError("expectedStateVersion must be a positive integer")
	}
	if req.Comment != nil && len(*req.Comment) > s.maxCommentLen {
		return models.NewValidationError("comment exceeds %d characters", s.maxCommentLen)
	}
	return nil
}

func (s *ReviewService) result(state *models.StageState, wf *models.WorkflowDefinition) *TransitionResult {
	name := ""
	if stage := wf.StageByID(state.CurrentStageID); stage != nil {
		name = stage.Name
	}
	return &TransitionResult{
		ItemID:           state.ItemID,
		CurrentStageID:   state.CurrentStageID,
		CurrentStageName: name,
		StateVersion:     state.StateVersion,
		TerminalOutcome:  state.TerminalOutcome,
		UpdatedAt:        state.UpdatedAt,
	}
}
