package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"idea-review/backend/internal/repository"
	"idea-review/backend/pkg/models"
)

// WorkflowService manages the versioned workflow catalog.
type WorkflowService struct {
	catalog   repository.WorkflowCatalog
	logger    Logger
	minStages int
	maxStages int
}

// NewWorkflowService creates a new WorkflowService.
func NewWorkflowService(catalog repository.WorkflowCatalog, logger Logger, minStages, maxStages int) *WorkflowService {
	return &WorkflowService{
		catalog:   catalog,
		logger:    logger,
		minStages: minStages,
		maxStages: maxStages,
	}
}

// CreateAndActivate validates the ordered stage names and activates a new
// workflow version carrying them at positions 1..N. The previously active
// version is deactivated in the same transaction but stays resolvable by id,
// so items bound to it keep their stage set.
func (s *WorkflowService) CreateAndActivate(ctx context.Context, stageNames []string, actor models.Actor) (*models.WorkflowDefinition, error) {
	names := make([]string, 0, len(stageNames))
	for _, raw := range stageNames {
		name := strings.TrimSpace(raw)
		if name == "" {
			return nil, models.NewValidationError("stage names must not be blank")
		}
		names = append(names, name)
	}

	if len(names) < s.minStages || len(names) > s.maxStages {
		return nil, models.NewValidationError("workflow needs between %d and %d stages, got %d", s.minStages, s.maxStages, len(names))
	}

	seen := make(map[string]bool, len(names))
	for _, name := range names {
		key := strings.ToLower(name)
		if seen[key] {
			return nil, models.NewValidationError("duplicate stage name %q (names are unique case-insensitively)", name)
		}
		seen[key] = true
	}

	wf := &models.WorkflowDefinition{
		ID:        uuid.New().String(),
		CreatedBy: actor.ID,
	}
	for i, name := range names {
		wf.Stages = append(wf.Stages, &models.Stage{
			ID:         uuid.New().String(),
			WorkflowID: wf.ID,
			Name:       name,
			Position:   i + 1,
			IsEnabled:  true,
		})
	}

	if err := s.catalog.CreateAndActivate(ctx, wf); err != nil {
		return nil, fmt.Errorf("activate workflow: %w", err)
	}

	s.logger.Info("activated workflow", "id", wf.ID, "version", wf.Version, "stages", len(wf.Stages))
	return wf, nil
}

// Active returns the currently active workflow definition.
func (s *WorkflowService) Active(ctx context.Context) (*models.WorkflowDefinition, error) {
	wf, err := s.catalog.GetActive(ctx)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, &models.NotFoundError{Resource: "active workflow"}
		}
		return nil, fmt.Errorf("load active workflow: %w", err)
	}
	return wf, nil
}

// ByID returns a workflow definition by id, active or historical.
func (s *WorkflowService) ByID(ctx context.Context, id string) (*models.WorkflowDefinition, error) {
	wf, err := s.catalog.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, &models.NotFoundError{Resource: "workflow", ID: id}
		}
		return nil, fmt.Errorf("load workflow: %w", err)
	}
	return wf, nil
}
