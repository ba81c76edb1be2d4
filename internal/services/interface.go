package services

import (
	"context"
	"time"

	"idea-review/backend/internal/visibility"
	"idea-review/backend/pkg/models"
)

// Logger defines the logging interface compatible with the application logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// TransitionRequest is the payload of a transition attempt. The expected
// state version makes the write conditional: a stale value is rejected with a
// conflict and the caller must refetch.
type TransitionRequest struct {
	Action               models.Action `json:"action"`
	ExpectedStateVersion int           `json:"expectedStateVersion"`
	Comment              *string       `json:"comment,omitempty"`
}

// TransitionResult is the success response of an executed transition.
type TransitionResult struct {
	ItemID           string          `json:"itemId"`
	CurrentStageID   string          `json:"currentStageId"`
	CurrentStageName string          `json:"currentStageName"`
	StateVersion     int             `json:"stateVersion"`
	TerminalOutcome  *models.Outcome `json:"terminalOutcome"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// IdeaSummary is a list-view projection of an idea and its review position.
// Owner identity fields may carry the anonymization sentinels.
type IdeaSummary struct {
	ID               string          `json:"id"`
	Title            string          `json:"title"`
	OwnerID          string          `json:"ownerId"`
	OwnerName        string          `json:"ownerName"`
	Status           models.IdeaStatus `json:"status"`
	CurrentStageName string          `json:"currentStageName,omitempty"`
	TerminalOutcome  *models.Outcome `json:"terminalOutcome,omitempty"`
}

// Reviews is the surface the API and MCP layers use to drive reviews.
type Reviews interface {
	Bind(ctx context.Context, itemID string, actor models.Actor) (*TransitionResult, error)
	Transition(ctx context.Context, itemID string, req TransitionRequest, actor models.Actor) (*TransitionResult, error)
	Progress(ctx context.Context, itemID string, viewer models.Actor) (*visibility.ProgressView, error)
	ListIdeas(ctx context.Context, viewer models.Actor) ([]*IdeaSummary, error)
}

// Workflows is the workflow configuration surface.
type Workflows interface {
	CreateAndActivate(ctx context.Context, stageNames []string, actor models.Actor) (*models.WorkflowDefinition, error)
	Active(ctx context.Context) (*models.WorkflowDefinition, error)
	ByID(ctx context.Context, id string) (*models.WorkflowDefinition, error)
}
