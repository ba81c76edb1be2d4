package models

import (
	"strings"
	"time"
)

// WorkflowDefinition is a versioned, ordered list of review stages. Versions
// are immutable once created; configuration changes always produce a new
// version. At most one definition is active at any time.
type WorkflowDefinition struct {
	ID          string     `json:"id" db:"id"`
	Version     int        `json:"version" db:"version"`
	IsActive    bool       `json:"is_active" db:"is_active"`
	CreatedBy   string     `json:"created_by" db:"created_by"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	ActivatedAt *time.Time `json:"activated_at,omitempty" db:"activated_at"`
	Stages      []*Stage   `json:"stages"`
}

// Stage is a named step with a fixed 1-based position inside a workflow.
// Stages are immutable once created.
type Stage struct {
	ID         string `json:"id" db:"id"`
	WorkflowID string `json:"workflow_id" db:"workflow_id"`
	Name       string `json:"name" db:"name"`
	Position   int    `json:"position" db:"position"`
	IsEnabled  bool   `json:"is_enabled" db:"is_enabled"`
}

// StageByID returns the stage with the given id, or nil.
func (w *WorkflowDefinition) StageByID(id string) *Stage {
	for _, s := range w.Stages {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// StageAt returns the stage at the given 1-based position, or nil.
func (w *WorkflowDefinition) StageAt(position int) *Stage {
	for _, s := range w.Stages {
		if s.Position == position {
			return s
		}
	}
	return nil
}

// FirstStage returns the stage at position 1.
func (w *WorkflowDefinition) FirstStage() *Stage {
	return w.StageAt(1)
}

// LastStage returns the stage at the highest position.
func (w *WorkflowDefinition) LastStage() *Stage {
	var last *Stage
	for _, s := range w.Stages {
		if last == nil || s.Position > last.Position {
			last = s
		}
	}
	return last
}

// StageNames returns a lookup from stage id to stage name. Progress views
// must resolve names through the workflow the item was bound to, never the
// currently active one.
func (w *WorkflowDefinition) StageNames() map[string]string {
	names := make(map[string]string, len(w.Stages))
	for _, s := range w.Stages {
		names[s.ID] = s.Name
	}
	return names
}

// HasStageName reports whether the workflow already contains a stage with the
// given name, compared case-insensitively.
func (w *WorkflowDefinition) HasStageName(name string) bool {
	for _, s := range w.Stages {
		if strings.EqualFold(s.Name, name) {
			return true
		}
	}
	return false
}
