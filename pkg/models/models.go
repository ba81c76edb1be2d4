// Package models defines the domain models for the idea review service
package models

import (
	"time"
)

// Role is the coarse viewer role resolved by the upstream identity layer.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleEvaluator Role = "evaluator"
	RoleSubmitter Role = "submitter"
)

var validRoles = map[Role]bool{
	RoleAdmin:     true,
	RoleEvaluator: true,
	RoleSubmitter: true,
}

// IsValid returns true if the role is one of the known coarse roles.
func (r Role) IsValid() bool {
	return validRoles[r]
}

// Actor identifies who is performing a request. The id is opaque to this
// service; authentication happens upstream.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// Action is a transition trigger in the review state machine.
type Action string

const (
	ActionAdvance        Action = "advance"
	ActionReturn         Action = "return"
	ActionHold           Action = "hold"
	ActionTerminalAccept Action = "terminal_accept"
	ActionTerminalReject Action = "terminal_reject"

	// ActionBind is recorded on the initial binding event only. It is not
	// accepted as a transition request.
	ActionBind Action = "bind"
)

var transitionActions = map[Action]bool{
	ActionAdvance:        true,
	ActionReturn:         true,
	ActionHold:           true,
	ActionTerminalAccept: true,
	ActionTerminalReject: true,
}

// IsTransition returns true if the action is part of the request vocabulary.
func (a Action) IsTransition() bool {
	return transitionActions[a]
}

// IsTerminal returns true if the action sets a terminal outcome.
func (a Action) IsTerminal() bool {
	return a == ActionTerminalAccept || a == ActionTerminalReject
}

// String returns the string representation of the action.
func (a Action) String() string {
	return string(a)
}

// Outcome is a terminal review outcome. Once set it never changes.
type Outcome string

const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeRejected Outcome = "rejected"
)

// Outcome returns the terminal outcome a terminal action produces, or nil.
func (a Action) Outcome() *Outcome {
	switch a {
	case ActionTerminalAccept:
		o := OutcomeAccepted
		return &o
	case ActionTerminalReject:
		o := OutcomeRejected
		return &o
	}
	return nil
}

// IdeaStatus mirrors the review outcome onto the external idea record.
type IdeaStatus string

const (
	IdeaStatusUnderReview IdeaStatus = "under_review"
	IdeaStatusAccepted    IdeaStatus = "accepted"
	IdeaStatusRejected    IdeaStatus = "rejected"
)

// Idea is the boundary view of the external idea entity. The review core
// only needs identity, ownership, and the status field it syncs terminal
// outcomes into; it never reads idea content.
type Idea struct {
	ID        string     `json:"id" db:"id"`
	Title     string     `json:"title" db:"title"`
	OwnerID   string     `json:"owner_id" db:"owner_id"`
	OwnerName string     `json:"owner_name" db:"owner_name"`
	Status    IdeaStatus `json:"status" db:"status"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// Sentinel values substituted for the owner identity under blind review.
const (
	AnonymousOwnerID   = "anonymous"
	AnonymousOwnerName = "Anonymous Submitter"
)

// HealthStatus represents service health
type HealthStatus struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ProblemDetails represents RFC 7807 Problem Details
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}
