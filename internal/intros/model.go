package intros

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an introduction cannot be located.
var ErrNotFound = errors.New("introduction not found")

// ErrValidation is returned when input validation fails.
var ErrValidation = errors.New("validation error")

// ValidationError wraps a validation message so callers can distinguish
// client errors from internal failures.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Status tracks an introduction through its lifecycle.
type Status string

const (
	StatusSuggested Status = "suggested"
	StatusDrafted   Status = "drafted"
	StatusSent      Status = "sent"
	StatusCompleted Status = "completed"
	StatusDeclined  Status = "declined"
)

// transitions lists the allowed next states for each status. Completed and
// declined are terminal.
var transitions = map[Status][]Status{
	StatusSuggested: {StatusDrafted, StatusDeclined},
	StatusDrafted:   {StatusSent, StatusDeclined},
	StatusSent:      {StatusCompleted, StatusDeclined},
	StatusCompleted: {},
	StatusDeclined:  {},
}

// Valid reports whether the status is one of the known lifecycle states.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransitionTo reports whether moving from s to next is an allowed step.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Intro connects two profiles with a rationale and a lifecycle status.
type Intro struct {
	ID          uuid.UUID `db:"id" json:"id"`
	FromProfile uuid.UUID `db:"from_profile" json:"fromProfile"`
	ToProfile   uuid.UUID `db:"to_profile" json:"toProfile"`
	Rationale   string    `db:"rationale" json:"rationale"`
	Status      Status    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// CreateIntroInput captures the data needed to create a new introduction.
type CreateIntroInput struct {
	FromProfile uuid.UUID
	ToProfile   uuid.UUID
	Rationale   string
}

// UpdateIntroInput captures the editable fields for an existing
// introduction. Status changes go through Transition, not Update.
type UpdateIntroInput struct {
	Rationale *string
}

// ListOptions describes filters for listing introductions.
type ListOptions struct {
	Status    *Status
	ProfileID *uuid.UUID
}

// Repository defines persistence operations for introductions.
type Repository interface {
	Create(ctx context.Context, intro Intro) (Intro, error)
	Get(ctx context.Context, id uuid.UUID) (Intro, error)
	List(ctx context.Context, opts ListOptions) ([]Intro, error)
	Update(ctx context.Context, intro Intro) (Intro, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
