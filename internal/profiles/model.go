package profiles

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a profile cannot be located.
var ErrNotFound = errors.New("profile not found")

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

// Profile represents a contact in the directory.
type Profile struct {
	ID          uuid.UUID `db:"id" json:"id"`
	FullName    string    `db:"full_name" json:"fullName"`
	Email       string    `db:"email" json:"email"`
	Company     string    `db:"company" json:"company"`
	Role        string    `db:"role" json:"role"`
	Location    string    `db:"location" json:"location"`
	LinkedInURL string    `db:"linkedin_url" json:"linkedinUrl"`
	HowMet      string    `db:"how_met" json:"howMet"`
	Interests   string    `db:"interests" json:"interests"`
	Notes       string    `db:"notes" json:"notes"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// CreateProfileInput captures the data needed to create a new Profile.
type CreateProfileInput struct {
	FullName    string
	Email       string
	Company     string
	Role        string
	Location    string
	LinkedInURL string
	HowMet      string
	Interests   string
	Notes       string
}

// UpdateProfileInput captures the editable fields for an existing profile.
// Nil means "leave unchanged".
type UpdateProfileInput struct {
	FullName    *string
	Email       *string
	Company     *string
	Role        *string
	Location    *string
	LinkedInURL *string
	HowMet      *string
	Interests   *string
	Notes       *string
}

// ListOptions describes filters for listing profiles.
type ListOptions struct {
	Query *string
	Limit *int
}

// Repository defines persistence operations for Profiles.
type Repository interface {
	Create(ctx context.Context, profile Profile) (Profile, error)
	Get(ctx context.Context, id uuid.UUID) (Profile, error)
	List(ctx context.Context, opts ListOptions) ([]Profile, error)
	Update(ctx context.Context, profile Profile) (Profile, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindByEmail(ctx context.Context, email string) (Profile, error)
	FindByName(ctx context.Context, name string) (Profile, error)
}
