package calendar

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an event cannot be located.
var ErrNotFound = errors.New("event not found")

// Event is a calendar event mirrored from Google into local storage.
type Event struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	GoogleEventID  string     `db:"google_event_id" json:"googleEventId"`
	Title          string     `db:"title" json:"title"`
	Description    string     `db:"description" json:"description,omitempty"`
	StartTime      time.Time  `db:"start_time" json:"startTime"`
	EndTime        *time.Time `db:"end_time" json:"endTime,omitempty"`
	Location       string     `db:"location" json:"location,omitempty"`
	OrganizerEmail string     `db:"organizer_email" json:"organizerEmail,omitempty"`
	Link           string     `db:"link" json:"link,omitempty"`
	IsRecurring    bool       `db:"is_recurring" json:"isRecurring"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updatedAt"`
	Attendees      []Attendee `db:"-" json:"attendees,omitempty"`
}

// Attendee links a stored event to a profile with the attendee's RSVP state.
type Attendee struct {
	EventID        uuid.UUID `db:"event_id" json:"eventId"`
	ProfileID      uuid.UUID `db:"profile_id" json:"profileId"`
	ResponseStatus string    `db:"response_status" json:"responseStatus,omitempty"`
	IsOrganizer    bool      `db:"is_organizer" json:"isOrganizer"`
	UpdatedAt      time.Time `db:"updated_at" json:"-"`
}

// Repository defines persistence operations for mirrored events. UpsertEvent
// is keyed by the Google event id; ReplaceAttendees swaps the attendee set
// for an event atomically.
type Repository interface {
	UpsertEvent(ctx context.Context, event Event) (Event, error)
	ReplaceAttendees(ctx context.Context, eventID uuid.UUID, attendees []Attendee) error
	ListEvents(ctx context.Context, start, end time.Time) ([]Event, error)
	GetByGoogleID(ctx context.Context, googleEventID string) (Event, error)
}
