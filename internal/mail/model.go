package mail

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EmailLog records one delivered message, linked to a profile when the
// primary recipient matches one.
type EmailLog struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	ProfileID *uuid.UUID `db:"profile_id" json:"profileId,omitempty"`
	Sender    string     `db:"sender" json:"sender"`
	Recipient string     `db:"recipient" json:"recipient"`
	Subject   string     `db:"subject" json:"subject"`
	Body      string     `db:"body" json:"body"`
	MessageID string     `db:"message_id" json:"messageId,omitempty"`
	SentAt    time.Time  `db:"sent_at" json:"sentAt"`
}

// ListOptions describes filters for listing the send history.
type ListOptions struct {
	ProfileID *uuid.UUID
	Limit     *int
}

// Repository defines persistence operations for the send history.
type Repository interface {
	Create(ctx context.Context, log EmailLog) (EmailLog, error)
	List(ctx context.Context, opts ListOptions) ([]EmailLog, error)
}
