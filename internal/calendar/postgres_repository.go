package calendar

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// PostgresRepository persists mirrored events to a Postgres database.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository constructs a repository backed by sqlx.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const eventSelect = `
SELECT id, google_event_id, title, description, start_time, end_time, location, organizer_email, link, is_recurring, updated_at
FROM events
`

// UpsertEvent inserts or updates a row keyed by the Google event id and
// returns the stored representation.
func (r *PostgresRepository) UpsertEvent(ctx context.Context, event Event) (Event, error) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	upsert := `INSERT INTO events (id, google_event_id, title, description, start_time, end_time, location, organizer_email, link, is_recurring, updated_at)
VALUES (:id, :google_event_id, :title, :description, :start_time, :end_time, :location, :organizer_email, :link, :is_recurring, :updated_at)
ON CONFLICT (google_event_id) DO UPDATE SET
    title = EXCLUDED.title,
    description = EXCLUDED.description,
    start_time = EXCLUDED.start_time,
    end_time = EXCLUDED.end_time,
    location = EXCLUDED.location,
    organizer_email = EXCLUDED.organizer_email,
    link = EXCLUDED.link,
    is_recurring = EXCLUDED.is_recurring,
    updated_at = EXCLUDED.updated_at`

	if _, err := r.db.NamedExecContext(ctx, upsert, event); err != nil {
		return Event{}, fmt.Errorf("upsert event: %w", err)
	}

	var stored Event
	if err := r.db.GetContext(ctx, &stored, eventSelect+" WHERE google_event_id = $1", event.GoogleEventID); err != nil {
		return Event{}, fmt.Errorf("reload event: %w", err)
	}
	return stored, nil
}

// ReplaceAttendees swaps the attendee set for an event in one transaction.
func (r *PostgresRepository) ReplaceAttendees(ctx context.Context, eventID uuid.UUID, attendees []Attendee) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin attendee transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM event_attendees WHERE event_id = $1`, eventID); err != nil {
		return fmt.Errorf("clear attendees: %w", err)
	}

	insert := `INSERT INTO event_attendees (event_id, profile_id, response_status, is_organizer, updated_at)
VALUES (:event_id, :profile_id, :response_status, :is_organizer, :updated_at)`
	for _, attendee := range attendees {
		if _, err := tx.NamedExecContext(ctx, insert, attendee); err != nil {
			return fmt.Errorf("insert attendee: %w", err)
		}
	}

	return tx.Commit()
}

// ListEvents returns rows starting inside the window with their attendees.
func (r *PostgresRepository) ListEvents(ctx context.Context, start, end time.Time) ([]Event, error) {
	var list []Event
	err := r.db.SelectContext(ctx, &list, eventSelect+` WHERE start_time >= $1 AND start_time <= $2 ORDER BY start_time ASC`, start, end)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	for i := range list {
		attendees, err := r.loadAttendees(ctx, list[i].ID)
		if err != nil {
			return nil, err
		}
		list[i].Attendees = attendees
	}
	return list, nil
}

// GetByGoogleID returns the row with the given Google event id.
func (r *PostgresRepository) GetByGoogleID(ctx context.Context, googleEventID string) (Event, error) {
	var event Event
	if err := r.db.GetContext(ctx, &event, eventSelect+" WHERE google_event_id = $1", googleEventID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Event{}, ErrNotFound
		}
		return Event{}, fmt.Errorf("get event: %w", err)
	}

	attendees, err := r.loadAttendees(ctx, event.ID)
	if err != nil {
		return Event{}, err
	}
	event.Attendees = attendees
	return event, nil
}

func (r *PostgresRepository) loadAttendees(ctx context.Context, eventID uuid.UUID) ([]Attendee, error) {
	var attendees []Attendee
	err := r.db.SelectContext(ctx, &attendees, `SELECT event_id, profile_id, response_status, is_organizer, updated_at FROM event_attendees WHERE event_id = $1`, eventID)
	if err != nil {
		return nil, fmt.Errorf("load attendees: %w", err)
	}
	return attendees, nil
}
