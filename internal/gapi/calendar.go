package gapi

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// Window bounds a calendar query.
type Window struct {
	Start time.Time
	End   time.Time
}

// Event is the normalized form of a Google Calendar event.
type Event struct {
	GoogleEventID  string     `json:"googleEventId"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	Start          time.Time  `json:"start"`
	End            *time.Time `json:"end,omitempty"`
	Location       string     `json:"location,omitempty"`
	OrganizerEmail string     `json:"organizerEmail,omitempty"`
	Link           string     `json:"link,omitempty"`
	IsRecurring    bool       `json:"isRecurring"`
	Attendees      []Attendee `json:"attendees,omitempty"`
}

// Attendee is a normalized event attendee.
type Attendee struct {
	Email          string `json:"email"`
	DisplayName    string `json:"displayName,omitempty"`
	ResponseStatus string `json:"responseStatus,omitempty"`
	IsOrganizer    bool   `json:"isOrganizer"`
}

// ListEvents fetches the admin's primary calendar for the given window,
// expanding recurring instances, ordered by start time, capped at the
// configured maximum.
func (f *ClientFactory) ListEvents(ctx context.Context, identity string, window Window) ([]Event, error) {
	source, err := f.TokenSource(ctx, identity)
	if err != nil {
		return nil, err
	}

	svc, err := calendar.NewService(ctx, option.WithTokenSource(source))
	if err != nil {
		return nil, fmt.Errorf("build calendar client: %w", err)
	}

	resp, err := svc.Events.List("primary").
		TimeMin(window.Start.Format(time.RFC3339)).
		TimeMax(window.End.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(f.maxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, classifyError(err)
	}

	events := make([]Event, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == "" {
			continue
		}
		events = append(events, normalizeEvent(item))
	}
	return events, nil
}

func normalizeEvent(item *calendar.Event) Event {
	event := Event{
		GoogleEventID: item.Id,
		Title:         item.Summary,
		Description:   item.Description,
		Location:      item.Location,
		Link:          item.HtmlLink,
		IsRecurring:   len(item.Recurrence) > 0 || item.RecurringEventId != "",
	}
	if event.Title == "" {
		event.Title = "Untitled Event"
	}
	if item.Organizer != nil {
		event.OrganizerEmail = item.Organizer.Email
	}
	if item.Start != nil {
		event.Start = parseEventTime(item.Start)
	}
	if item.End != nil {
		if end := parseEventTime(item.End); !end.IsZero() {
			event.End = &end
		}
	}
	for _, a := range item.Attendees {
		if a.Email == "" {
			continue
		}
		event.Attendees = append(event.Attendees, Attendee{
			Email:          a.Email,
			DisplayName:    a.DisplayName,
			ResponseStatus: a.ResponseStatus,
			IsOrganizer:    a.Organizer,
		})
	}
	return event
}

// parseEventTime handles both timed events (DateTime) and all-day events
// (Date only).
func parseEventTime(t *calendar.EventDateTime) time.Time {
	if t.DateTime != "" {
		if parsed, err := time.Parse(time.RFC3339, t.DateTime); err == nil {
			return parsed
		}
	}
	if t.Date != "" {
		if parsed, err := time.Parse("2006-01-02", t.Date); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
