package gapi

import (
	"testing"
	"time"

	"google.golang.org/api/calendar/v3"
)

func TestNormalizeEvent(t *testing.T) {
	item := &calendar.Event{
		Id:          "evt-1",
		Summary:     "Coffee with Alice",
		Description: "catch up",
		Location:    "Auckland",
		HtmlLink:    "https://calendar.google.com/event?eid=evt-1",
		Organizer:   &calendar.EventOrganizer{Email: "admin@x.com"},
		Start:       &calendar.EventDateTime{DateTime: "2026-09-02T10:00:00+12:00"},
		End:         &calendar.EventDateTime{DateTime: "2026-09-02T11:00:00+12:00"},
		Attendees: []*calendar.EventAttendee{
			{Email: "admin@x.com", Organizer: true, ResponseStatus: "accepted"},
			{Email: "alice@example.com", DisplayName: "Alice Doe", ResponseStatus: "needsAction"},
			{DisplayName: "no email, skipped"},
		},
	}

	event := normalizeEvent(item)

	if event.GoogleEventID != "evt-1" || event.Title != "Coffee with Alice" {
		t.Fatalf("unexpected event %+v", event)
	}
	if event.OrganizerEmail != "admin@x.com" {
		t.Fatalf("organizer not mapped: %q", event.OrganizerEmail)
	}
	if event.Start.IsZero() || event.End == nil {
		t.Fatalf("times not parsed: %+v", event)
	}
	if got := event.End.Sub(event.Start); got != time.Hour {
		t.Fatalf("expected 1h duration, got %v", got)
	}
	if len(event.Attendees) != 2 {
		t.Fatalf("attendees without email must be skipped, got %v", event.Attendees)
	}
	if !event.Attendees[0].IsOrganizer || event.Attendees[1].DisplayName != "Alice Doe" {
		t.Fatalf("attendee mapping wrong: %+v", event.Attendees)
	}
	if event.IsRecurring {
		t.Fatal("one-off event flagged recurring")
	}
}

func TestNormalizeEventRecurringAndDefaults(t *testing.T) {
	item := &calendar.Event{
		Id:         "evt-2",
		Recurrence: []string{"RRULE:FREQ=WEEKLY"},
		Start:      &calendar.EventDateTime{Date: "2026-09-03"},
	}

	event := normalizeEvent(item)

	if !event.IsRecurring {
		t.Fatal("expected recurring flag")
	}
	if event.Title != "Untitled Event" {
		t.Fatalf("expected title default, got %q", event.Title)
	}
	if event.Start.Format("2006-01-02") != "2026-09-03" {
		t.Fatalf("all-day start not parsed: %v", event.Start)
	}
	if event.End != nil {
		t.Fatalf("expected nil end, got %v", event.End)
	}
}

func TestNormalizeEventRecurringInstance(t *testing.T) {
	item := &calendar.Event{
		Id:               "evt-3_20260904",
		RecurringEventId: "evt-3",
		Start:            &calendar.EventDateTime{DateTime: "2026-09-04T09:00:00Z"},
	}

	if event := normalizeEvent(item); !event.IsRecurring {
		t.Fatal("expanded recurring instance must be flagged recurring")
	}
}
