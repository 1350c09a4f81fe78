package calendar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"networkbrain/internal/gapi"
	"networkbrain/internal/profiles"
)

// EventLister fetches normalized events from Google Calendar.
type EventLister interface {
	ListEvents(ctx context.Context, identity string, window gapi.Window) ([]gapi.Event, error)
}

// SyncResult summarizes one sync pass.
type SyncResult struct {
	Events          []Event `json:"events"`
	ProfilesCreated int     `json:"profilesCreated"`
	AttendeesLinked int     `json:"attendeesLinked"`
}

// Service mirrors a window of the admin's calendar into local storage and
// links attendees to the profile directory.
type Service struct {
	lister   EventLister
	repo     Repository
	profiles *profiles.Service
	logger   *slog.Logger
}

// NewService wires a sync service.
func NewService(lister EventLister, repo Repository, profileSvc *profiles.Service, logger *slog.Logger) *Service {
	return &Service{lister: lister, repo: repo, profiles: profileSvc, logger: logger}
}

// Sync fetches the window from Google, upserts each event keyed by its
// Google id, and reconciles attendees against the profile directory. A
// failure on one event does not abort the batch; it is logged and the rest
// continue.
func (s *Service) Sync(ctx context.Context, identity string, window gapi.Window) (SyncResult, error) {
	remote, err := s.lister.ListEvents(ctx, identity, window)
	if err != nil {
		return SyncResult{}, fmt.Errorf("list calendar events: %w", err)
	}

	var result SyncResult
	for _, ev := range remote {
		stored, err := s.syncEvent(ctx, ev, &result)
		if err != nil {
			s.logger.Warn("failed to sync calendar event", "google_event_id", ev.GoogleEventID, "error", err)
			continue
		}
		result.Events = append(result.Events, stored)
	}

	return result, nil
}

// ListStored returns locally mirrored events in the window without touching
// Google.
func (s *Service) ListStored(ctx context.Context, start, end time.Time) ([]Event, error) {
	return s.repo.ListEvents(ctx, start, end)
}

func (s *Service) syncEvent(ctx context.Context, ev gapi.Event, result *SyncResult) (Event, error) {
	now := time.Now().UTC()
	stored, err := s.repo.UpsertEvent(ctx, Event{
		GoogleEventID:  ev.GoogleEventID,
		Title:          ev.Title,
		Description:    ev.Description,
		StartTime:      ev.Start,
		EndTime:        ev.End,
		Location:       ev.Location,
		OrganizerEmail: ev.OrganizerEmail,
		Link:           ev.Link,
		IsRecurring:    ev.IsRecurring,
		UpdatedAt:      now,
	})
	if err != nil {
		return Event{}, fmt.Errorf("upsert event: %w", err)
	}

	attendees := make([]Attendee, 0, len(ev.Attendees))
	seen := make(map[string]bool)
	for _, att := range ev.Attendees {
		profile, created, err := s.resolveProfile(ctx, att)
		if err != nil {
			s.logger.Warn("failed to link attendee", "email", att.Email, "error", err)
			continue
		}
		if seen[profile.ID.String()] {
			continue
		}
		seen[profile.ID.String()] = true
		if created {
			result.ProfilesCreated++
		}
		result.AttendeesLinked++
		attendees = append(attendees, Attendee{
			EventID:        stored.ID,
			ProfileID:      profile.ID,
			ResponseStatus: att.ResponseStatus,
			IsOrganizer:    att.IsOrganizer,
			UpdatedAt:      now,
		})
	}

	if err := s.repo.ReplaceAttendees(ctx, stored.ID, attendees); err != nil {
		return Event{}, fmt.Errorf("replace attendees: %w", err)
	}

	stored.Attendees = attendees
	return stored, nil
}

// resolveProfile matches an attendee to a profile: by email first, then by
// display name, creating a new profile only when neither matches.
func (s *Service) resolveProfile(ctx context.Context, att gapi.Attendee) (profiles.Profile, bool, error) {
	email := strings.TrimSpace(att.Email)
	name := strings.TrimSpace(att.DisplayName)

	if email != "" {
		profile, err := s.profiles.FindByEmail(ctx, email)
		if err == nil {
			return profile, false, nil
		}
		if !errors.Is(err, profiles.ErrNotFound) {
			return profiles.Profile{}, false, err
		}
	}

	if name != "" {
		profile, err := s.profiles.MatchByName(ctx, name)
		if err == nil {
			return profile, false, nil
		}
		if !errors.Is(err, profiles.ErrNotFound) {
			return profiles.Profile{}, false, err
		}
	}

	if email == "" && name == "" {
		return profiles.Profile{}, false, errors.New("attendee has no email or name")
	}

	profile, err := s.profiles.GetOrCreateByEmail(ctx, email, name)
	if err != nil {
		return profiles.Profile{}, false, err
	}
	return profile, true, nil
}
