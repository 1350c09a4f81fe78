package calendar

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryRepository stores mirrored events in process, ideal for local
// development or tests.
type InMemoryRepository struct {
	mu        sync.RWMutex
	events    map[uuid.UUID]Event
	byGoogle  map[string]uuid.UUID
	attendees map[uuid.UUID][]Attendee
}

// NewInMemoryRepository constructs an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		events:    make(map[uuid.UUID]Event),
		byGoogle:  make(map[string]uuid.UUID),
		attendees: make(map[uuid.UUID][]Attendee),
	}
}

// UpsertEvent inserts or updates an event keyed by its Google event id.
func (r *InMemoryRepository) UpsertEvent(_ context.Context, event Event) (Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byGoogle[event.GoogleEventID]; ok {
		event.ID = id
	} else {
		event.ID = uuid.New()
		r.byGoogle[event.GoogleEventID] = event.ID
	}
	stored := event
	stored.Attendees = nil
	r.events[event.ID] = stored
	return stored, nil
}

// ReplaceAttendees swaps the attendee set for an event.
func (r *InMemoryRepository) ReplaceAttendees(_ context.Context, eventID uuid.UUID, attendees []Attendee) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.events[eventID]; !ok {
		return ErrNotFound
	}
	r.attendees[eventID] = slices.Clone(attendees)
	return nil
}

// ListEvents returns stored events starting inside the window, ordered by
// start time.
func (r *InMemoryRepository) ListEvents(_ context.Context, start, end time.Time) ([]Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]Event, 0, len(r.events))
	for _, event := range r.events {
		if event.StartTime.Before(start) || event.StartTime.After(end) {
			continue
		}
		event.Attendees = slices.Clone(r.attendees[event.ID])
		list = append(list, event)
	}

	slices.SortFunc(list, func(a, b Event) int {
		return a.StartTime.Compare(b.StartTime)
	})
	return list, nil
}

// GetByGoogleID returns the stored event with the given Google event id.
func (r *InMemoryRepository) GetByGoogleID(_ context.Context, googleEventID string) (Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byGoogle[googleEventID]
	if !ok {
		return Event{}, ErrNotFound
	}
	event := r.events[id]
	event.Attendees = slices.Clone(r.attendees[id])
	return event, nil
}
