package intros

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// InMemoryRepository stores introductions in an in-process map, ideal for
// local development or tests.
type InMemoryRepository struct {
	mu    sync.RWMutex
	data  map[uuid.UUID]Intro
	order []uuid.UUID
}

// NewInMemoryRepository constructs an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{data: make(map[uuid.UUID]Intro)}
}

// Create stores a new introduction.
func (r *InMemoryRepository) Create(_ context.Context, intro Intro) (Intro, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.data[intro.ID] = intro
	r.order = append(r.order, intro.ID)
	return intro, nil
}

// Get returns an introduction by ID.
func (r *InMemoryRepository) Get(_ context.Context, id uuid.UUID) (Intro, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	intro, ok := r.data[id]
	if !ok {
		return Intro{}, ErrNotFound
	}
	return intro, nil
}

// List returns stored introductions matching the options.
func (r *InMemoryRepository) List(_ context.Context, opts ListOptions) ([]Intro, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]Intro, 0, len(r.order))
	for _, id := range r.order {
		intro, ok := r.data[id]
		if !ok {
			continue
		}
		if opts.Status != nil && intro.Status != *opts.Status {
			continue
		}
		if opts.ProfileID != nil && intro.FromProfile != *opts.ProfileID && intro.ToProfile != *opts.ProfileID {
			continue
		}
		list = append(list, intro)
	}
	return list, nil
}

// Update replaces an existing introduction.
func (r *InMemoryRepository) Update(_ context.Context, intro Intro) (Intro, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.data[intro.ID]; !ok {
		return Intro{}, ErrNotFound
	}
	r.data[intro.ID] = intro
	return intro, nil
}

// Delete removes an introduction by ID.
func (r *InMemoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.data[id]; !ok {
		return ErrNotFound
	}
	delete(r.data, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}
