package profiles

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// InMemoryRepository stores profiles in an in-process map, ideal for local
// development or tests.
type InMemoryRepository struct {
	mu    sync.RWMutex
	data  map[uuid.UUID]Profile
	order []uuid.UUID
}

// NewInMemoryRepository constructs a repository seeded with optional initial profiles.
func NewInMemoryRepository(initial []Profile) *InMemoryRepository {
	data := make(map[uuid.UUID]Profile)
	order := make([]uuid.UUID, 0, len(initial))
	for _, profile := range initial {
		data[profile.ID] = profile
		order = append(order, profile.ID)
	}
	return &InMemoryRepository{data: data, order: order}
}

// Create stores a new profile.
func (r *InMemoryRepository) Create(_ context.Context, profile Profile) (Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.data[profile.ID] = profile
	r.order = append(r.order, profile.ID)
	return profile, nil
}

// Get returns a profile by ID.
func (r *InMemoryRepository) Get(_ context.Context, id uuid.UUID) (Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	profile, ok := r.data[id]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return profile, nil
}

// List returns stored profiles, optionally filtered by a free-text query.
func (r *InMemoryRepository) List(_ context.Context, opts ListOptions) ([]Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]Profile, 0, len(r.order))
	for _, id := range r.order {
		profile, ok := r.data[id]
		if !ok {
			continue
		}
		if opts.Query != nil && !matchesQuery(profile, *opts.Query) {
			continue
		}
		list = append(list, profile)
	}
	return list, nil
}

// Update replaces an existing profile.
func (r *InMemoryRepository) Update(_ context.Context, profile Profile) (Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.data[profile.ID]; !ok {
		return Profile{}, ErrNotFound
	}
	r.data[profile.ID] = profile
	return profile, nil
}

// Delete removes a profile by ID.
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

// FindByEmail returns the first profile with a matching email address.
func (r *InMemoryRepository) FindByEmail(_ context.Context, email string) (Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	email = strings.ToLower(email)
	for _, id := range r.order {
		profile, ok := r.data[id]
		if !ok {
			continue
		}
		if profile.Email != "" && strings.ToLower(profile.Email) == email {
			return profile, nil
		}
	}
	return Profile{}, ErrNotFound
}

// FindByName returns the first profile whose full name matches case-insensitively.
func (r *InMemoryRepository) FindByName(_ context.Context, name string) (Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name = strings.ToLower(name)
	for _, id := range r.order {
		profile, ok := r.data[id]
		if !ok {
			continue
		}
		if strings.ToLower(profile.FullName) == name {
			return profile, nil
		}
	}
	return Profile{}, ErrNotFound
}

func matchesQuery(profile Profile, query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	for _, field := range []string{profile.FullName, profile.Email, profile.Company, profile.Role, profile.Location} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}
