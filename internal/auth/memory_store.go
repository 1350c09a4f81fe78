package auth

import (
	"context"
	"strings"
	"sync"
	"time"
)

// InMemoryStore keeps credentials in an in-process map, ideal for local
// development or tests.
type InMemoryStore struct {
	mu   sync.RWMutex
	data map[string]CredentialRecord
}

// NewInMemoryStore constructs an empty credential store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{data: make(map[string]CredentialRecord)}
}

// Save upserts the record, preserving a previously stored refresh token when
// the incoming record has none.
func (s *InMemoryStore) Save(_ context.Context, record CredentialRecord) error {
	key := storeKey(record.Identity)

	s.mu.Lock()
	defer s.mu.Unlock()

	if record.RefreshToken == "" {
		if prior, ok := s.data[key]; ok {
			record.RefreshToken = prior.RefreshToken
		}
	}
	record.UpdatedAt = time.Now()
	s.data[key] = record
	return nil
}

// Load returns the stored record, or nil when the identity has none.
func (s *InMemoryStore) Load(_ context.Context, identity string) (*CredentialRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.data[storeKey(identity)]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

// Delete removes the record if present. Deleting an absent record is a no-op.
func (s *InMemoryStore) Delete(_ context.Context, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, storeKey(identity))
	return nil
}

func storeKey(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}
