package intros

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"networkbrain/internal/profiles"
)

// Service orchestrates validation and persistence for introductions.
type Service struct {
	repo     Repository
	profiles *profiles.Service
}

// NewService wires a Service with its repository and the profile directory
// used to verify that both sides of an introduction exist.
func NewService(repo Repository, profileSvc *profiles.Service) *Service {
	return &Service{repo: repo, profiles: profileSvc}
}

// Create validates and persists a new introduction in the suggested state.
func (s *Service) Create(ctx context.Context, input CreateIntroInput) (Intro, error) {
	if input.FromProfile == uuid.Nil || input.ToProfile == uuid.Nil {
		return Intro{}, validationErr("fromProfile and toProfile are required")
	}
	if input.FromProfile == input.ToProfile {
		return Intro{}, validationErr("an introduction must connect two different profiles")
	}

	for _, id := range []uuid.UUID{input.FromProfile, input.ToProfile} {
		if _, err := s.profiles.Get(ctx, id); err != nil {
			if errors.Is(err, profiles.ErrNotFound) {
				return Intro{}, validationErr(fmt.Sprintf("profile %s does not exist", id))
			}
			return Intro{}, err
		}
	}

	now := time.Now().UTC()
	intro := Intro{
		ID:          uuid.New(),
		FromProfile: input.FromProfile,
		ToProfile:   input.ToProfile,
		Rationale:   strings.TrimSpace(input.Rationale),
		Status:      StatusSuggested,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	return s.repo.Create(ctx, intro)
}

// List returns introductions ordered by creation date descending.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]Intro, error) {
	if opts.Status != nil && !opts.Status.Valid() {
		return nil, validationErr(fmt.Sprintf("unknown status %q", *opts.Status))
	}

	list, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(list, func(a, b Intro) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return strings.Compare(a.ID.String(), b.ID.String())
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})

	return list, nil
}

// Get retrieves an introduction by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Intro, error) {
	return s.repo.Get(ctx, id)
}

// Update applies modifications to an introduction's editable fields.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateIntroInput) (Intro, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return Intro{}, err
	}

	if input.Rationale != nil {
		existing.Rationale = strings.TrimSpace(*input.Rationale)
	}

	existing.UpdatedAt = time.Now().UTC()
	return s.repo.Update(ctx, existing)
}

// Transition moves an introduction to the next lifecycle state, rejecting
// moves the lifecycle does not allow.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, next Status) (Intro, error) {
	if !next.Valid() {
		return Intro{}, validationErr(fmt.Sprintf("unknown status %q", next))
	}

	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return Intro{}, err
	}

	if !existing.Status.CanTransitionTo(next) {
		return Intro{}, validationErr(fmt.Sprintf("cannot move introduction from %s to %s", existing.Status, next))
	}

	existing.Status = next
	existing.UpdatedAt = time.Now().UTC()
	return s.repo.Update(ctx, existing)
}

// Delete removes an introduction by ID.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func validationErr(msg string) error {
	return &ValidationError{Message: msg}
}
