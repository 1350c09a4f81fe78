package profiles

import (
	"context"
	"errors"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service orchestrates validation and persistence for profiles.
type Service struct {
	repo Repository
}

// NewService wires a Service with the provided repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create validates and persists a new profile.
func (s *Service) Create(ctx context.Context, input CreateProfileInput) (Profile, error) {
	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" {
		return Profile{}, validationErr("fullName is required")
	}

	email, err := normalizeEmail(input.Email)
	if err != nil {
		return Profile{}, err
	}

	linkedin, err := normalizeLinkedInURL(input.LinkedInURL)
	if err != nil {
		return Profile{}, err
	}

	now := time.Now().UTC()
	profile := Profile{
		ID:          uuid.New(),
		FullName:    fullName,
		Email:       email,
		Company:     strings.TrimSpace(input.Company),
		Role:        strings.TrimSpace(input.Role),
		Location:    strings.TrimSpace(input.Location),
		LinkedInURL: linkedin,
		HowMet:      strings.TrimSpace(input.HowMet),
		Interests:   strings.TrimSpace(input.Interests),
		Notes:       strings.TrimSpace(input.Notes),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	return s.repo.Create(ctx, profile)
}

// List returns profiles ordered by creation date descending.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]Profile, error) {
	list, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(list, compareProfilesByCreatedDesc)

	if opts.Limit != nil && *opts.Limit >= 0 && len(list) > *opts.Limit {
		list = list[:*opts.Limit]
	}

	return list, nil
}

// Get retrieves a profile by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Profile, error) {
	return s.repo.Get(ctx, id)
}

// Update applies modifications to a profile.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateProfileInput) (Profile, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return Profile{}, err
	}

	if input.FullName != nil {
		fullName := strings.TrimSpace(*input.FullName)
		if fullName == "" {
			return Profile{}, validationErr("fullName is required")
		}
		existing.FullName = fullName
	}

	if input.Email != nil {
		email, err := normalizeEmail(*input.Email)
		if err != nil {
			return Profile{}, err
		}
		existing.Email = email
	}

	if input.Company != nil {
		existing.Company = strings.TrimSpace(*input.Company)
	}

	if input.Role != nil {
		existing.Role = strings.TrimSpace(*input.Role)
	}

	if input.Location != nil {
		existing.Location = strings.TrimSpace(*input.Location)
	}

	if input.LinkedInURL != nil {
		linkedin, err := normalizeLinkedInURL(*input.LinkedInURL)
		if err != nil {
			return Profile{}, err
		}
		existing.LinkedInURL = linkedin
	}

	if input.HowMet != nil {
		existing.HowMet = strings.TrimSpace(*input.HowMet)
	}

	if input.Interests != nil {
		existing.Interests = strings.TrimSpace(*input.Interests)
	}

	if input.Notes != nil {
		existing.Notes = strings.TrimSpace(*input.Notes)
	}

	existing.UpdatedAt = time.Now().UTC()
	return s.repo.Update(ctx, existing)
}

// Delete removes a profile by ID.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// FindByEmail looks up a profile by its email address, case-insensitively.
func (s *Service) FindByEmail(ctx context.Context, email string) (Profile, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return Profile{}, ErrNotFound
	}
	return s.repo.FindByEmail(ctx, email)
}

// MatchByName looks up a profile whose full name matches, case-insensitively.
func (s *Service) MatchByName(ctx context.Context, name string) (Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Profile{}, ErrNotFound
	}
	return s.repo.FindByName(ctx, name)
}

// GetOrCreateByEmail returns the profile owning the address, creating a bare
// one when none exists. displayName seeds the full name for new profiles and
// falls back to the address itself.
func (s *Service) GetOrCreateByEmail(ctx context.Context, email, displayName string) (Profile, error) {
	profile, err := s.FindByEmail(ctx, email)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Profile{}, err
	}

	fullName := strings.TrimSpace(displayName)
	if fullName == "" {
		fullName = strings.ToLower(strings.TrimSpace(email))
	}

	return s.Create(ctx, CreateProfileInput{
		FullName: fullName,
		Email:    email,
	})
}

func validationErr(msg string) error {
	return &ValidationError{Message: msg}
}

func compareProfilesByCreatedDesc(a, b Profile) int {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return strings.Compare(a.FullName, b.FullName)
	}
	if a.CreatedAt.After(b.CreatedAt) {
		return -1
	}
	return 1
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", nil
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "", validationErr("email is not a valid address")
	}
	return email, nil
}

func normalizeLinkedInURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", nil
	}
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme != "https" || parsed.Host == "" {
		return "", validationErr("linkedinUrl must be a valid HTTPS URL")
	}
	return trimmed, nil
}
