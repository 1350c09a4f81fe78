package profiles

import (
	"context"
	"errors"
	"testing"
)

func newTestService() *Service {
	return NewService(NewInMemoryRepository(nil))
}

func TestCreateTrimsAndNormalizes(t *testing.T) {
	svc := newTestService()

	profile, err := svc.Create(context.Background(), CreateProfileInput{
		FullName: "  Jane Smith  ",
		Email:    " Jane@Example.COM ",
		Company:  " Acme ",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if profile.FullName != "Jane Smith" {
		t.Errorf("expected trimmed name, got %q", profile.FullName)
	}
	if profile.Email != "jane@example.com" {
		t.Errorf("expected lowercased email, got %q", profile.Email)
	}
	if profile.Company != "Acme" {
		t.Errorf("expected trimmed company, got %q", profile.Company)
	}
	if profile.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("expected generated id")
	}
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	cases := []struct {
		name  string
		input CreateProfileInput
	}{
		{"missing name", CreateProfileInput{Email: "a@b.com"}},
		{"bad email", CreateProfileInput{FullName: "Jane", Email: "not-an-email"}},
		{"http linkedin", CreateProfileInput{FullName: "Jane", LinkedInURL: "http://linkedin.com/in/jane"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tc.input); !errors.Is(err, ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestUpdateAppliesOnlyProvidedFields(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	profile, err := svc.Create(ctx, CreateProfileInput{FullName: "Jane Smith", Email: "jane@example.com", Company: "Acme"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	role := "CTO"
	updated, err := svc.Update(ctx, profile.ID, UpdateProfileInput{Role: &role})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	if updated.Role != "CTO" {
		t.Errorf("expected updated role, got %q", updated.Role)
	}
	if updated.FullName != "Jane Smith" || updated.Email != "jane@example.com" || updated.Company != "Acme" {
		t.Errorf("unrelated fields changed: %+v", updated)
	}
}

func TestUpdateRejectsEmptyName(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	profile, err := svc.Create(ctx, CreateProfileInput{FullName: "Jane Smith"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	empty := "   "
	if _, err := svc.Update(ctx, profile.ID, UpdateProfileInput{FullName: &empty}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestFindByEmailIsCaseInsensitive(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateProfileInput{FullName: "Jane Smith", Email: "jane@example.com"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	found, err := svc.FindByEmail(ctx, " JANE@Example.com ")
	if err != nil {
		t.Fatalf("FindByEmail returned error: %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("expected profile %s, got %s", created.ID, found.ID)
	}
}

func TestMatchByName(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateProfileInput{FullName: "Jane Smith"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	found, err := svc.MatchByName(ctx, "jane smith")
	if err != nil {
		t.Fatalf("MatchByName returned error: %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("expected profile %s, got %s", created.ID, found.ID)
	}

	if _, err := svc.MatchByName(ctx, "John Doe"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetOrCreateByEmail(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	first, err := svc.GetOrCreateByEmail(ctx, "alice@example.com", "Alice Jones")
	if err != nil {
		t.Fatalf("GetOrCreateByEmail returned error: %v", err)
	}
	if first.FullName != "Alice Jones" {
		t.Errorf("expected display name to seed the profile, got %q", first.FullName)
	}

	second, err := svc.GetOrCreateByEmail(ctx, "ALICE@example.com", "Different Name")
	if err != nil {
		t.Fatalf("GetOrCreateByEmail returned error: %v", err)
	}
	if second.ID != first.ID {
		t.Error("expected existing profile to be reused")
	}

	bare, err := svc.GetOrCreateByEmail(ctx, "bob@example.com", "")
	if err != nil {
		t.Fatalf("GetOrCreateByEmail returned error: %v", err)
	}
	if bare.FullName != "bob@example.com" {
		t.Errorf("expected email to seed the name when display name missing, got %q", bare.FullName)
	}
}

func TestListQueryAndLimit(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	for _, input := range []CreateProfileInput{
		{FullName: "Jane Smith", Company: "Acme"},
		{FullName: "John Doe", Company: "Globex"},
		{FullName: "Janet Acworth", Company: "Initech"},
	} {
		if _, err := svc.Create(ctx, input); err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
	}

	query := "jan"
	matched, err := svc.List(ctx, ListOptions{Query: &query})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(matched) != 2 {
		t.Fatalf("expected 2 matches for %q, got %d", query, len(matched))
	}

	limit := 1
	limited, err := svc.List(ctx, ListOptions{Limit: &limit})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected 1 profile with limit, got %d", len(limited))
	}
}

func TestDeleteRemovesProfile(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	profile, err := svc.Create(ctx, CreateProfileInput{FullName: "Jane Smith"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := svc.Delete(ctx, profile.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := svc.Get(ctx, profile.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
