package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

func testAuthenticator() *GoogleAuthenticator {
	return &GoogleAuthenticator{
		config: &oauth2.Config{
			ClientID:     "client-id",
			ClientSecret: "client-secret",
			RedirectURL:  "https://brain.example.com/api/auth/google/callback",
			Endpoint:     google.Endpoint,
			Scopes:       googleScopes,
		},
		httpClient: &http.Client{Timeout: time.Second},
		revokeURL:  googleRevokeURL,
	}
}

func TestNewGoogleAuthenticatorRequiresFullClientTriple(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name                          string
		clientID, secret, redirectURI string
	}{
		{"missing client id", "", "secret", "https://x/cb"},
		{"missing client secret", "id", "", "https://x/cb"},
		{"missing redirect", "id", "secret", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewGoogleAuthenticator(ctx, tc.clientID, tc.secret, tc.redirectURI)
			if !errors.Is(err, ErrConfiguration) {
				t.Fatalf("expected ErrConfiguration, got %v", err)
			}
		})
	}
}

func TestAuthURLForcesOfflineConsent(t *testing.T) {
	g := testAuthenticator()

	rawURL := g.AuthURL("state-123")
	parsed, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("parse auth URL: %v", err)
	}

	query := parsed.Query()
	if query.Get("access_type") != "offline" {
		t.Fatalf("expected access_type=offline, got %q", query.Get("access_type"))
	}
	if query.Get("prompt") != "consent" {
		t.Fatalf("expected prompt=consent, got %q", query.Get("prompt"))
	}
	if query.Get("state") != "state-123" {
		t.Fatalf("state not propagated: %q", query.Get("state"))
	}

	scope := query.Get("scope")
	for _, want := range []string{"calendar.readonly", "gmail.send", "userinfo.email", "userinfo.profile"} {
		if !strings.Contains(scope, want) {
			t.Fatalf("scope %q missing %q", scope, want)
		}
	}
}

func TestRevokeCallsProviderEndpoint(t *testing.T) {
	var gotToken string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotToken = r.PostFormValue("token")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	g := testAuthenticator()
	g.revokeURL = server.URL

	if err := g.Revoke(context.Background(), "access-token"); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if gotToken != "access-token" {
		t.Fatalf("provider received token %q", gotToken)
	}
}

func TestRevokeSurfacesProviderFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_token"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	g := testAuthenticator()
	g.revokeURL = server.URL

	err := g.Revoke(context.Background(), "dead-token")
	if err == nil {
		t.Fatal("expected error from failed revoke")
	}
	if !strings.Contains(err.Error(), "400") {
		t.Fatalf("expected status in error, got %v", err)
	}
}

func TestGenerateStateIsUnique(t *testing.T) {
	a, err := GenerateState()
	if err != nil {
		t.Fatalf("GenerateState: %v", err)
	}
	b, err := GenerateState()
	if err != nil {
		t.Fatalf("GenerateState: %v", err)
	}
	if a == b {
		t.Fatal("expected distinct states")
	}
}
