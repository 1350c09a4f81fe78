package auth

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"log/slog"

	"golang.org/x/oauth2"
)

type fakeAuthenticator struct {
	exchangeToken  *oauth2.Token
	exchangeClaims *GoogleClaims
	exchangeErr    error
	verifyClaims   *GoogleClaims
	verifyErr      error
	revokeErr      error
	revokedTokens  []string
}

func (f *fakeAuthenticator) AuthURL(state string) string {
	return "https://accounts.google.com/o/oauth2/auth?state=" + state
}

func (f *fakeAuthenticator) Exchange(_ context.Context, code string) (*oauth2.Token, *GoogleClaims, error) {
	if f.exchangeErr != nil {
		return nil, nil, f.exchangeErr
	}
	return f.exchangeToken, f.exchangeClaims, nil
}

func (f *fakeAuthenticator) VerifyIDToken(_ context.Context, raw string) (*GoogleClaims, error) {
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return f.verifyClaims, nil
}

func (f *fakeAuthenticator) Revoke(_ context.Context, token string) error {
	f.revokedTokens = append(f.revokedTokens, token)
	return f.revokeErr
}

func newTestService(t *testing.T, google Authenticator, store CredentialStore) *Service {
	t.Helper()
	issuer, err := NewSessionIssuer("test-secret")
	if err != nil {
		t.Fatalf("NewSessionIssuer: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(google, store, issuer, NewAllowlist([]string{"admin@x.com"}), logger)
}

func adminToken() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		Expiry:       time.Now().Add(time.Hour),
		TokenType:    "Bearer",
	}
}

func adminClaims() *GoogleClaims {
	return &GoogleClaims{
		Sub:           "123",
		Email:         "admin@x.com",
		EmailVerified: true,
		Name:          "Admin",
	}
}

func TestHandleCallbackMintsSessionAndPersistsCredential(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	google := &fakeAuthenticator{exchangeToken: adminToken(), exchangeClaims: adminClaims()}
	svc := newTestService(t, google, store)

	session, user, err := svc.HandleCallback(ctx, "code")
	if err != nil {
		t.Fatalf("HandleCallback: %v", err)
	}
	if user.Email != "admin@x.com" || user.Sub != "123" {
		t.Fatalf("unexpected session user %+v", user)
	}

	verified, err := svc.Sessions().Verify(session)
	if err != nil {
		t.Fatalf("minted session did not verify: %v", err)
	}
	if verified.Email != "admin@x.com" {
		t.Fatalf("unexpected verified email %q", verified.Email)
	}

	record, err := store.Load(ctx, "admin@x.com")
	if err != nil || record == nil {
		t.Fatalf("expected persisted credential, got %+v err %v", record, err)
	}
	if record.RefreshToken != "refresh-token" {
		t.Fatalf("refresh token not stored: %q", record.RefreshToken)
	}
}

func TestHandleCallbackRejectsUnlistedIdentityWithoutPersisting(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	claims := adminClaims()
	claims.Email = "intruder@x.com"
	google := &fakeAuthenticator{exchangeToken: adminToken(), exchangeClaims: claims}
	svc := newTestService(t, google, store)

	_, _, err := svc.HandleCallback(ctx, "code")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	record, _ := store.Load(ctx, "intruder@x.com")
	if record != nil {
		t.Fatal("credential must not be persisted for rejected identity")
	}
}

func TestHandleCallbackRejectsUnverifiedEmail(t *testing.T) {
	claims := adminClaims()
	claims.EmailVerified = false
	google := &fakeAuthenticator{exchangeToken: adminToken(), exchangeClaims: claims}
	svc := newTestService(t, google, NewInMemoryStore())

	_, _, err := svc.HandleCallback(context.Background(), "code")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestHandleCallbackSurfacesExchangeError(t *testing.T) {
	google := &fakeAuthenticator{exchangeErr: ErrAuthExchange}
	svc := newTestService(t, google, NewInMemoryStore())

	_, _, err := svc.HandleCallback(context.Background(), "stale-code")
	if !errors.Is(err, ErrAuthExchange) {
		t.Fatalf("expected ErrAuthExchange, got %v", err)
	}
}

func TestHandleCallbackWithoutGoogleClient(t *testing.T) {
	svc := newTestService(t, nil, NewInMemoryStore())

	_, _, err := svc.HandleCallback(context.Background(), "code")
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestReconnectPreservesRefreshToken(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	google := &fakeAuthenticator{exchangeToken: adminToken(), exchangeClaims: adminClaims()}
	svc := newTestService(t, google, store)

	if _, _, err := svc.HandleCallback(ctx, "code-1"); err != nil {
		t.Fatalf("first HandleCallback: %v", err)
	}

	// Second exchange omits the refresh token.
	google.exchangeToken = &oauth2.Token{
		AccessToken: "access-token-2",
		Expiry:      time.Now().Add(time.Hour),
		TokenType:   "Bearer",
	}
	if _, _, err := svc.HandleCallback(ctx, "code-2"); err != nil {
		t.Fatalf("second HandleCallback: %v", err)
	}

	record, _ := store.Load(ctx, "admin@x.com")
	if record.AccessToken != "access-token-2" {
		t.Fatalf("access token not replaced: %q", record.AccessToken)
	}
	if record.RefreshToken != "refresh-token" {
		t.Fatalf("refresh token lost on reconnect: %q", record.RefreshToken)
	}
}

func TestExchangeIDTokenEnforcesAllowlist(t *testing.T) {
	google := &fakeAuthenticator{verifyClaims: &GoogleClaims{Sub: "999", Email: "intruder@x.com", EmailVerified: true}}
	svc := newTestService(t, google, NewInMemoryStore())

	_, err := svc.ExchangeIDToken(context.Background(), "raw-id-token")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestExchangeIDTokenIssuesSession(t *testing.T) {
	google := &fakeAuthenticator{verifyClaims: adminClaims()}
	svc := newTestService(t, google, NewInMemoryStore())

	token, err := svc.ExchangeIDToken(context.Background(), "raw-id-token")
	if err != nil {
		t.Fatalf("ExchangeIDToken: %v", err)
	}
	user, err := svc.Sessions().Verify(token)
	if err != nil || user.Email != "admin@x.com" {
		t.Fatalf("session not usable: %+v err %v", user, err)
	}
}

func TestStatusWithoutCredential(t *testing.T) {
	svc := newTestService(t, &fakeAuthenticator{}, NewInMemoryStore())

	status, err := svc.Status(context.Background(), SessionUser{Email: "admin@x.com", Sub: "123"})
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Authenticated || status.GoogleConnected {
		t.Fatalf("expected authenticated but not connected, got %+v", status)
	}
}

func TestStatusWithCredential(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	expiry := time.Now().Add(time.Hour)
	_ = store.Save(ctx, CredentialRecord{
		Identity:    "admin@x.com",
		AccessToken: "a",
		Expiry:      expiry,
		Scope:       "https://www.googleapis.com/auth/calendar.readonly https://www.googleapis.com/auth/gmail.send",
	})
	svc := newTestService(t, &fakeAuthenticator{}, store)

	status, err := svc.Status(ctx, SessionUser{Email: "admin@x.com"})
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.GoogleConnected {
		t.Fatal("expected google_connected")
	}
	if len(status.Scopes) != 2 {
		t.Fatalf("unexpected scopes %v", status.Scopes)
	}
	if status.TokenExpiresAt == nil || !status.TokenExpiresAt.Equal(expiry) {
		t.Fatalf("unexpected expiry %v", status.TokenExpiresAt)
	}
}

func TestRevokeWithNoCredential(t *testing.T) {
	google := &fakeAuthenticator{}
	svc := newTestService(t, google, NewInMemoryStore())

	result, err := svc.Revoke(context.Background(), "admin@x.com")
	if err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if !result.Revoked {
		t.Fatal("expected trivial success")
	}
	if len(google.revokedTokens) != 0 {
		t.Fatal("provider revoke must not be called without a credential")
	}
}

func TestRevokeDeletesLocallyEvenWhenProviderFails(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	_ = store.Save(ctx, CredentialRecord{Identity: "admin@x.com", AccessToken: "access-token"})
	google := &fakeAuthenticator{revokeErr: errors.New("provider unavailable")}
	svc := newTestService(t, google, store)

	result, err := svc.Revoke(ctx, "admin@x.com")
	if err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if !result.Revoked || result.RemoteRevoked {
		t.Fatalf("expected local-only revoke, got %+v", result)
	}

	record, _ := store.Load(ctx, "admin@x.com")
	if record != nil {
		t.Fatal("local credential must be deleted despite provider failure")
	}
}

func TestRevokeFullSuccess(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	_ = store.Save(ctx, CredentialRecord{Identity: "admin@x.com", AccessToken: "access-token"})
	google := &fakeAuthenticator{}
	svc := newTestService(t, google, store)

	result, err := svc.Revoke(ctx, "admin@x.com")
	if err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if !result.RemoteRevoked {
		t.Fatalf("expected remote revoke success, got %+v", result)
	}
	if len(google.revokedTokens) != 1 || google.revokedTokens[0] != "access-token" {
		t.Fatalf("unexpected revoked tokens %v", google.revokedTokens)
	}
}
