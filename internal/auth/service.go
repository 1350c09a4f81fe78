package auth

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"golang.org/x/oauth2"
)

// Authenticator is the provider-facing surface the Service depends on.
type Authenticator interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, *GoogleClaims, error)
	VerifyIDToken(ctx context.Context, rawIDToken string) (*GoogleClaims, error)
	Revoke(ctx context.Context, token string) error
}

// Service coordinates the OAuth lifecycle: consent, callback, status, and
// revocation. A nil google authenticator means the Google client is not
// configured; operations that need it fail with ErrConfiguration.
type Service struct {
	google    Authenticator
	store     CredentialStore
	sessions  *SessionIssuer
	allowlist Allowlist
	logger    *slog.Logger
}

// NewService creates an auth Service.
func NewService(google Authenticator, store CredentialStore, sessions *SessionIssuer, allowlist Allowlist, logger *slog.Logger) *Service {
	return &Service{
		google:    google,
		store:     store,
		sessions:  sessions,
		allowlist: allowlist,
		logger:    logger,
	}
}

// Sessions exposes the issuer for the HTTP middleware.
func (s *Service) Sessions() *SessionIssuer {
	return s.sessions
}

// IsAllowed reports whether the identity is on the admin allowlist.
func (s *Service) IsAllowed(email string) bool {
	return s.allowlist.IsAllowed(email)
}

// LoginURL returns the provider consent URL for the given CSRF state.
func (s *Service) LoginURL(state string) (string, error) {
	if s.google == nil {
		return "", fmt.Errorf("%w: Google client is not configured", ErrConfiguration)
	}
	return s.google.AuthURL(state), nil
}

// HandleCallback completes the OAuth flow: it exchanges the code, checks the
// verified identity against the allowlist, persists the delegated tokens,
// and mints a session token. Nothing is persisted for rejected identities.
func (s *Service) HandleCallback(ctx context.Context, code string) (string, SessionUser, error) {
	if s.google == nil {
		return "", SessionUser{}, fmt.Errorf("%w: Google client is not configured", ErrConfiguration)
	}

	token, claims, err := s.google.Exchange(ctx, code)
	if err != nil {
		return "", SessionUser{}, err
	}

	if !claims.EmailVerified {
		return "", SessionUser{}, fmt.Errorf("%w: email %s is not verified", ErrUnauthorized, claims.Email)
	}

	if !s.allowlist.IsAllowed(claims.Email) {
		s.logger.Warn("callback rejected: identity not on allowlist", "email", claims.Email)
		return "", SessionUser{}, fmt.Errorf("%w: %s", ErrUnauthorized, claims.Email)
	}

	if err := s.store.Save(ctx, RecordFromToken(claims.Email, token)); err != nil {
		return "", SessionUser{}, fmt.Errorf("save credential: %w", err)
	}

	user := SessionUser{
		Email:   claims.Email,
		Sub:     claims.Sub,
		Name:    claims.Name,
		Picture: claims.Picture,
	}

	session, err := s.sessions.Issue(user)
	if err != nil {
		return "", SessionUser{}, fmt.Errorf("issue session: %w", err)
	}

	s.logger.Info("oauth login successful", "email", user.Email)
	return session, user, nil
}

// ExchangeIDToken verifies a provider ID token presented by a non-browser
// client and, if the identity is allowlisted, returns an app session token.
// No delegated credential is persisted on this path.
func (s *Service) ExchangeIDToken(ctx context.Context, rawIDToken string) (string, error) {
	if s.google == nil {
		return "", fmt.Errorf("%w: Google client is not configured", ErrConfiguration)
	}

	claims, err := s.google.VerifyIDToken(ctx, rawIDToken)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if !s.allowlist.IsAllowed(claims.Email) {
		s.logger.Warn("token exchange rejected: identity not on allowlist", "email", claims.Email)
		return "", fmt.Errorf("%w: %s", ErrUnauthorized, claims.Email)
	}

	return s.sessions.Issue(SessionUser{
		Email:   claims.Email,
		Sub:     claims.Sub,
		Name:    claims.Name,
		Picture: claims.Picture,
	})
}

// Status describes the authentication state for the status endpoint. Raw
// token values are never included.
type Status struct {
	Authenticated   bool        `json:"authenticated"`
	User            SessionUser `json:"user"`
	GoogleConnected bool        `json:"google_connected"`
	Scopes          []string    `json:"scopes,omitempty"`
	TokenExpiresAt  *time.Time  `json:"token_expires_at,omitempty"`
	NeedsRefresh    bool        `json:"needs_refresh,omitempty"`
}

// Status reports whether the session's identity has a stored delegated
// credential and what it grants. A valid session without a credential is a
// normal state (Google not connected yet, or revoked).
func (s *Service) Status(ctx context.Context, user SessionUser) (Status, error) {
	status := Status{Authenticated: true, User: user}

	record, err := s.store.Load(ctx, user.Email)
	if err != nil {
		return Status{}, fmt.Errorf("load credential: %w", err)
	}
	if record == nil {
		return status, nil
	}

	status.GoogleConnected = true
	status.Scopes = record.Scopes()
	status.NeedsRefresh = record.Expired(time.Now())
	if !record.Expiry.IsZero() {
		expiry := record.Expiry
		status.TokenExpiresAt = &expiry
	}
	return status, nil
}

// RevokeResult reports the outcome of a revocation. RemoteRevoked false with
// Revoked true means the provider call failed but local state is gone.
type RevokeResult struct {
	Revoked       bool
	RemoteRevoked bool
	Message       string
}

// Revoke revokes the identity's delegated grant. The local credential is
// deleted regardless of the provider call's outcome so a failed remote
// revoke can never leave the admin looking connected.
func (s *Service) Revoke(ctx context.Context, identity string) (RevokeResult, error) {
	record, err := s.store.Load(ctx, identity)
	if err != nil {
		return RevokeResult{}, fmt.Errorf("load credential: %w", err)
	}
	if record == nil {
		return RevokeResult{
			Revoked:       true,
			RemoteRevoked: true,
			Message:       "No active Google connection found",
		}, nil
	}

	remoteOK := true
	if s.google != nil {
		if err := s.google.Revoke(ctx, record.AccessToken); err != nil {
			s.logger.Warn("provider-side revoke failed", "email", identity, "error", err)
			remoteOK = false
		}
	} else {
		remoteOK = false
	}

	if err := s.store.Delete(ctx, identity); err != nil {
		return RevokeResult{}, fmt.Errorf("delete credential: %w", err)
	}

	result := RevokeResult{Revoked: true, RemoteRevoked: remoteOK}
	if remoteOK {
		result.Message = "Google access successfully revoked"
	} else {
		result.Message = "Token may not have been revoked with Google, but local credentials were removed"
	}

	s.logger.Info("google access revoked", "email", identity, "remote", remoteOK)
	return result, nil
}
