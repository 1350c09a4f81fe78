// Package gapi is the delegated API invocation layer: it rehydrates a
// Google client from the admin's stored OAuth tokens and exposes the
// Calendar and Gmail operations the rest of the system consumes, normalized
// into domain types.
package gapi

import (
	"context"
	"fmt"
	"sync"

	"log/slog"

	"golang.org/x/oauth2"

	"networkbrain/internal/auth"
)

// ClientFactory builds delegated Calendar/Gmail clients from stored
// credentials. It is constructed once from configuration; there is no hidden
// process-wide client state.
type ClientFactory struct {
	oauth        *oauth2.Config
	store        auth.CredentialStore
	oversightBCC string
	maxResults   int64
	logger       *slog.Logger
}

// NewClientFactory creates a factory. oauthConfig carries the client
// id/secret used for transparent token refresh.
func NewClientFactory(oauthConfig *oauth2.Config, store auth.CredentialStore, oversightBCC string, maxResults int, logger *slog.Logger) *ClientFactory {
	return &ClientFactory{
		oauth:        oauthConfig,
		store:        store,
		oversightBCC: oversightBCC,
		maxResults:   int64(maxResults),
		logger:       logger,
	}
}

// TokenSource rehydrates an auto-refreshing token source for the identity's
// stored credential. Refreshed tokens are written back to the store so the
// next request starts from the newest access token.
func (f *ClientFactory) TokenSource(ctx context.Context, identity string) (oauth2.TokenSource, error) {
	record, err := f.store.Load(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("load credential: %w", err)
	}
	if record == nil {
		return nil, fmt.Errorf("%w: no stored credential for %s", ErrReauthorizationRequired, identity)
	}

	token := record.Token()
	return &persistingTokenSource{
		ctx:      ctx,
		inner:    f.oauth.TokenSource(ctx, token),
		store:    f.store,
		identity: identity,
		prior:    *record,
		last:     token.AccessToken,
		logger:   f.logger,
	}, nil
}

// persistingTokenSource wraps the oauth2 refreshing source and upserts any
// rotated token back into the credential store. Persistence failures are
// logged but never fail the API call itself.
type persistingTokenSource struct {
	ctx      context.Context
	inner    oauth2.TokenSource
	store    auth.CredentialStore
	identity string
	prior    auth.CredentialRecord
	logger   *slog.Logger

	mu   sync.Mutex
	last string
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, err := s.inner.Token()
	if err != nil {
		return nil, classifyError(err)
	}

	if token.AccessToken != s.last {
		record := auth.RecordFromToken(s.identity, token)
		// Refresh responses may omit the scope grant and ID token; carry
		// the stored values forward rather than blanking them.
		if record.Scope == "" {
			record.Scope = s.prior.Scope
		}
		if record.IDToken == "" {
			record.IDToken = s.prior.IDToken
		}
		if err := s.store.Save(s.ctx, record); err != nil {
			s.logger.Warn("failed to persist refreshed token", "email", s.identity, "error", err)
		} else {
			s.last = token.AccessToken
		}
	}

	return token, nil
}
