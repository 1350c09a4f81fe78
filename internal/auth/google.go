package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// googleScopes is the fixed capability set requested from Google: read the
// admin's calendar, send mail as them, and identify them.
var googleScopes = []string{
	oidc.ScopeOpenID,
	"https://www.googleapis.com/auth/calendar.readonly",
	"https://www.googleapis.com/auth/gmail.send",
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
}

const googleRevokeURL = "https://oauth2.googleapis.com/revoke"

// GoogleAuthenticator handles the Google OAuth 2.0 / OIDC flow: consent URL,
// code exchange, ID token verification, and provider-side revocation.
type GoogleAuthenticator struct {
	config     *oauth2.Config
	verifier   *oidc.IDTokenVerifier
	httpClient *http.Client
	revokeURL  string
}

// NewGoogleAuthenticator creates an authenticator from the configured client
// triple. Any missing piece is a configuration error.
func NewGoogleAuthenticator(ctx context.Context, clientID, clientSecret, redirectURL string) (*GoogleAuthenticator, error) {
	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return nil, fmt.Errorf("%w: Google client id, secret and redirect URI are required", ErrConfiguration)
	}

	provider, err := oidc.NewProvider(ctx, "https://accounts.google.com")
	if err != nil {
		return nil, fmt.Errorf("oidc provider: %w", err)
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     google.Endpoint,
		Scopes:       googleScopes,
	}

	return &GoogleAuthenticator{
		config:     config,
		verifier:   provider.Verifier(&oidc.Config{ClientID: clientID}),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		revokeURL:  googleRevokeURL,
	}, nil
}

// OAuthConfig exposes the underlying oauth2 config for rehydrating delegated
// clients from stored tokens.
func (g *GoogleAuthenticator) OAuthConfig() *oauth2.Config {
	return g.config
}

// AuthURL generates the Google consent URL with the given state. Offline
// access plus prompt=consent forces Google to issue a refresh token on every
// authorization, not just the first.
func (g *GoogleAuthenticator) AuthURL(state string) string {
	return g.config.AuthCodeURL(
		state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// Exchange trades the one-time authorization code for tokens and returns the
// verified identity claims alongside them.
func (g *GoogleAuthenticator) Exchange(ctx context.Context, code string) (*oauth2.Token, *GoogleClaims, error) {
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrAuthExchange, err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, nil, fmt.Errorf("%w: no id_token in response", ErrAuthExchange)
	}

	claims, err := g.VerifyIDToken(ctx, rawIDToken)
	if err != nil {
		return nil, nil, err
	}

	return token, claims, nil
}

// VerifyIDToken validates a raw Google ID token against this client's
// audience and returns its claims. Used both after the code exchange and for
// the extension's token-exchange endpoint.
func (g *GoogleAuthenticator) VerifyIDToken(ctx context.Context, rawIDToken string) (*GoogleClaims, error) {
	idToken, err := g.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("verify id_token: %w", err)
	}

	var claims GoogleClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("parse claims: %w", err)
	}

	return &claims, nil
}

// Revoke revokes the given token at Google's revocation endpoint.
func (g *GoogleAuthenticator) Revoke(ctx context.Context, token string) error {
	form := url.Values{"token": {token}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build revoke request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("revoke token: provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// GoogleClaims contains the relevant claims from a Google ID token.
type GoogleClaims struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// GenerateState generates a cryptographically secure random state string.
func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
