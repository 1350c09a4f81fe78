package auth

import (
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// expiryBuffer is how close to expiry a credential is treated as expired,
// so callers refresh before an in-flight API call can hit a dead token.
const expiryBuffer = 5 * time.Minute

// CredentialRecord is the durable form of one admin's delegated Google
// tokens, keyed by the authorized email.
type CredentialRecord struct {
	Identity     string    `db:"user_email"`
	AccessToken  string    `db:"access_token"`
	RefreshToken string    `db:"refresh_token"`
	Expiry       time.Time `db:"expiry"`
	TokenType    string    `db:"token_type"`
	IDToken      string    `db:"id_token"`
	Scope        string    `db:"scope"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// Expired reports whether the access token is unusable at the given time.
// A record with no recorded expiry is treated as expired.
func (r CredentialRecord) Expired(now time.Time) bool {
	if r.Expiry.IsZero() {
		return true
	}
	return !now.Before(r.Expiry.Add(-expiryBuffer))
}

// Scopes splits the space-delimited granted scope string.
func (r CredentialRecord) Scopes() []string {
	return strings.Fields(r.Scope)
}

// Token converts the record to an oauth2 token suitable for rehydrating a
// delegated client.
func (r CredentialRecord) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		Expiry:       r.Expiry,
		TokenType:    r.TokenType,
	}
}

// RecordFromToken builds a credential record from a freshly exchanged or
// refreshed oauth2 token. The provider's scope grant and ID token ride along
// in the token's extra fields.
func RecordFromToken(identity string, token *oauth2.Token) CredentialRecord {
	rec := CredentialRecord{
		Identity:     strings.ToLower(strings.TrimSpace(identity)),
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
		TokenType:    token.TokenType,
	}
	if rec.TokenType == "" {
		rec.TokenType = "Bearer"
	}
	if idToken, ok := token.Extra("id_token").(string); ok {
		rec.IDToken = idToken
	}
	if scope, ok := token.Extra("scope").(string); ok {
		rec.Scope = scope
	}
	return rec
}
