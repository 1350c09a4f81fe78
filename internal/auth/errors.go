package auth

import "errors"

// ErrConfiguration indicates missing or inconsistent auth configuration
// (signing secret, OAuth client credentials). Never carries secret values.
var ErrConfiguration = errors.New("auth configuration error")

// ErrAuthExchange indicates the authorization code exchange was rejected by
// the provider (invalid, expired, or already-used code).
var ErrAuthExchange = errors.New("authorization code exchange failed")

// ErrUnauthorized indicates an identity outside the admin allowlist.
var ErrUnauthorized = errors.New("identity not authorized")

// ErrTokenExpired indicates a session token past its expiry. Distinct from
// ErrTokenInvalid so callers can log the two cases separately.
var ErrTokenExpired = errors.New("session token expired")

// ErrTokenInvalid indicates a malformed session token or a bad signature.
var ErrTokenInvalid = errors.New("session token invalid")
