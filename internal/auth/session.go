package auth

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
)

// sessionTTL is the fixed lifetime of a session token.
const sessionTTL = 24 * time.Hour

// SessionUser is the identity payload carried by a session token.
type SessionUser struct {
	Email   string `json:"email"`
	Sub     string `json:"sub"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
}

// sessionClaims are the private claims embedded alongside the registered set.
type sessionClaims struct {
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
}

// SessionIssuer mints and verifies signed session tokens. Sessions are
// stateless: validity is determined entirely by the signature and the
// embedded expiry, never by a server-side lookup.
type SessionIssuer struct {
	secret []byte
	now    func() time.Time
}

// NewSessionIssuer creates an issuer signing with a key derived from the
// given secret. An empty secret is refused outright rather than substituted
// with a default. HS256 requires a 32-byte key, so the configured secret is
// hashed rather than used raw.
func NewSessionIssuer(secret string) (*SessionIssuer, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: session signing secret is not configured", ErrConfiguration)
	}
	key := sha256.Sum256([]byte(secret))
	return &SessionIssuer{secret: key[:], now: time.Now}, nil
}

// Issue mints a signed session token for the given identity, valid for 24
// hours from issuance.
func (s *SessionIssuer) Issue(user SessionUser) (string, error) {
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.HS256, Key: s.secret},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return "", fmt.Errorf("create signer: %w", err)
	}

	now := s.now()
	registered := jwt.Claims{
		Subject:  user.Sub,
		IssuedAt: jwt.NewNumericDate(now),
		Expiry:   jwt.NewNumericDate(now.Add(sessionTTL)),
	}
	private := sessionClaims{
		Email:   user.Email,
		Name:    user.Name,
		Picture: user.Picture,
	}

	token, err := jwt.Signed(signer).Claims(registered).Claims(private).Serialize()
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return token, nil
}

// Verify checks the token's signature and expiry and returns the embedded
// identity. Expired tokens fail with ErrTokenExpired; anything malformed or
// bearing a bad signature fails with ErrTokenInvalid.
func (s *SessionIssuer) Verify(token string) (*SessionUser, error) {
	parsed, err := jwt.ParseSigned(token, []jose.SignatureAlgorithm{jose.HS256})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	var registered jwt.Claims
	var private sessionClaims
	if err := parsed.Claims(s.secret, &registered, &private); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if err := registered.Validate(jwt.Expected{Time: s.now()}); err != nil {
		if errors.Is(err, jwt.ErrExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if private.Email == "" {
		return nil, fmt.Errorf("%w: missing email claim", ErrTokenInvalid)
	}

	return &SessionUser{
		Email:   private.Email,
		Sub:     registered.Subject,
		Name:    private.Name,
		Picture: private.Picture,
	}, nil
}
