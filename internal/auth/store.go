package auth

import "context"

// CredentialStore persists at most one CredentialRecord per identity.
//
// Save is an atomic upsert. A save whose record carries an empty
// RefreshToken must keep any refresh token already stored for that identity:
// Google omits the refresh token on repeat consent, and dropping the stored
// one would silently break long-term access.
//
// Load returns (nil, nil) when no record exists; that is an expected state,
// not an error. Delete is idempotent.
type CredentialStore interface {
	Save(ctx context.Context, record CredentialRecord) error
	Load(ctx context.Context, identity string) (*CredentialRecord, error)
	Delete(ctx context.Context, identity string) error
}
