package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// PostgresStore implements CredentialStore using PostgreSQL.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Save upserts the record in a single statement so concurrent saves for the
// same identity cannot interleave a read-modify-write. COALESCE(NULLIF(...))
// keeps the stored refresh token when the new record has none.
func (s *PostgresStore) Save(ctx context.Context, record CredentialRecord) error {
	const query = `
		INSERT INTO google_tokens (user_email, access_token, refresh_token, expiry, token_type, id_token, scope, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_email) DO UPDATE SET
			access_token  = EXCLUDED.access_token,
			refresh_token = COALESCE(NULLIF(EXCLUDED.refresh_token, ''), google_tokens.refresh_token),
			expiry        = EXCLUDED.expiry,
			token_type    = EXCLUDED.token_type,
			id_token      = EXCLUDED.id_token,
			scope         = EXCLUDED.scope,
			updated_at    = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		storeKey(record.Identity),
		record.AccessToken,
		record.RefreshToken,
		nullableTime(record.Expiry),
		record.TokenType,
		record.IDToken,
		record.Scope,
		time.Now(),
	)
	return err
}

// Load returns the stored record, or nil when the identity has none.
func (s *PostgresStore) Load(ctx context.Context, identity string) (*CredentialRecord, error) {
	const query = `
		SELECT user_email, access_token, refresh_token, expiry, token_type, id_token, scope, updated_at
		FROM google_tokens
		WHERE user_email = $1
	`

	var row credentialRow
	if err := s.db.GetContext(ctx, &row, query, storeKey(identity)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return row.toRecord(), nil
}

// Delete removes the record. Absent rows are not an error.
func (s *PostgresStore) Delete(ctx context.Context, identity string) error {
	const query = `DELETE FROM google_tokens WHERE user_email = $1`
	_, err := s.db.ExecContext(ctx, query, storeKey(identity))
	return err
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// credentialRow is the database row representation of CredentialRecord.
type credentialRow struct {
	Identity     string       `db:"user_email"`
	AccessToken  string       `db:"access_token"`
	RefreshToken string       `db:"refresh_token"`
	Expiry       sql.NullTime `db:"expiry"`
	TokenType    string       `db:"token_type"`
	IDToken      string       `db:"id_token"`
	Scope        string       `db:"scope"`
	UpdatedAt    time.Time    `db:"updated_at"`
}

func (r *credentialRow) toRecord() *CredentialRecord {
	record := &CredentialRecord{
		Identity:     strings.ToLower(r.Identity),
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		TokenType:    r.TokenType,
		IDToken:      r.IDToken,
		Scope:        r.Scope,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.Expiry.Valid {
		record.Expiry = r.Expiry.Time
	}
	return record
}
