package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// PostgresRepository persists profiles to a Postgres database.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository constructs a repository backed by sqlx.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const baseSelect = `
SELECT id, full_name, email, company, role, location, linkedin_url, how_met, interests, notes, created_at, updated_at
FROM profiles
`

// Create inserts a new row and returns the stored representation.
func (r *PostgresRepository) Create(ctx context.Context, profile Profile) (Profile, error) {
	insert := `INSERT INTO profiles (id, full_name, email, company, role, location, linkedin_url, how_met, interests, notes, created_at, updated_at)
VALUES (:id, :full_name, :email, :company, :role, :location, :linkedin_url, :how_met, :interests, :notes, :created_at, :updated_at)`

	if _, err := r.db.NamedExecContext(ctx, insert, profile); err != nil {
		return Profile{}, fmt.Errorf("insert profile: %w", err)
	}

	return r.Get(ctx, profile.ID)
}

// Get retrieves a row by primary key.
func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (Profile, error) {
	var profile Profile
	if err := r.db.GetContext(ctx, &profile, baseSelect+" WHERE id = $1", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return profile, nil
}

// List returns rows, optionally filtered by a free-text query across the
// name, email, company, role, and location columns.
func (r *PostgresRepository) List(ctx context.Context, opts ListOptions) ([]Profile, error) {
	query := baseSelect
	args := []interface{}{}

	if opts.Query != nil && *opts.Query != "" {
		query += ` WHERE full_name ILIKE $1 OR email ILIKE $1 OR company ILIKE $1 OR role ILIKE $1 OR location ILIKE $1`
		args = append(args, "%"+*opts.Query+"%")
	}

	query += " ORDER BY created_at DESC"

	var list []Profile
	if err := r.db.SelectContext(ctx, &list, query, args...); err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return list, nil
}

// Update replaces the mutable columns of an existing row.
func (r *PostgresRepository) Update(ctx context.Context, profile Profile) (Profile, error) {
	update := `UPDATE profiles
SET full_name = :full_name,
    email = :email,
    company = :company,
    role = :role,
    location = :location,
    linkedin_url = :linkedin_url,
    how_met = :how_met,
    interests = :interests,
    notes = :notes,
    updated_at = :updated_at
WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, update, profile)
	if err != nil {
		return Profile{}, fmt.Errorf("update profile: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return Profile{}, fmt.Errorf("update profile rows affected: %w", err)
	}
	if affected == 0 {
		return Profile{}, ErrNotFound
	}

	return r.Get(ctx, profile.ID)
}

// Delete removes a row by primary key.
func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete profile rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindByEmail retrieves the newest row with a matching email address.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (Profile, error) {
	var profile Profile
	err := r.db.GetContext(ctx, &profile, baseSelect+` WHERE email <> '' AND lower(email) = lower($1) ORDER BY created_at DESC LIMIT 1`, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, fmt.Errorf("find profile by email: %w", err)
	}
	return profile, nil
}

// FindByName retrieves the newest row with a matching full name.
func (r *PostgresRepository) FindByName(ctx context.Context, name string) (Profile, error) {
	var profile Profile
	err := r.db.GetContext(ctx, &profile, baseSelect+` WHERE lower(full_name) = lower($1) ORDER BY created_at DESC LIMIT 1`, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, fmt.Errorf("find profile by name: %w", err)
	}
	return profile, nil
}
