package intros

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// PostgresRepository persists introductions to a Postgres database.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository constructs a repository backed by sqlx.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const baseSelect = `
SELECT id, from_profile, to_profile, rationale, status, created_at, updated_at
FROM introductions
`

// Create inserts a new row and returns the stored representation.
func (r *PostgresRepository) Create(ctx context.Context, intro Intro) (Intro, error) {
	insert := `INSERT INTO introductions (id, from_profile, to_profile, rationale, status, created_at, updated_at)
VALUES (:id, :from_profile, :to_profile, :rationale, :status, :created_at, :updated_at)`

	if _, err := r.db.NamedExecContext(ctx, insert, intro); err != nil {
		return Intro{}, fmt.Errorf("insert introduction: %w", err)
	}

	return r.Get(ctx, intro.ID)
}

// Get retrieves a row by primary key.
func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (Intro, error) {
	var intro Intro
	if err := r.db.GetContext(ctx, &intro, baseSelect+" WHERE id = $1", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Intro{}, ErrNotFound
		}
		return Intro{}, fmt.Errorf("get introduction: %w", err)
	}
	return intro, nil
}

// List returns rows matching the options.
func (r *PostgresRepository) List(ctx context.Context, opts ListOptions) ([]Intro, error) {
	query := baseSelect + " WHERE 1=1"
	args := []interface{}{}

	if opts.Status != nil {
		args = append(args, *opts.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if opts.ProfileID != nil {
		args = append(args, *opts.ProfileID)
		query += fmt.Sprintf(" AND (from_profile = $%d OR to_profile = $%d)", len(args), len(args))
	}

	query += " ORDER BY created_at DESC"

	var list []Intro
	if err := r.db.SelectContext(ctx, &list, query, args...); err != nil {
		return nil, fmt.Errorf("list introductions: %w", err)
	}
	return list, nil
}

// Update replaces the mutable columns of an existing row.
func (r *PostgresRepository) Update(ctx context.Context, intro Intro) (Intro, error) {
	update := `UPDATE introductions
SET rationale = :rationale,
    status = :status,
    updated_at = :updated_at
WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, update, intro)
	if err != nil {
		return Intro{}, fmt.Errorf("update introduction: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return Intro{}, fmt.Errorf("update introduction rows affected: %w", err)
	}
	if affected == 0 {
		return Intro{}, ErrNotFound
	}

	return r.Get(ctx, intro.ID)
}

// Delete removes a row by primary key.
func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM introductions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete introduction: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete introduction rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
