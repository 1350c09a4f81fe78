package mail

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// PostgresRepository persists the send history to a Postgres database.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository constructs a repository backed by sqlx.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a log entry.
func (r *PostgresRepository) Create(ctx context.Context, log EmailLog) (EmailLog, error) {
	insert := `INSERT INTO email_logs (id, profile_id, sender, recipient, subject, body, message_id, sent_at)
VALUES (:id, :profile_id, :sender, :recipient, :subject, :body, :message_id, :sent_at)`

	if _, err := r.db.NamedExecContext(ctx, insert, log); err != nil {
		return EmailLog{}, fmt.Errorf("insert email log: %w", err)
	}
	return log, nil
}

// List returns rows matching the options, newest first.
func (r *PostgresRepository) List(ctx context.Context, opts ListOptions) ([]EmailLog, error) {
	query := `SELECT id, profile_id, sender, recipient, subject, body, message_id, sent_at FROM email_logs WHERE 1=1`
	args := []interface{}{}

	if opts.ProfileID != nil {
		args = append(args, *opts.ProfileID)
		query += fmt.Sprintf(" AND profile_id = $%d", len(args))
	}

	query += " ORDER BY sent_at DESC"

	if opts.Limit != nil && *opts.Limit >= 0 {
		args = append(args, *opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	var list []EmailLog
	if err := r.db.SelectContext(ctx, &list, query, args...); err != nil {
		return nil, fmt.Errorf("list email logs: %w", err)
	}
	return list, nil
}
