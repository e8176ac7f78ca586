package repository

import (
	"context"
	"fmt"

	"github.com/graphconnect/graphconnect/internal/database"
	"github.com/graphconnect/graphconnect/internal/model"
)

// MailAuditRepository handles mail audit persistence
type MailAuditRepository struct {
	db *database.Postgres
}

// NewMailAuditRepository creates a new MailAuditRepository
func NewMailAuditRepository(db *database.Postgres) *MailAuditRepository {
	return &MailAuditRepository{db: db}
}

// Create inserts a new mail audit entry
func (r *MailAuditRepository) Create(ctx context.Context, entry *model.MailAudit) error {
	query := `
		INSERT INTO mail_audit (id, recipient, subject, mailbox, sent_by, status,
		    error_code, request_id, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.Recipient,
		entry.Subject,
		entry.Mailbox,
		entry.SentBy,
		entry.Status,
		entry.ErrorCode,
		entry.RequestID,
		entry.IPAddress,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create mail audit: %w", err)
	}
	return nil
}

// ListRecent returns the most recent entries, newest first
func (r *MailAuditRepository) ListRecent(ctx context.Context, limit int) ([]model.MailAudit, error) {
	if limit <= 0 {
		return nil, ErrInvalidInput
	}

	query := `
		SELECT id, recipient, subject, mailbox, sent_by, status,
		       error_code, request_id, ip_address, created_at
		FROM mail_audit
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query mail audit: %w", err)
	}
	defer rows.Close()

	entries := make([]model.MailAudit, 0, limit)
	for rows.Next() {
		var entry model.MailAudit
		err := rows.Scan(
			&entry.ID,
			&entry.Recipient,
			&entry.Subject,
			&entry.Mailbox,
			&entry.SentBy,
			&entry.Status,
			&entry.ErrorCode,
			&entry.RequestID,
			&entry.IPAddress,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mail audit: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate mail audit: %w", err)
	}
	return entries, nil
}
