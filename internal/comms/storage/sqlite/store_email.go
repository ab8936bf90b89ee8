package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/harborlane/guestcomms/internal/comms/storage"
)

// Threads may be unlinked, so reservation-derived refs coalesce to zero.
const emailSelect = `
SELECT e.id, e.thread_id,
       COALESCE(t.reservation_id, 0), COALESCE(r.guest_id, 0), COALESCE(r.property_id, 0),
       e.from_address, e.subject, e.body, e.sent_at
  FROM emails e
  JOIN email_threads t ON e.thread_id = t.id
  LEFT JOIN reservations r ON t.reservation_id = r.id`

// ListEmailsForGuest returns emails whose thread's reservation belongs to
// the guest.
func (s *Store) ListEmailsForGuest(ctx context.Context, guestID int64) ([]storage.EmailMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		emailSelect+`
 WHERE r.guest_id = ?
 ORDER BY e.sent_at, e.id`,
		guestID,
	)
	if err != nil {
		return nil, fmt.Errorf("list emails for guest: %w", err)
	}
	defer rows.Close()

	return scanEmails(rows)
}

// ListEmailsForProperty returns emails whose thread's reservation is at the
// property, optionally restricted to one calendar month.
func (s *Store) ListEmailsForProperty(ctx context.Context, propertyID int64, window storage.MonthWindow) ([]storage.EmailMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	query := emailSelect + `
 WHERE r.property_id = ?`
	params := []any{propertyID}
	if clause, clauseParams := monthClause("e.sent_at", window); clause != "" {
		query += " AND " + clause
		params = append(params, clauseParams...)
	}
	query += `
 ORDER BY e.sent_at, e.id`

	rows, err := s.sqlDB.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("list emails for property: %w", err)
	}
	defer rows.Close()

	return scanEmails(rows)
}

func scanEmails(rows *sql.Rows) ([]storage.EmailMessage, error) {
	var emails []storage.EmailMessage
	for rows.Next() {
		var email storage.EmailMessage
		var sentAt string
		if err := rows.Scan(
			&email.ID,
			&email.ThreadID,
			&email.ReservationID,
			&email.GuestID,
			&email.PropertyID,
			&email.FromAddress,
			&email.Subject,
			&email.Body,
			&sentAt,
		); err != nil {
			return nil, fmt.Errorf("scan email: %w", err)
		}
		var err error
		if email.SentAt, err = parseTimestamp(sentAt); err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan emails: %w", err)
	}
	return emails, nil
}

var _ storage.EmailStore = (*Store)(nil)
