package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/harborlane/guestcomms/internal/comms/storage"
)

const messagingSelect = `
SELECT m.id, m.conversation_id, c.reservation_id, r.guest_id, r.property_id,
       m.direction, m.sent_at, m.body
  FROM messaging_messages m
  JOIN messaging_conversations c ON m.conversation_id = c.id
  JOIN reservations r ON c.reservation_id = r.id`

// ListMessagingMessagesForGuest returns the guest's booking-platform messages with
// refs resolved through the conversation's reservation.
func (s *Store) ListMessagingMessagesForGuest(ctx context.Context, guestID int64) ([]storage.MessagingMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		messagingSelect+`
 WHERE r.guest_id = ?
 ORDER BY m.sent_at, m.id`,
		guestID,
	)
	if err != nil {
		return nil, fmt.Errorf("list messaging messages for guest: %w", err)
	}
	defer rows.Close()

	return scanMessagingMessages(rows)
}

// ListMessagingMessagesForProperty returns messages whose reservation is at the
// property, optionally restricted to one calendar month.
func (s *Store) ListMessagingMessagesForProperty(ctx context.Context, propertyID int64, window storage.MonthWindow) ([]storage.MessagingMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	query := messagingSelect + `
 WHERE r.property_id = ?`
	params := []any{propertyID}
	if clause, clauseParams := monthClause("m.sent_at", window); clause != "" {
		query += " AND " + clause
		params = append(params, clauseParams...)
	}
	query += `
 ORDER BY m.sent_at, m.id`

	rows, err := s.sqlDB.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("list messaging messages for property: %w", err)
	}
	defer rows.Close()

	return scanMessagingMessages(rows)
}

func scanMessagingMessages(rows *sql.Rows) ([]storage.MessagingMessage, error) {
	var messages []storage.MessagingMessage
	for rows.Next() {
		var message storage.MessagingMessage
		var sentAt string
		if err := rows.Scan(
			&message.ID,
			&message.ConversationID,
			&message.ReservationID,
			&message.GuestID,
			&message.PropertyID,
			&message.Direction,
			&sentAt,
			&message.Body,
		); err != nil {
			return nil, fmt.Errorf("scan messaging message: %w", err)
		}
		var err error
		if message.SentAt, err = parseTimestamp(sentAt); err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan messaging messages: %w", err)
	}
	return messages, nil
}

var _ storage.MessagingStore = (*Store)(nil)
