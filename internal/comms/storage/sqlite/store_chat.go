package sqlite

import (
	"context"
	"fmt"

	"github.com/harborlane/guestcomms/internal/comms/storage"
)

// ListChatMessagesForProperty returns team chat messages in channels scoped to
// the property, optionally restricted to one calendar month. Chat carries
// no guest attribution.
func (s *Store) ListChatMessagesForProperty(ctx context.Context, propertyID int64, window storage.MonthWindow) ([]storage.ChatMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	query := `
SELECT m.id, m.channel_id, ch.name, ch.property_id, m.author, m.sent_at, m.body
  FROM chat_messages m
  JOIN chat_channels ch ON m.channel_id = ch.id
 WHERE ch.property_id = ?`
	params := []any{propertyID}
	if clause, clauseParams := monthClause("m.sent_at", window); clause != "" {
		query += " AND " + clause
		params = append(params, clauseParams...)
	}
	query += `
 ORDER BY m.sent_at, m.id`

	rows, err := s.sqlDB.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("list chat messages for property: %w", err)
	}
	defer rows.Close()

	var messages []storage.ChatMessage
	for rows.Next() {
		var message storage.ChatMessage
		var sentAt string
		if err := rows.Scan(
			&message.ID,
			&message.ChannelID,
			&message.ChannelName,
			&message.PropertyID,
			&message.Author,
			&sentAt,
			&message.Body,
		); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		var err error
		if message.SentAt, err = parseTimestamp(sentAt); err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan chat messages: %w", err)
	}
	return messages, nil
}

var _ storage.ChatStore = (*Store)(nil)
