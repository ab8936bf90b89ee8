package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/harborlane/guestcomms/internal/comms/storage"
)

// ListCallsForGuest returns the guest's calls ordered by start time then id.
func (s *Store) ListCallsForGuest(ctx context.Context, guestID int64) ([]storage.Call, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, guest_id, direction, started_at, duration_seconds
		   FROM calls
		  WHERE guest_id = ?
		  ORDER BY started_at, id`,
		guestID,
	)
	if err != nil {
		return nil, fmt.Errorf("list calls for guest: %w", err)
	}
	defer rows.Close()

	return scanCalls(rows)
}

// ListCallsForProperty returns calls whose guest holds a reservation at the
// property. Calls carry no property of their own, so reservation scope is
// the only attribution available.
func (s *Store) ListCallsForProperty(ctx context.Context, propertyID int64, window storage.MonthWindow) ([]storage.Call, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	query := `
SELECT DISTINCT c.id, c.guest_id, c.direction, c.started_at, c.duration_seconds
  FROM calls c
  JOIN reservations r ON c.guest_id = r.guest_id
 WHERE r.property_id = ?`
	params := []any{propertyID}
	if clause, clauseParams := monthClause("c.started_at", window); clause != "" {
		query += " AND " + clause
		params = append(params, clauseParams...)
	}
	query += `
 ORDER BY c.started_at, c.id`

	rows, err := s.sqlDB.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("list calls for property: %w", err)
	}
	defer rows.Close()

	return scanCalls(rows)
}

// MostRecentCallForGuest returns the guest's latest call. Ties on start
// time resolve to the larger id, so the answer is deterministic.
func (s *Store) MostRecentCallForGuest(ctx context.Context, guestID int64) (storage.Call, error) {
	if err := ctx.Err(); err != nil {
		return storage.Call{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Call{}, fmt.Errorf("storage is not configured")
	}

	var call storage.Call
	var startedAt string
	err := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, guest_id, direction, started_at, duration_seconds
		   FROM calls
		  WHERE guest_id = ?
		  ORDER BY started_at DESC, id DESC
		  LIMIT 1`,
		guestID,
	).Scan(&call.ID, &call.GuestID, &call.Direction, &startedAt, &call.DurationSeconds)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Call{}, storage.ErrNotFound
		}
		return storage.Call{}, fmt.Errorf("most recent call for guest: %w", err)
	}
	if call.StartedAt, err = parseTimestamp(startedAt); err != nil {
		return storage.Call{}, err
	}
	return call, nil
}

// TranscriptForCall returns the call's transcript segments ordered
// ascending by offset.
func (s *Store) TranscriptForCall(ctx context.Context, callID int64) ([]storage.TranscriptSegment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, call_id, speaker, offset_seconds, text
		   FROM call_transcripts
		  WHERE call_id = ?
		  ORDER BY offset_seconds, id`,
		callID,
	)
	if err != nil {
		return nil, fmt.Errorf("transcript for call: %w", err)
	}
	defer rows.Close()

	var segments []storage.TranscriptSegment
	for rows.Next() {
		var segment storage.TranscriptSegment
		if err := rows.Scan(
			&segment.ID,
			&segment.CallID,
			&segment.Speaker,
			&segment.OffsetSeconds,
			&segment.Text,
		); err != nil {
			return nil, fmt.Errorf("scan transcript segment: %w", err)
		}
		segments = append(segments, segment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan transcript segments: %w", err)
	}
	return segments, nil
}

func scanCalls(rows *sql.Rows) ([]storage.Call, error) {
	var calls []storage.Call
	for rows.Next() {
		var call storage.Call
		var startedAt string
		if err := rows.Scan(
			&call.ID,
			&call.GuestID,
			&call.Direction,
			&startedAt,
			&call.DurationSeconds,
		); err != nil {
			return nil, fmt.Errorf("scan call: %w", err)
		}
		var err error
		if call.StartedAt, err = parseTimestamp(startedAt); err != nil {
			return nil, err
		}
		calls = append(calls, call)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan calls: %w", err)
	}
	return calls, nil
}

var _ storage.CallStore = (*Store)(nil)
