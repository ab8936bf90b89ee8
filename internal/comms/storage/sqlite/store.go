package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/harborlane/guestcomms/internal/comms/storage"
	"github.com/harborlane/guestcomms/internal/comms/storage/sqlite/schema"
	"github.com/harborlane/guestcomms/internal/platform/storage/sqliteschema"
	_ "modernc.org/sqlite"
)

const (
	timestampLayout = time.RFC3339
	dateLayout      = "2006-01-02"
)

// Store reads the communications database. It is built once from schema and
// seed, then treated as read-only for the query session.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a SQLite communications store and applies the embedded schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqliteschema.ApplyScripts(context.Background(), sqlDB, schema.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// LoadScript executes one SQL script against the store, typically the seed.
// Constraint violations abort the script and surface as integrity errors.
func (s *Store) LoadScript(ctx context.Context, script string) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if err := sqliteschema.ExecScript(ctx, s.sqlDB, script); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrIntegrity, err)
	}
	return nil
}

// VerifyIntegrity checks cross-table invariants the schema cannot express:
// every transcript segment must fit inside its call's duration.
func (s *Store) VerifyIntegrity(ctx context.Context) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	var overruns int
	err := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT COUNT(*)
		   FROM call_transcripts t
		   JOIN calls c ON t.call_id = c.id
		  WHERE t.offset_seconds > c.duration_seconds`,
	).Scan(&overruns)
	if err != nil {
		return fmt.Errorf("check transcript offsets: %w", err)
	}
	if overruns > 0 {
		return fmt.Errorf("%w: %d transcript segments exceed their call duration", storage.ErrIntegrity, overruns)
	}
	return nil
}

// TableCount pairs a table name with its row count for load reporting.
type TableCount struct {
	Table string
	Rows  int64
}

// RowCounts reports the row count of every seeded table, in schema order.
func (s *Store) RowCounts(ctx context.Context) ([]TableCount, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	tables := []string{
		"guests", "properties", "reservations",
		"messaging_conversations", "messaging_messages",
		"calls", "call_transcripts",
		"email_threads", "emails",
		"chat_channels", "chat_messages",
	}
	counts := make([]TableCount, 0, len(tables))
	for _, table := range tables {
		var rows int64
		if err := s.sqlDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&rows); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		counts = append(counts, TableCount{Table: table, Rows: rows})
	}
	return counts, nil
}

func parseTimestamp(value string) (time.Time, error) {
	ts, err := time.Parse(timestampLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", value, err)
	}
	return ts, nil
}

func parseDate(value string) (time.Time, error) {
	day, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", value, err)
	}
	return day, nil
}

// monthClause returns a condition restricting column to the window's
// calendar month, or an empty clause for an unbounded window. Timestamps are
// RFC3339 text, so the month is the first seven characters as stored.
func monthClause(column string, window storage.MonthWindow) (string, []any) {
	if window.IsZero() {
		return "", nil
	}
	return fmt.Sprintf("substr(%s, 1, 7) = ?", column), []any{window.Key()}
}
