// Package sqliteschema applies embedded SQL scripts to a SQLite database.
//
// The communications store is built once from a fixed schema and seed, so
// there is no incremental-migration lifecycle: scripts run in lexical order,
// each inside its own transaction, and the first failure aborts the load.
package sqliteschema

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

// ApplyScripts executes every .sql file under root of scriptFS, in lexical
// filename order. Any execution error, including a constraint violation,
// rolls back the current script and is returned to the caller.
func ApplyScripts(ctx context.Context, sqlDB *sql.DB, scriptFS fs.FS, root string) error {
	if sqlDB == nil {
		return fmt.Errorf("sql db is required")
	}
	readRoot := strings.TrimSpace(root)
	if readRoot == "" {
		readRoot = "."
	}

	entries, err := fs.ReadDir(scriptFS, readRoot)
	if err != nil {
		return fmt.Errorf("read scripts dir: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		path := name
		if readRoot != "." {
			path = readRoot + "/" + name
		}
		content, err := fs.ReadFile(scriptFS, path)
		if err != nil {
			return fmt.Errorf("read script %s: %w", name, err)
		}
		if err := ExecScript(ctx, sqlDB, string(content)); err != nil {
			return fmt.Errorf("exec script %s: %w", name, err)
		}
	}
	return nil
}

// ExecScript runs one SQL script inside a single transaction.
func ExecScript(ctx context.Context, sqlDB *sql.DB, script string) error {
	if sqlDB == nil {
		return fmt.Errorf("sql db is required")
	}
	if strings.TrimSpace(script) == "" {
		return nil
	}

	tx, err := sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if _, err := tx.ExecContext(ctx, script); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
