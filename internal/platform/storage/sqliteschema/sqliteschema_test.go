package sqliteschema

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func openTempDB(t *testing.T) *sql.DB {
	t.Helper()

	sqlDB, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "schema.db")+"?_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := sqlDB.Close(); err != nil {
			t.Fatalf("close db: %v", err)
		}
	})
	return sqlDB
}

func TestApplyScriptsRunsInLexicalOrder(t *testing.T) {
	t.Parallel()

	sqlDB := openTempDB(t)
	scripts := fstest.MapFS{
		"002_rows.sql":   {Data: []byte(`INSERT INTO items (name) VALUES ('first');`)},
		"001_tables.sql": {Data: []byte(`CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT NOT NULL);`)},
	}

	if err := ApplyScripts(context.Background(), sqlDB, scripts, ""); err != nil {
		t.Fatalf("apply scripts: %v", err)
	}

	var count int
	if err := sqlDB.QueryRow("SELECT COUNT(*) FROM items").Scan(&count); err != nil {
		t.Fatalf("count items: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
}

func TestApplyScriptsFailsOnConstraintViolation(t *testing.T) {
	t.Parallel()

	sqlDB := openTempDB(t)
	scripts := fstest.MapFS{
		"001_tables.sql": {Data: []byte(`
CREATE TABLE owners (id INTEGER PRIMARY KEY);
CREATE TABLE pets (
    id INTEGER PRIMARY KEY,
    owner_id INTEGER NOT NULL REFERENCES owners(id)
);`)},
		"002_rows.sql": {Data: []byte(`INSERT INTO pets (owner_id) VALUES (99);`)},
	}

	err := ApplyScripts(context.Background(), sqlDB, scripts, "")
	if err == nil {
		t.Fatal("expected foreign key violation")
	}
	if !strings.Contains(err.Error(), "002_rows.sql") {
		t.Fatalf("expected failing script name in error, got %v", err)
	}
}

func TestExecScriptRollsBackOnError(t *testing.T) {
	t.Parallel()

	sqlDB := openTempDB(t)
	if err := ExecScript(context.Background(), sqlDB, `CREATE TABLE things (id INTEGER PRIMARY KEY);`); err != nil {
		t.Fatalf("create table: %v", err)
	}

	script := `
INSERT INTO things (id) VALUES (1);
INSERT INTO things (id) VALUES (1);`
	if err := ExecScript(context.Background(), sqlDB, script); err == nil {
		t.Fatal("expected duplicate key error")
	}

	var count int
	if err := sqlDB.QueryRow("SELECT COUNT(*) FROM things").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("count = %d, want 0 after rollback", count)
	}
}

func TestExecScriptIgnoresEmptyScript(t *testing.T) {
	t.Parallel()

	sqlDB := openTempDB(t)
	if err := ExecScript(context.Background(), sqlDB, "   \n"); err != nil {
		t.Fatalf("empty script: %v", err)
	}
}
