package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"testing"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_KeepsRecordsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open() failed: %v", err)
	}
	if err := s1.CreateTable(ctx, "people", "name"); err != nil {
		t.Fatalf("CreateTable() failed: %v", err)
	}
	if err := s1.Insert(ctx, "people", "p1", map[string]any{"name": "ann"}); err != nil {
		t.Fatalf("Insert() failed: %v", err)
	}
	s1.Close()

	for i := 0; i < 2; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("reopen %d failed: %v", i, err)
		}
		records, err := s.Find(ctx, "people", nil, FindOptions{})
		s.Close()
		if err != nil {
			t.Fatalf("Find() after reopen failed: %v", err)
		}
		if len(records) != 1 || records[0].ID != "p1" {
			t.Errorf("records after reopen = %+v, want p1", records)
		}
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestOpen_InMemory(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	defer s.Close()

	mode, err := s.pragma("journal_mode")
	if err != nil {
		t.Fatal(err)
	}
	if mode != "memory" {
		t.Errorf("journal_mode = %q, want memory", mode)
	}

	// Every statement must see the same database.
	ctx := context.Background()
	if err := s.CreateTable(ctx, "t", "a"); err != nil {
		t.Fatalf("CreateTable() failed: %v", err)
	}
	tables, err := s.Tables(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(tables, []string{"t"}) {
		t.Errorf("Tables() = %v, want [t]", tables)
	}
}

func TestIsMemory(t *testing.T) {
	tests := map[string]bool{
		":memory:":                   true,
		"file::memory:?cache=shared": true,
		"file:db?mode=memory":        true,
		"people.db":                  false,
		"/tmp/memory.db":             false,
	}
	for path, want := range tests {
		if got := isMemory(path); got != want {
			t.Errorf("isMemory(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestTables(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	tables, err := s.Tables(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if tables == nil || len(tables) != 0 {
		t.Errorf("Tables() on a new store = %#v, want empty non-nil", tables)
	}

	seedPeople(t, s)
	if err := s.CreateTable(ctx, "cities", "name"); err != nil {
		t.Fatal(err)
	}
	tables, err = s.Tables(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(tables, []string{"cities", "people"}) {
		t.Errorf("Tables() = %v, want [cities people]", tables)
	}
}

// Pragma tests

func TestPragmas(t *testing.T) {
	s := createTestStore(t)

	tests := []struct {
		name, want string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"}, // NORMAL
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.pragma(tt.name)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("%s = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

// Schema tests

func TestSchema_SavedQueriesTable(t *testing.T) {
	s := createTestStore(t)

	columns := getTableColumns(t, s.db, "saved_queries")
	for _, col := range []string{"name", "query", "fingerprint", "selectors"} {
		if !slices.Contains(columns, col) {
			t.Errorf("saved_queries table missing column %q", col)
		}
	}
}

// Migration tests

func TestMigration_SchemaVersion(t *testing.T) {
	s := createTestStore(t)

	version, err := userVersion(s.db)
	if err != nil {
		t.Fatal(err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, currentSchemaVersion)
	}
}

func TestMigration_UpgradeFromV0(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	db := rawDatabase(t, path, 0)
	db.Close()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	version, err := userVersion(s.db)
	if err != nil {
		t.Fatal(err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d after migration", version, currentSchemaVersion)
	}

	indexes := getTableIndexes(t, s.db, "saved_queries")
	if !slices.Contains(indexes, "idx_saved_queries_fingerprint") {
		t.Errorf("expected fingerprint index after migration, got indexes: %v", indexes)
	}
}

func TestMigration_RefusesNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	db := rawDatabase(t, path, currentSchemaVersion+1)
	db.Close()

	_, err := Open(path)
	if err == nil {
		t.Fatal("expected Open() to refuse a newer schema")
	}
	if !strings.Contains(err.Error(), "newer than supported") {
		t.Errorf("unexpected error: %v", err)
	}
}

// Helper functions

// rawDatabase creates the bookkeeping schema without migrations and stamps
// it with version.
func rawDatabase(t *testing.T, path string, version int) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = " + strconv.Itoa(version)); err != nil {
		t.Fatalf("failed to set user_version: %v", err)
	}
	return db
}

func getTableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		t.Fatalf("failed to get table info for %q: %v", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltValue any
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			t.Fatalf("failed to scan column info: %v", err)
		}
		columns = append(columns, name)
	}
	return columns
}

func getTableIndexes(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='index' AND tbl_name=?", table)
	if err != nil {
		t.Fatalf("failed to get indexes for %q: %v", table, err)
	}
	defer rows.Close()

	var indexes []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("failed to scan index name: %v", err)
		}
		indexes = append(indexes, name)
	}
	return indexes
}
