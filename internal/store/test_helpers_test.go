package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/paulmach/orb"

	tu "github.com/roach88/sieve/internal/testutil"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seedPeople creates a "people" table with four records.
func seedPeople(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	if err := s.CreateTable(ctx, "people", "name", "age"); err != nil {
		t.Fatalf("CreateTable() failed: %v", err)
	}

	people := map[string]map[string]any{
		"p1": tu.Record("name", "ann", "age", 31, "active", true, "address.city", "Oslo",
			"joined", time.Date(2020, 1, 5, 10, 0, 0, 0, time.UTC), "home", orb.Point{1, 1}),
		"p2": tu.Record("name", "bob", "age", 17, "active", false, "address.city", "Bergen",
			"joined", time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)),
		"p3": tu.Record("name", "bobby", "age", 45, "active", true, "score", 9.5),
		"p4": tu.Record("name", "carl", "age", 28, "address.city", "Oslo"),
	}
	for id, rec := range people {
		if err := s.Insert(ctx, "people", id, rec); err != nil {
			t.Fatalf("Insert(%s) failed: %v", id, err)
		}
	}
}
