package store

import (
	"io"
	"log/slog"
	"testing"

	"github.com/dukerupert/larder/internal/database"
	"github.com/dukerupert/larder/internal/kv"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// backends returns a fresh store of every kind so tests can run against each.
func backends(t *testing.T) map[string]kv.Store {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return map[string]kv.Store{
		"memory": kv.NewMemory(),
		"sqlite": kv.NewSQLite(db),
	}
}

func itemNames(t *testing.T, s *ItemStore) []string {
	t.Helper()
	items, err := s.List()
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	names := make([]string, len(items))
	for i, item := range items {
		names[i] = item.Name
	}
	return names
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
