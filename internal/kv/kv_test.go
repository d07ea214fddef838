package kv

import (
	"testing"

	"github.com/dukerupert/larder/internal/database"
)

func setupSQLite(t *testing.T) *SQLite {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSQLite(db)
}

func TestStores(t *testing.T) {
	stores := map[string]Store{
		"memory": NewMemory(),
		"sqlite": setupSQLite(t),
	}

	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := s.Get(KeyItems); err != nil || ok {
				t.Fatalf("get absent: ok=%v err=%v", ok, err)
			}

			if err := s.Set(KeyItems, []byte(`[]`)); err != nil {
				t.Fatalf("set: %v", err)
			}
			if err := s.Set(KeyItems, []byte(`[{"id":"a"}]`)); err != nil {
				t.Fatalf("overwrite: %v", err)
			}

			v, ok, err := s.Get(KeyItems)
			if err != nil || !ok {
				t.Fatalf("get: ok=%v err=%v", ok, err)
			}
			if string(v) != `[{"id":"a"}]` {
				t.Errorf("value = %s, want last write", v)
			}

			if err := s.Delete(KeyItems); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if _, ok, _ := s.Get(KeyItems); ok {
				t.Error("expected key to be gone after delete")
			}
			if err := s.Delete("never-set"); err != nil {
				t.Errorf("delete missing key: %v", err)
			}
		})
	}
}

func TestMemoryReturnsCopies(t *testing.T) {
	m := NewMemory()
	in := []byte("abc")
	m.Set("k", in)
	in[0] = 'z'

	v, _, _ := m.Get("k")
	if string(v) != "abc" {
		t.Errorf("stored value mutated through caller slice: %s", v)
	}
	if m.Writes() != 1 {
		t.Errorf("writes = %d, want 1", m.Writes())
	}
}
