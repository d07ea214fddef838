package store

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dukerupert/larder/internal/kv"
	"github.com/dukerupert/larder/internal/model"
)

// parallel runs fn n times concurrently and waits for every call.
func parallel(n int, fn func(i int)) {
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(i)
		}()
	}
	wg.Wait()
}

func TestConcurrentAddKeepsEveryItem(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := NewItemStore(backend, testLogger())
			const n = 25
			parallel(n, func(i int) {
				if _, _, err := s.Add(fmt.Sprintf("item %d", i)); err != nil {
					t.Errorf("add %d: %v", i, err)
				}
			})

			items, err := s.List()
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(items) != n {
				t.Errorf("stored %d items, want %d", len(items), n)
			}
		})
	}
}

func TestConcurrentAddSameNameBumpsOnce(t *testing.T) {
	s := NewItemStore(kv.NewMemory(), testLogger())
	const n = 30
	var created atomic.Int32
	parallel(n, func(int) {
		_, isNew, err := s.Add("Eggs")
		if err != nil {
			t.Errorf("add: %v", err)
		}
		if isNew {
			created.Add(1)
		}
	})

	items, _ := s.List()
	if len(items) != 1 || items[0].Quantity != n {
		t.Fatalf("items = %+v, want one record with quantity %d", items, n)
	}
	if created.Load() != 1 {
		t.Errorf("%d adds created a record, want 1", created.Load())
	}
}

func TestConcurrentToggleIsAtomic(t *testing.T) {
	s := NewItemStore(kv.NewMemory(), testLogger())
	item, _ := s.Create(model.ItemInput{Name: "Bread"})

	parallel(20, func(int) {
		if _, _, err := s.Toggle(item.ID); err != nil {
			t.Errorf("toggle: %v", err)
		}
	})

	got, _ := s.GetByID(item.ID)
	if got.Checked {
		t.Error("20 toggles left the item checked")
	}
}

func TestConcurrentReorderKeepsRecords(t *testing.T) {
	s := NewItemStore(kv.NewMemory(), testLogger())
	var ids []string
	for i := 0; i < 10; i++ {
		item, _ := s.Create(model.ItemInput{Name: fmt.Sprintf("item %d", i)})
		ids = append(ids, item.ID)
	}

	parallel(50, func(i int) {
		if err := s.Reorder(ids[i%10], ids[(i*3+1)%10]); err != nil {
			t.Errorf("reorder: %v", err)
		}
	})

	items, _ := s.List()
	seen := make(map[string]bool)
	for _, item := range items {
		seen[item.ID] = true
	}
	if len(items) != 10 || len(seen) != 10 {
		t.Fatalf("after reorders: %d records, %d distinct, want 10", len(items), len(seen))
	}
	for _, id := range ids {
		if !seen[id] {
			t.Errorf("item %s lost", id)
		}
	}
}

func TestConcurrentWritesToDifferentFields(t *testing.T) {
	s := NewItemStore(kv.NewMemory(), testLogger())
	item, _ := s.Create(model.ItemInput{Name: "Flour", Quantity: 20})

	parallel(20, func(i int) {
		if i%2 == 0 {
			if _, err := s.Decrement(item.ID); err != nil {
				t.Errorf("decrement: %v", err)
			}
			return
		}
		if _, err := s.Update(item.ID, model.ItemUpdate{Unit: ptr("kg")}); err != nil {
			t.Errorf("update: %v", err)
		}
	})

	got, _ := s.GetByID(item.ID)
	if got.Quantity != 10 || got.Unit != "kg" {
		t.Errorf("item = %+v, want quantity 10 and unit kg", got)
	}
}

// gatedStore blocks the first write to key after it is armed, until
// release is closed.
type gatedStore struct {
	kv.Store
	key     string
	armed   atomic.Bool
	once    sync.Once
	reached chan struct{}
	release chan struct{}
}

func newGatedStore(key string) *gatedStore {
	return &gatedStore{
		Store:   kv.NewMemory(),
		key:     key,
		reached: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (g *gatedStore) Set(key string, value []byte) error {
	if key == g.key && g.armed.Load() {
		g.once.Do(func() {
			close(g.reached)
			<-g.release
		})
	}
	return g.Store.Set(key, value)
}

func TestCategoryDeleteHoldsOffItemWrites(t *testing.T) {
	gate := newGatedStore(kv.KeyCategories)
	items := NewItemStore(gate, testLogger())
	cs := NewCategoryStore(gate, items, testLogger())
	cat, _ := cs.Create(model.CategoryInput{Name: "Bakery"})
	bread, _ := items.Create(model.ItemInput{Name: "Bread"})
	gate.armed.Store(true)

	deleted := make(chan error, 1)
	go func() { deleted <- cs.Delete(cat.ID) }()
	<-gate.reached

	updated := make(chan error, 1)
	go func() {
		_, err := items.Update(bread.ID, model.ItemUpdate{Category: &cat.ID})
		updated <- err
	}()

	select {
	case err := <-updated:
		t.Fatalf("item update finished during the category delete: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
	close(gate.release)

	if err := <-deleted; err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := <-updated; !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("update err = %v, want ErrUnknownCategory", err)
	}
	got, _ := items.GetByID(bread.ID)
	if got.Category != "" {
		t.Errorf("item category = %q, want none", got.Category)
	}
	if c, _ := cs.GetByID(cat.ID); c != nil {
		t.Error("category still stored")
	}
}

func TestConcurrentCategoryDeleteAndAssign(t *testing.T) {
	for round := 0; round < 20; round++ {
		mem := kv.NewMemory()
		items := NewItemStore(mem, testLogger())
		cs := NewCategoryStore(mem, items, testLogger())
		cat, _ := cs.Create(model.CategoryInput{Name: "Dairy"})
		milk, _ := items.Create(model.ItemInput{Name: "Milk"})

		parallel(2, func(i int) {
			if i == 0 {
				cs.Delete(cat.ID)
				return
			}
			items.Update(milk.ID, model.ItemUpdate{Category: &cat.ID})
		})

		got, _ := items.GetByID(milk.ID)
		stored, _ := cs.GetByID(cat.ID)
		if got.Category != "" && stored == nil {
			t.Fatalf("round %d: item references deleted category %q", round, got.Category)
		}
	}
}
