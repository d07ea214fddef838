package store

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/dukerupert/larder/internal/kv"
	"github.com/dukerupert/larder/internal/model"
)

// ErrUnknownCategory rejects pointing an item at a category that does not
// exist.
var ErrUnknownCategory = errors.New("unknown category")

type ItemStore struct {
	items *collection[model.Item]
	// categoryExists is bound by NewCategoryStore. It is called with the
	// items lock held; the lock order is always items, then categories.
	categoryExists func(id string) (bool, error)
}

func NewItemStore(s kv.Store, logger *slog.Logger) *ItemStore {
	return &ItemStore{
		items: newCollection(s, kv.KeyItems, logger,
			func(i model.Item) string { return i.ID },
			model.Item.Validate,
		),
	}
}

// List returns every item, including those with quantity 0, in stored order.
func (s *ItemStore) List() ([]model.Item, error) {
	return s.items.all()
}

func (s *ItemStore) GetByID(id string) (*model.Item, error) {
	return s.items.find(id)
}

// FindByName returns the first item whose name matches case-insensitively.
func (s *ItemStore) FindByName(name string) (*model.Item, error) {
	items, err := s.items.all()
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].NameMatches(name) {
			return &items[i], nil
		}
	}
	return nil, nil
}

// Create appends a new item. A zero quantity defaults to 1.
func (s *ItemStore) Create(in model.ItemInput) (*model.Item, error) {
	item := model.Item{
		ID:       uuid.NewString(),
		Name:     strings.TrimSpace(in.Name),
		Quantity: in.Quantity,
		Category: in.Category,
		Unit:     strings.TrimSpace(in.Unit),
	}
	if item.Quantity == 0 {
		item.Quantity = 1
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}

	err := s.items.mutate(func(items []model.Item) ([]model.Item, bool, error) {
		if err := s.checkCategory(item.Category); err != nil {
			return items, false, err
		}
		return append(items, item), true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	return &item, nil
}

// Add puts name on the list. An existing item with the same name has its
// quantity bumped by one instead of being duplicated; an item coming back
// from quantity 0 starts unchecked. created reports whether a new record
// was appended.
func (s *ItemStore) Add(name string) (item *model.Item, created bool, err error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, model.ErrNameRequired
	}

	err = s.items.mutate(func(items []model.Item) ([]model.Item, bool, error) {
		for i := range items {
			if !items[i].NameMatches(name) {
				continue
			}
			if items[i].Quantity == 0 {
				items[i].Checked = false
			}
			items[i].Quantity++
			found := items[i]
			item = &found
			return items, true, nil
		}
		fresh := model.Item{ID: uuid.NewString(), Name: name, Quantity: 1}
		item = &fresh
		created = true
		return append(items, fresh), true, nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("add item: %w", err)
	}
	return item, created, nil
}

// Decrement lowers the quantity by one, stopping at 0.
func (s *ItemStore) Decrement(id string) (*model.Item, error) {
	item, err := s.items.update(id, func(i model.Item) (model.Item, error) {
		if i.Quantity > 0 {
			i.Quantity--
		}
		return i, nil
	})
	if err != nil {
		return nil, fmt.Errorf("decrement item: %w", err)
	}
	return item, nil
}

// Update applies a patch to the item with the given id. Updating an id that
// does not exist is a no-op and returns (nil, nil).
func (s *ItemStore) Update(id string, upd model.ItemUpdate) (*model.Item, error) {
	item, err := s.items.update(id, func(i model.Item) (model.Item, error) {
		next, err := upd.Apply(i)
		if err != nil {
			return i, err
		}
		if next.Category != i.Category {
			if err := s.checkCategory(next.Category); err != nil {
				return i, err
			}
		}
		return next, nil
	})
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	return item, nil
}

// Toggle flips the checked flag in a single read-modify-write and returns
// the item as it was and as it is now. A missing id returns nils.
func (s *ItemStore) Toggle(id string) (before, after *model.Item, err error) {
	after, err = s.items.update(id, func(i model.Item) (model.Item, error) {
		prev := i
		before = &prev
		i.Checked = !i.Checked
		return i, nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("toggle item: %w", err)
	}
	if after == nil {
		return nil, nil, nil
	}
	return before, after, nil
}

func (s *ItemStore) Delete(id string) error {
	if err := s.items.remove(id); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

func (s *ItemStore) Reorder(sourceID, destinationID string) error {
	if err := s.items.reorder(sourceID, destinationID); err != nil {
		return fmt.Errorf("reorder items: %w", err)
	}
	return nil
}

// Clear sets the quantity of every listed item to 0 in a single write and
// returns how many records changed. Unknown ids are ignored.
func (s *ItemStore) Clear(ids ...string) (int, error) {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	count := 0
	err := s.items.mutate(func(items []model.Item) ([]model.Item, bool, error) {
		for i := range items {
			if _, ok := want[items[i].ID]; ok && items[i].Quantity != 0 {
				items[i].Quantity = 0
				count++
			}
		}
		return items, count > 0, nil
	})
	if err != nil {
		return 0, fmt.Errorf("clear items: %w", err)
	}
	return count, nil
}

// ReferencesCategory reports whether any item, on the list or not, points
// at the category.
func (s *ItemStore) ReferencesCategory(categoryID string) (bool, error) {
	items, err := s.items.all()
	if err != nil {
		return false, err
	}
	return referencesCategory(items, categoryID), nil
}

func referencesCategory(items []model.Item, categoryID string) bool {
	for _, i := range items {
		if i.Category == categoryID {
			return true
		}
	}
	return false
}

// holdItems runs fn while no item can be written.
func (s *ItemStore) holdItems(fn func([]model.Item) error) error {
	return s.items.hold(fn)
}

func (s *ItemStore) checkCategory(id string) error {
	if id == "" || s.categoryExists == nil {
		return nil
	}
	ok, err := s.categoryExists(id)
	if err != nil {
		return fmt.Errorf("check category: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, id)
	}
	return nil
}

func (s *ItemStore) Replace(items []model.Item) error {
	if err := s.items.replace(items); err != nil {
		return fmt.Errorf("replace items: %w", err)
	}
	return nil
}
