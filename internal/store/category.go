package store

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/dukerupert/larder/internal/kv"
	"github.com/dukerupert/larder/internal/model"
)

// ErrCategoryInUse rejects deleting a category that an item still references.
var ErrCategoryInUse = errors.New("category is in use")

type CategoryStore struct {
	categories *collection[model.Category]
	items      *ItemStore
}

// NewCategoryStore binds items to the new store so item writes can only
// reference categories that exist.
func NewCategoryStore(s kv.Store, items *ItemStore, logger *slog.Logger) *CategoryStore {
	cs := &CategoryStore{
		categories: newCollection(s, kv.KeyCategories, logger,
			func(c model.Category) string { return c.ID },
			model.Category.Validate,
		),
		items: items,
	}
	items.categoryExists = cs.exists
	return cs
}

func (s *CategoryStore) exists(id string) (bool, error) {
	c, err := s.categories.find(id)
	return c != nil, err
}

// List returns categories in their persisted manual order.
func (s *CategoryStore) List() ([]model.Category, error) {
	return s.categories.all()
}

func (s *CategoryStore) GetByID(id string) (*model.Category, error) {
	return s.categories.find(id)
}

func (s *CategoryStore) Create(in model.CategoryInput) (*model.Category, error) {
	c := model.Category{
		ID:   uuid.NewString(),
		Name: strings.TrimSpace(in.Name),
		Icon: in.Icon,
	}
	if c.Icon == "" {
		c.Icon = model.UncategorisedIcon
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	err := s.categories.mutate(func(list []model.Category) ([]model.Category, bool, error) {
		return append(list, c), true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return &c, nil
}

func (s *CategoryStore) Update(id string, upd model.CategoryUpdate) (*model.Category, error) {
	c, err := s.categories.update(id, upd.Apply)
	if err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	return c, nil
}

// Deletable reports whether no item references the category.
func (s *CategoryStore) Deletable(id string) (bool, error) {
	inUse, err := s.items.ReferencesCategory(id)
	if err != nil {
		return false, fmt.Errorf("check category references: %w", err)
	}
	return !inUse, nil
}

// Delete removes the category, or returns ErrCategoryInUse while any item
// references it. Item writes are held off from the reference check until
// the category is gone.
func (s *CategoryStore) Delete(id string) error {
	err := s.items.holdItems(func(items []model.Item) error {
		return s.categories.mutate(func(list []model.Category) ([]model.Category, bool, error) {
			i := s.categories.indexOf(list, id)
			if i < 0 {
				return list, false, nil
			}
			if referencesCategory(items, id) {
				return list, false, ErrCategoryInUse
			}
			return slices.Delete(list, i, i+1), true, nil
		})
	})
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

func (s *CategoryStore) Reorder(sourceID, destinationID string) error {
	if err := s.categories.reorder(sourceID, destinationID); err != nil {
		return fmt.Errorf("reorder categories: %w", err)
	}
	return nil
}

func (s *CategoryStore) Replace(categories []model.Category) error {
	if err := s.categories.replace(categories); err != nil {
		return fmt.Errorf("replace categories: %w", err)
	}
	return nil
}
