package store

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/dukerupert/larder/internal/kv"
	"github.com/dukerupert/larder/internal/model"
)

type RecipeStore struct {
	recipes *collection[model.Recipe]
}

func NewRecipeStore(s kv.Store, logger *slog.Logger) *RecipeStore {
	return &RecipeStore{
		recipes: newCollection(s, kv.KeyRecipes, logger,
			func(r model.Recipe) string { return r.ID },
			model.Recipe.Validate,
		),
	}
}

// List returns recipes in their persisted manual order.
func (s *RecipeStore) List() ([]model.Recipe, error) {
	return s.recipes.all()
}

func (s *RecipeStore) GetByID(id string) (*model.Recipe, error) {
	return s.recipes.find(id)
}

func (s *RecipeStore) Create(in model.RecipeInput) (*model.Recipe, error) {
	r := model.Recipe{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(in.Name),
		Ingredients: slices.Clone(in.Ingredients),
		Link:        strings.TrimSpace(in.Link),
		Notes:       in.Notes,
		Color:       in.Color,
	}
	if r.Ingredients == nil {
		r.Ingredients = []model.Ingredient{}
	}
	if r.Color == "" {
		r.Color = model.DefaultColor
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}

	err := s.recipes.mutate(func(list []model.Recipe) ([]model.Recipe, bool, error) {
		return append(list, r), true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("create recipe: %w", err)
	}
	return &r, nil
}

// Update patches a recipe. A given ingredient list replaces the old one
// entirely. Missing ids are a no-op.
func (s *RecipeStore) Update(id string, upd model.RecipeUpdate) (*model.Recipe, error) {
	r, err := s.recipes.update(id, upd.Apply)
	if err != nil {
		return nil, fmt.Errorf("update recipe: %w", err)
	}
	return r, nil
}

// Delete removes the recipe. Meal plans that cook it are left dangling.
func (s *RecipeStore) Delete(id string) error {
	if err := s.recipes.remove(id); err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	return nil
}

func (s *RecipeStore) Reorder(sourceID, destinationID string) error {
	if err := s.recipes.reorder(sourceID, destinationID); err != nil {
		return fmt.Errorf("reorder recipes: %w", err)
	}
	return nil
}

func (s *RecipeStore) Replace(recipes []model.Recipe) error {
	if err := s.recipes.replace(recipes); err != nil {
		return fmt.Errorf("replace recipes: %w", err)
	}
	return nil
}
