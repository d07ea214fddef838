package model

import (
	"fmt"
	"slices"
	"strings"
)

// DefaultColor is used when a recipe is created without a color.
const DefaultColor = "blue"

// Colors is the fixed palette a recipe color is chosen from.
var Colors = []string{
	"red", "pink", "grape", "violet", "indigo", "blue",
	"cyan", "teal", "green", "lime", "yellow", "orange",
}

func ValidColor(c string) bool {
	return slices.Contains(Colors, c)
}

type Ingredient struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit,omitempty"`
}

type Recipe struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Ingredients []Ingredient `json:"ingredients"`
	Link        string       `json:"link,omitempty"`
	Notes       string       `json:"notes,omitempty"`
	Color       string       `json:"color"`
}

func (r Recipe) Validate() error {
	if r.ID == "" {
		return ErrIDRequired
	}
	if strings.TrimSpace(r.Name) == "" {
		return ErrNameRequired
	}
	if !ValidColor(r.Color) {
		return fmt.Errorf("%w: %q", ErrInvalidColor, r.Color)
	}
	return validateIngredients(r.Ingredients)
}

func validateIngredients(ingredients []Ingredient) error {
	for i, ing := range ingredients {
		if strings.TrimSpace(ing.Name) == "" {
			return fmt.Errorf("ingredient %d: %w", i, ErrNameRequired)
		}
		if ing.Quantity < 1 {
			return fmt.Errorf("ingredient %d: %w: %v", i, ErrInvalidQuantity, ing.Quantity)
		}
	}
	return nil
}

type RecipeInput struct {
	Name        string       `json:"name"`
	Ingredients []Ingredient `json:"ingredients"`
	Link        string       `json:"link"`
	Notes       string       `json:"notes"`
	Color       string       `json:"color"`
}

// RecipeUpdate replaces the whole ingredient list when Ingredients is set.
type RecipeUpdate struct {
	Name        *string       `json:"name,omitempty"`
	Ingredients *[]Ingredient `json:"ingredients,omitempty"`
	Link        *string       `json:"link,omitempty"`
	Notes       *string       `json:"notes,omitempty"`
	Color       *string       `json:"color,omitempty"`
}

func (u RecipeUpdate) Apply(r Recipe) (Recipe, error) {
	if u.Name != nil {
		r.Name = strings.TrimSpace(*u.Name)
	}
	if u.Ingredients != nil {
		r.Ingredients = slices.Clone(*u.Ingredients)
		if r.Ingredients == nil {
			r.Ingredients = []Ingredient{}
		}
	}
	if u.Link != nil {
		r.Link = strings.TrimSpace(*u.Link)
	}
	if u.Notes != nil {
		r.Notes = *u.Notes
	}
	if u.Color != nil {
		r.Color = *u.Color
	}
	return r, r.Validate()
}
