package listview

import (
	"slices"

	"github.com/dukerupert/larder/internal/model"
)

type RecipeView struct {
	Recipes []model.Recipe `json:"recipes"`
	Empty   bool           `json:"empty"`
}

// Recipes filters by name and keeps the persisted manual order.
func Recipes(recipes []model.Recipe, search string) RecipeView {
	needle := normalize(search)
	view := RecipeView{Recipes: []model.Recipe{}}
	for _, r := range recipes {
		if contains(r.Name, needle) {
			view.Recipes = append(view.Recipes, r)
		}
	}
	view.Empty = len(view.Recipes) == 0
	return view
}

// Multipliers are the serving multipliers a recipe cycles through.
var Multipliers = []float64{1, 1.25, 1.5, 2, 4, 6, 8}

// NextMultiplier returns the multiplier after m, wrapping to 1. An unknown
// m resets to 1.
func NextMultiplier(m float64) float64 {
	i := slices.Index(Multipliers, m)
	if i < 0 {
		return Multipliers[0]
	}
	return Multipliers[(i+1)%len(Multipliers)]
}

// ScaleIngredients returns a copy of the ingredient list with every
// quantity multiplied by m.
func ScaleIngredients(r model.Recipe, m float64) []model.Ingredient {
	out := make([]model.Ingredient, len(r.Ingredients))
	for i, ing := range r.Ingredients {
		ing.Quantity *= m
		out[i] = ing
	}
	return out
}
