package model

import (
	"fmt"
	"time"
)

// DateLayout is the ISO calendar date format meal plans are keyed by.
const DateLayout = "2006-01-02"

type MealType string

const (
	MealFrozen MealType = "frozen"
	MealCooked MealType = "cooked"
)

// Meal is either a frozen meal (no payload) or a cooked recipe.
type Meal struct {
	Type     MealType `json:"type"`
	RecipeID string   `json:"recipeId,omitempty"`
}

func FrozenMeal() Meal {
	return Meal{Type: MealFrozen}
}

func CookedMeal(recipeID string) Meal {
	return Meal{Type: MealCooked, RecipeID: recipeID}
}

func (m Meal) Validate() error {
	switch m.Type {
	case MealFrozen:
		if m.RecipeID != "" {
			return fmt.Errorf("%w: frozen meal with recipe", ErrInvalidMeal)
		}
	case MealCooked:
		if m.RecipeID == "" {
			return fmt.Errorf("%w: cooked meal without recipe", ErrInvalidMeal)
		}
	default:
		return fmt.Errorf("%w: type %q", ErrInvalidMeal, m.Type)
	}
	return nil
}

// MealPlan assigns one meal to one date. Date is the unique key.
type MealPlan struct {
	Date string `json:"date"`
	Meal Meal   `json:"meal"`
}

func (p MealPlan) Validate() error {
	if err := ValidateDate(p.Date); err != nil {
		return err
	}
	return p.Meal.Validate()
}

// ValidateDate checks that s is a YYYY-MM-DD calendar date.
func ValidateDate(s string) error {
	if _, err := time.Parse(DateLayout, s); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return nil
}
