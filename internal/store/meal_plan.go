package store

import (
	"fmt"
	"log/slog"

	"github.com/dukerupert/larder/internal/kv"
	"github.com/dukerupert/larder/internal/model"
)

// MealPlanStore keeps at most one plan per date.
type MealPlanStore struct {
	plans *collection[model.MealPlan]
}

func NewMealPlanStore(s kv.Store, logger *slog.Logger) *MealPlanStore {
	return &MealPlanStore{
		plans: newCollection(s, kv.KeyMealPlans, logger,
			func(p model.MealPlan) string { return p.Date },
			model.MealPlan.Validate,
		),
	}
}

func (s *MealPlanStore) List() ([]model.MealPlan, error) {
	return s.plans.all()
}

func (s *MealPlanStore) GetByDate(date string) (*model.MealPlan, error) {
	return s.plans.find(date)
}

// Create stores a plan. A plan that already exists for the date is
// overwritten in place rather than duplicated.
func (s *MealPlanStore) Create(plan model.MealPlan) (*model.MealPlan, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	err := s.plans.mutate(func(list []model.MealPlan) ([]model.MealPlan, bool, error) {
		if i := s.plans.indexOf(list, plan.Date); i >= 0 {
			list[i] = plan
			return list, true, nil
		}
		return append(list, plan), true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("create meal plan: %w", err)
	}
	return &plan, nil
}

func (s *MealPlanStore) Delete(date string) error {
	if err := s.plans.remove(date); err != nil {
		return fmt.Errorf("delete meal plan: %w", err)
	}
	return nil
}

func (s *MealPlanStore) Replace(plans []model.MealPlan) error {
	if err := s.plans.replace(plans); err != nil {
		return fmt.Errorf("replace meal plans: %w", err)
	}
	return nil
}
