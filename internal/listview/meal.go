package listview

import (
	"time"

	"github.com/dukerupert/larder/internal/calendar"
	"github.com/dukerupert/larder/internal/model"
)

type Day struct {
	Weekday string          `json:"weekday"`
	Date    string          `json:"date"`
	Plan    *model.MealPlan `json:"plan"`
	// Recipe is set for cooked meals whose recipe still exists.
	Recipe *model.Recipe `json:"recipe"`
	// Empty is true when nothing renders for the day, including a cooked
	// plan whose recipe was deleted.
	Empty bool `json:"empty"`
}

type WeekView struct {
	Offset int    `json:"offset"`
	Alias  string `json:"alias"`
	Days   []Day  `json:"days"`
}

// MealWeek lays out the planner week that is offset weeks from today.
func MealWeek(today time.Time, offset int, plans []model.MealPlan, recipes []model.Recipe) WeekView {
	byDate := make(map[string]model.MealPlan, len(plans))
	for _, p := range plans {
		byDate[p.Date] = p
	}
	byID := make(map[string]model.Recipe, len(recipes))
	for _, r := range recipes {
		byID[r.ID] = r
	}

	dates := calendar.Week(today, offset)
	view := WeekView{
		Offset: offset,
		Alias:  calendar.Alias(offset, dates),
		Days:   make([]Day, len(dates)),
	}
	for i, d := range dates {
		day := Day{
			Weekday: d.Weekday().String(),
			Date:    calendar.ISODate(d),
			Empty:   true,
		}
		if p, ok := byDate[day.Date]; ok {
			day.Plan = &p
			switch p.Meal.Type {
			case model.MealFrozen:
				day.Empty = false
			case model.MealCooked:
				if r, ok := byID[p.Meal.RecipeID]; ok {
					day.Recipe = &r
					day.Empty = false
				}
			}
		}
		view.Days[i] = day
	}
	return view
}
