package listview

import (
	"slices"
	"strings"

	"github.com/dukerupert/larder/internal/model"
)

type SearchView struct {
	Items []model.Item `json:"items"`
	// ShowAddNew offers creating the search text as a new item.
	ShowAddNew bool `json:"showAddNew"`
	Empty      bool `json:"empty"`
}

// SearchItems ranks every stored item, on the list or not, against the
// add-item search box. Ranking is three stable passes, each overriding the
// one before: on-list items first, then an exact name match, then the
// recently added name.
func SearchItems(items []model.Item, search, recentlyAdded string) SearchView {
	needle := normalize(search)

	matched := []model.Item{}
	exact := false
	for _, item := range items {
		if !contains(item.Name, needle) {
			continue
		}
		matched = append(matched, item)
		if needle != "" && item.NameMatches(search) {
			exact = true
		}
	}

	first := func(pred func(model.Item) bool) func(a, b model.Item) int {
		return func(a, b model.Item) int {
			pa, pb := pred(a), pred(b)
			switch {
			case pa == pb:
				return 0
			case pa:
				return -1
			default:
				return 1
			}
		}
	}

	slices.SortStableFunc(matched, first(model.Item.OnList))
	if needle != "" {
		slices.SortStableFunc(matched, first(func(i model.Item) bool { return i.NameMatches(search) }))
	}
	if strings.TrimSpace(recentlyAdded) != "" {
		slices.SortStableFunc(matched, first(func(i model.Item) bool { return i.NameMatches(recentlyAdded) }))
	}

	return SearchView{
		Items:      matched,
		ShowAddNew: needle != "" && !exact,
		Empty:      len(matched) == 0,
	}
}
