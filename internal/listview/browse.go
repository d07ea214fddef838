package listview

import (
	"strings"

	"github.com/dukerupert/larder/internal/model"
)

type BrowseView struct {
	Categories []model.Category `json:"categories"`
	// ShowUncategorised reports whether the synthetic bucket for items with
	// no category matches the search.
	ShowUncategorised bool `json:"showUncategorised"`
	Empty             bool `json:"empty"`
}

// CategoryBrowse filters categories by name, keeping their persisted order.
func CategoryBrowse(categories []model.Category, search string) BrowseView {
	needle := normalize(search)

	view := BrowseView{
		Categories:        []model.Category{},
		ShowUncategorised: contains(model.UncategorisedName, needle),
	}
	for _, c := range categories {
		if contains(c.Name, needle) {
			view.Categories = append(view.Categories, c)
		}
	}
	view.Empty = len(view.Categories) == 0 && !view.ShowUncategorised
	return view
}

type CategoryItemsView struct {
	// Category is nil for the uncategorised bucket.
	Category *model.Category `json:"category"`
	Items    []model.Item    `json:"items"`
	Empty    bool            `json:"empty"`
}

// CategoryItems lists the stored items, in stored order, that belong to one
// category. An empty categoryID selects the uncategorised bucket, which also
// collects items pointing at a deleted category.
func CategoryItems(items []model.Item, categories []model.Category, categoryID string) CategoryItemsView {
	index := categoryIndex(categories)
	id := strings.TrimSpace(categoryID)

	view := CategoryItemsView{Items: []model.Item{}}
	if id != "" {
		view.Category = index.lookup(id)
	}
	for _, item := range items {
		pos := index.position(item.Category)
		if (id == "" && pos < 0) || (id != "" && pos >= 0 && item.Category == id) {
			view.Items = append(view.Items, item)
		}
	}
	view.Empty = len(view.Items) == 0
	return view
}
