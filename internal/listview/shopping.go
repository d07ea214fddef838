// Package listview turns stored collections into the ordered, filtered
// sequences the UI renders. Every function here is pure: the same input
// always yields the same view.
package listview

import (
	"slices"
	"strings"

	"github.com/dukerupert/larder/internal/model"
)

// Entry is one rendered shopping-list row.
type Entry struct {
	Item model.Item `json:"item"`
	// Category is nil for uncategorised items and for items whose category
	// no longer exists.
	Category       *model.Category `json:"category"`
	Key            string          `json:"key"`
	PendingRemoval bool            `json:"pendingRemoval"`
}

func newEntry(item model.Item, cat *model.Category, pending map[string]bool) Entry {
	return Entry{
		Item:           item,
		Category:       cat,
		Key:            item.Key(),
		PendingRemoval: pending[item.ID],
	}
}

// ShoppingQuery is the view context for the active shopping list.
type ShoppingQuery struct {
	Search      string
	ShowChecked bool
	// Pending holds the ids currently staged for removal by a clear.
	Pending map[string]bool
}

type ShoppingView struct {
	Unchecked []Entry `json:"unchecked"`
	// Checked is empty when ShowChecked is false; CheckedCount is not.
	Checked      []Entry `json:"checked"`
	CheckedCount int     `json:"checkedCount"`
	ShowChecked  bool    `json:"showChecked"`
	ShowDivider  bool    `json:"showDivider"`
	Progress     float64 `json:"progress"`
	Empty        bool    `json:"empty"`
}

// ShoppingList projects the active list: items with quantity above zero,
// split into unchecked and checked, each grouped by category order with
// stored order kept inside a group. Uncategorised items lead.
func ShoppingList(items []model.Item, categories []model.Category, q ShoppingQuery) ShoppingView {
	index := categoryIndex(categories)
	search := normalize(q.Search)

	var unchecked, checked []model.Item
	onList := 0
	for _, item := range items {
		if !item.OnList() {
			continue
		}
		onList++
		if item.Checked {
			checked = append(checked, item)
		} else if contains(item.Name, search) {
			unchecked = append(unchecked, item)
		}
	}

	view := ShoppingView{
		Unchecked:    []Entry{},
		Checked:      []Entry{},
		CheckedCount: len(checked),
		ShowChecked:  q.ShowChecked,
		ShowDivider:  len(checked) > 0,
	}
	if onList > 0 {
		view.Progress = float64(len(checked)) / float64(onList) * 100
	}

	byCategory := func(a, b model.Item) int {
		return index.position(a.Category) - index.position(b.Category)
	}
	slices.SortStableFunc(unchecked, byCategory)
	slices.SortStableFunc(checked, byCategory)

	for _, item := range unchecked {
		view.Unchecked = append(view.Unchecked, newEntry(item, index.lookup(item.Category), q.Pending))
	}
	if q.ShowChecked {
		for _, item := range checked {
			if contains(item.Name, search) {
				view.Checked = append(view.Checked, newEntry(item, index.lookup(item.Category), q.Pending))
			}
		}
	}
	view.Empty = len(view.Unchecked) == 0 && len(view.Checked) == 0
	return view
}

// CheckedItems returns the checked on-list items in the order the shopping
// list displays them. A clear walks them in this order.
func CheckedItems(items []model.Item, categories []model.Category) []model.Item {
	view := ShoppingList(items, categories, ShoppingQuery{ShowChecked: true})
	out := make([]model.Item, len(view.Checked))
	for i, e := range view.Checked {
		out[i] = e.Item
	}
	return out
}

type categories struct {
	order []model.Category
	pos   map[string]int
}

func categoryIndex(list []model.Category) categories {
	pos := make(map[string]int, len(list))
	for i, c := range list {
		pos[c.ID] = i
	}
	return categories{order: list, pos: pos}
}

// position is the category's place in the persisted order, or -1 when the
// item is uncategorised or its category is gone.
func (c categories) position(id string) int {
	if i, ok := c.pos[id]; ok {
		return i
	}
	return -1
}

func (c categories) lookup(id string) *model.Category {
	i := c.position(id)
	if i < 0 {
		return nil
	}
	cat := c.order[i]
	return &cat
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// contains reports a case-insensitive substring match. needle must already
// be normalized.
func contains(name, needle string) bool {
	return needle == "" || strings.Contains(strings.ToLower(name), needle)
}
