package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Item is a shopping-list entry. Quantity 0 means the item is off the
// active list but kept so that re-adding it bumps the existing record.
type Item struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	// Category is a category id; empty means uncategorised.
	Category string `json:"category,omitempty"`
	Unit     string `json:"unit,omitempty"`
	Checked  bool   `json:"checked,omitempty"`
}

// OnList reports whether the item is on the active list.
func (i Item) OnList() bool {
	return i.Quantity > 0
}

// Key identifies one rendering of the item. An item in mid-toggle is
// briefly rendered under both of its keys.
func (i Item) Key() string {
	return fmt.Sprintf("%s-%t", i.ID, i.Checked)
}

// NameMatches reports a case-insensitive exact match against name.
func (i Item) NameMatches(name string) bool {
	return strings.EqualFold(strings.TrimSpace(i.Name), strings.TrimSpace(name))
}

func (i Item) Validate() error {
	if i.ID == "" {
		return ErrIDRequired
	}
	if strings.TrimSpace(i.Name) == "" {
		return ErrNameRequired
	}
	if i.Quantity < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, i.Quantity)
	}
	return nil
}

// UnmarshalJSON accepts the category either as an id string or as an
// embedded category object, the shape older data was written in.
func (i *Item) UnmarshalJSON(data []byte) error {
	type plain Item
	var raw struct {
		plain
		Category json.RawMessage `json:"category,omitempty"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*i = Item(raw.plain)
	i.Category = ""

	if len(raw.Category) == 0 || string(raw.Category) == "null" {
		return nil
	}
	var id string
	if err := json.Unmarshal(raw.Category, &id); err == nil {
		i.Category = id
		return nil
	}
	var embedded struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw.Category, &embedded); err != nil {
		return fmt.Errorf("item category: %w", err)
	}
	i.Category = embedded.ID
	return nil
}

// ItemInput holds the fields accepted when creating an item.
type ItemInput struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Category string `json:"category"`
	Unit     string `json:"unit"`
}

// ItemUpdate is a field-level patch. Nil fields are left untouched; an
// empty Category clears the category.
type ItemUpdate struct {
	Name     *string `json:"name,omitempty"`
	Quantity *int    `json:"quantity,omitempty"`
	Category *string `json:"category,omitempty"`
	Unit     *string `json:"unit,omitempty"`
	Checked  *bool   `json:"checked,omitempty"`
}

// Apply merges the patch over item and validates the result.
func (u ItemUpdate) Apply(item Item) (Item, error) {
	if u.Name != nil {
		item.Name = strings.TrimSpace(*u.Name)
	}
	if u.Quantity != nil {
		item.Quantity = *u.Quantity
	}
	if u.Category != nil {
		item.Category = *u.Category
	}
	if u.Unit != nil {
		item.Unit = strings.TrimSpace(*u.Unit)
	}
	if u.Checked != nil {
		item.Checked = *u.Checked
	}
	return item, item.Validate()
}
