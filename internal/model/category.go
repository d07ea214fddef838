package model

import "strings"

// UncategorisedIcon is shown for the synthetic uncategorised bucket.
const UncategorisedIcon = "🏷️"

// UncategorisedName is the label of the synthetic bucket for items with no
// category. It is never stored as a Category.
const UncategorisedName = "Uncategorised"

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

func (c Category) Validate() error {
	if c.ID == "" {
		return ErrIDRequired
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrNameRequired
	}
	return nil
}

type CategoryInput struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
}

type CategoryUpdate struct {
	Name *string `json:"name,omitempty"`
	Icon *string `json:"icon,omitempty"`
}

func (u CategoryUpdate) Apply(c Category) (Category, error) {
	if u.Name != nil {
		c.Name = strings.TrimSpace(*u.Name)
	}
	if u.Icon != nil {
		c.Icon = *u.Icon
		if c.Icon == "" {
			c.Icon = UncategorisedIcon
		}
	}
	return c, c.Validate()
}
