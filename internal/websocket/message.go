package websocket

import "fmt"

// Entities named in change notifications.
const (
	EntityItem       = "item"
	EntityItems      = "items"
	EntityCategory   = "category"
	EntityRecipe     = "recipe"
	EntityMealPlan   = "meal_plan"
	EntityPreference = "preference"
	EntityBackup     = "backup"
	EntityClear      = "clear"
)

// TypeResync replaces every notification a slow client missed. The UI
// re-reads all collections when it sees one.
const TypeResync = "resync"

// Message tells connected UIs what changed. Seq increases by one per
// broadcast, so a client can tell when it has missed something.
type Message struct {
	Seq     uint64   `json:"seq"`
	Type    string   `json:"type"`
	Entity  string   `json:"entity,omitempty"`
	Action  string   `json:"action,omitempty"`
	ID      string   `json:"id,omitempty"`
	IDs     []string `json:"ids,omitempty"`
	Checked *bool    `json:"checked,omitempty"`
	Count   int      `json:"count,omitempty"`
}

// Changed reports a plain repository mutation, typed "<entity>_<action>".
func Changed(entity, action, id string) Message {
	return Message{
		Type:   fmt.Sprintf("%s_%s", entity, action),
		Entity: entity,
		Action: action,
		ID:     id,
	}
}

func ItemToggled(id string, checked bool) Message {
	m := Changed(EntityItem, "toggled", id)
	m.Checked = &checked
	return m
}

// ItemPending marks one item as exiting during a staged clear.
func ItemPending(id string) Message {
	return Changed(EntityItem, "pending", id)
}

// ItemsCleared reports the commit of a staged clear. count is how many
// records actually changed.
func ItemsCleared(ids []string, count int) Message {
	m := Changed(EntityItems, "cleared", "")
	m.IDs = ids
	m.Count = count
	return m
}

// ClearCancelled reports an aborted clear; ids stay on the list.
func ClearCancelled(ids []string) Message {
	m := Changed(EntityClear, "cancelled", "")
	m.IDs = ids
	return m
}
