// Package kv is the persistent key-value boundary. Every collection is
// stored as one JSON document under a fixed key and rewritten whole on
// each mutation.
package kv

// Fixed keys. These are the on-disk format and must not change.
const (
	KeyItems       = "items"
	KeyCategories  = "categories"
	KeyRecipes     = "recipes"
	KeyMealPlans   = "mealPlans"
	KeyShowChecked = "checked-items-visible"
)

// Store is a synchronous, last-write-wins key-value store.
type Store interface {
	// Get returns the stored value and whether the key was present.
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
}
