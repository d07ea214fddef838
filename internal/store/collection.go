package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/dukerupert/larder/internal/kv"
)

// ErrCorruptData matches every CorruptDataError.
var ErrCorruptData = errors.New("corrupt data")

// CorruptDataError reports a stored collection that does not decode or
// does not validate.
type CorruptDataError struct {
	Key string
	Err error
}

func (e *CorruptDataError) Error() string {
	return fmt.Sprintf("corrupt %s: %v", e.Key, e.Err)
}

func (e *CorruptDataError) Unwrap() error { return e.Err }

func (e *CorruptDataError) Is(target error) bool { return target == ErrCorruptData }

// collection is one JSON array stored under a fixed key. The mutex makes
// each read-modify-write atomic with respect to other calls on the same
// collection.
type collection[T any] struct {
	mu       sync.Mutex
	kv       kv.Store
	key      string
	logger   *slog.Logger
	id       func(T) string
	validate func(T) error
}

func newCollection[T any](s kv.Store, key string, logger *slog.Logger, id func(T) string, validate func(T) error) *collection[T] {
	return &collection[T]{kv: s, key: key, logger: logger, id: id, validate: validate}
}

// decode parses and validates a stored value. Duplicate ids are corrupt.
func (c *collection[T]) decode(data []byte) ([]T, error) {
	var list []T
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, &CorruptDataError{Key: c.key, Err: err}
	}
	seen := make(map[string]struct{}, len(list))
	for i, v := range list {
		if err := c.validate(v); err != nil {
			return nil, &CorruptDataError{Key: c.key, Err: fmt.Errorf("record %d: %w", i, err)}
		}
		id := c.id(v)
		if _, dup := seen[id]; dup {
			return nil, &CorruptDataError{Key: c.key, Err: fmt.Errorf("record %d: duplicate id %q", i, id)}
		}
		seen[id] = struct{}{}
	}
	if list == nil {
		list = []T{}
	}
	return list, nil
}

// load reads the collection. A corrupt value is logged, dropped and
// treated as empty. Callers must hold mu.
func (c *collection[T]) load() ([]T, error) {
	data, ok, err := c.kv.Get(c.key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.key, err)
	}
	if !ok {
		return []T{}, nil
	}

	list, err := c.decode(data)
	if err != nil {
		c.logger.Warn("dropping corrupt collection", "key", c.key, "error", err)
		if err := c.kv.Delete(c.key); err != nil {
			return nil, fmt.Errorf("drop corrupt %s: %w", c.key, err)
		}
		return []T{}, nil
	}
	return list, nil
}

func (c *collection[T]) save(list []T) error {
	if list == nil {
		list = []T{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.key, err)
	}
	if err := c.kv.Set(c.key, data); err != nil {
		return fmt.Errorf("write %s: %w", c.key, err)
	}
	return nil
}

func (c *collection[T]) all() ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load()
}

func (c *collection[T]) find(id string) (*T, error) {
	list, err := c.all()
	if err != nil {
		return nil, err
	}
	for i := range list {
		if c.id(list[i]) == id {
			return &list[i], nil
		}
	}
	return nil, nil
}

// hold runs fn over the current collection with the lock held, so no
// write to this collection can land until fn returns.
func (c *collection[T]) hold(fn func([]T) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	list, err := c.load()
	if err != nil {
		return err
	}
	return fn(list)
}

// mutate runs fn over the current collection and writes the result back
// in one step when fn reports a change.
func (c *collection[T]) mutate(fn func([]T) ([]T, bool, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	list, err := c.load()
	if err != nil {
		return err
	}
	next, changed, err := fn(list)
	if err != nil || !changed {
		return err
	}
	return c.save(next)
}

// update merges a patch into the record with the given id. A missing id
// is a no-op and returns nil.
func (c *collection[T]) update(id string, apply func(T) (T, error)) (*T, error) {
	var updated *T
	err := c.mutate(func(list []T) ([]T, bool, error) {
		i := c.indexOf(list, id)
		if i < 0 {
			return list, false, nil
		}
		v, err := apply(list[i])
		if err != nil {
			return list, false, err
		}
		list[i] = v
		updated = &v
		return list, true, nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (c *collection[T]) remove(id string) error {
	return c.mutate(func(list []T) ([]T, bool, error) {
		i := c.indexOf(list, id)
		if i < 0 {
			return list, false, nil
		}
		return slices.Delete(list, i, i+1), true, nil
	})
}

func (c *collection[T]) reorder(sourceID, destinationID string) error {
	return c.mutate(func(list []T) ([]T, bool, error) {
		next, moved := move(list, c.id, sourceID, destinationID)
		return next, moved, nil
	})
}

// replace validates and writes a whole collection, as on restore.
func (c *collection[T]) replace(list []T) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.key, err)
	}
	if _, err := c.decode(data); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.save(list)
}

func (c *collection[T]) indexOf(list []T, id string) int {
	return slices.IndexFunc(list, func(v T) bool { return c.id(v) == id })
}

// move takes the record at sourceID's position and reinserts it at the
// position destinationID holds now. Every other record keeps its relative
// order. It reports false, leaving list untouched, when either id is
// missing or they are equal.
func move[T any](list []T, id func(T) string, sourceID, destinationID string) ([]T, bool) {
	if sourceID == destinationID {
		return list, false
	}
	src := slices.IndexFunc(list, func(v T) bool { return id(v) == sourceID })
	dst := slices.IndexFunc(list, func(v T) bool { return id(v) == destinationID })
	if src < 0 || dst < 0 {
		return list, false
	}

	moved := list[src]
	out := slices.Delete(slices.Clone(list), src, src+1)
	return slices.Insert(out, dst, moved), true
}
