// Package backup exports every collection to a single portable file and
// restores from one.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/dukerupert/larder/internal/clock"
	"github.com/dukerupert/larder/internal/model"
	"github.com/dukerupert/larder/internal/store"
)

// Version is the snapshot format written by Export.
const Version = 1

var (
	ErrUnsupportedVersion = errors.New("unsupported backup version")
	ErrInvalidBackup      = errors.New("invalid backup")
)

// Snapshot is the full state of a larder.
type Snapshot struct {
	Version    int              `json:"version"`
	ExportedAt time.Time        `json:"exportedAt"`
	Items      []model.Item     `json:"items"`
	Categories []model.Category `json:"categories"`
	Recipes    []model.Recipe   `json:"recipes"`
	MealPlans  []model.MealPlan `json:"mealPlans"`
}

// Validate checks every record and rejects duplicate ids within a
// collection.
func (s *Snapshot) Validate() error {
	if s.Version != Version {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, s.Version)
	}
	if err := validateAll("items", s.Items, model.Item.Validate, func(i model.Item) string { return i.ID }); err != nil {
		return err
	}
	if err := validateAll("categories", s.Categories, model.Category.Validate, func(c model.Category) string { return c.ID }); err != nil {
		return err
	}
	if err := validateAll("recipes", s.Recipes, model.Recipe.Validate, func(r model.Recipe) string { return r.ID }); err != nil {
		return err
	}
	return validateAll("meal plans", s.MealPlans, model.MealPlan.Validate, func(p model.MealPlan) string { return p.Date })
}

func validateAll[T any](name string, list []T, validate func(T) error, id func(T) string) error {
	seen := make(map[string]struct{}, len(list))
	for i, v := range list {
		if err := validate(v); err != nil {
			return fmt.Errorf("%s record %d: %w", name, i, err)
		}
		if _, dup := seen[id(v)]; dup {
			return fmt.Errorf("%s record %d: duplicate id %q", name, i, id(v))
		}
		seen[id(v)] = struct{}{}
	}
	return nil
}

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("backup: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("backup: zstd decoder initialization failed: " + err.Error())
	}
}

// Export encodes s as zstd-compressed JSON, sealed with passphrase when
// one is given.
func Export(s *Snapshot, passphrase string) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	compressed := zstdEncoder.EncodeAll(data, nil)
	if passphrase == "" {
		return compressed, nil
	}
	return seal(compressed, passphrase)
}

// Import decodes and validates an export. Nothing is written.
func Import(data []byte, passphrase string) (*Snapshot, error) {
	if isSealed(data) {
		if passphrase == "" {
			return nil, ErrPassphraseRequired
		}
		var err error
		if data, err = open(data, passphrase); err != nil {
			return nil, err
		}
	}

	raw, err := zstdDecoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: decompress: %w", ErrInvalidBackup, err)
	}
	var s Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrInvalidBackup, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBackup, err)
	}
	return &s, nil
}

// Stores are the repositories a snapshot is taken from and restored into.
type Stores struct {
	Items      *store.ItemStore
	Categories *store.CategoryStore
	Recipes    *store.RecipeStore
	MealPlans  *store.MealPlanStore
}

// Status reports the last export and restore.
type Status struct {
	LastExport  *time.Time `json:"lastExport,omitempty"`
	LastRestore *time.Time `json:"lastRestore,omitempty"`
	InProgress  bool       `json:"inProgress"`
}

var ErrBusy = errors.New("backup already in progress")

// Manager takes and restores snapshots, one at a time.
type Manager struct {
	stores Stores
	clock  clock.Clock
	logger *slog.Logger

	mu     sync.Mutex
	status Status
}

func NewManager(stores Stores, clk clock.Clock, logger *slog.Logger) *Manager {
	return &Manager{stores: stores, clock: clk, logger: logger}
}

func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *Manager) begin() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status.InProgress {
		return ErrBusy
	}
	m.status.InProgress = true
	return nil
}

func (m *Manager) end(set func(*Status)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status.InProgress = false
	if set != nil {
		set(&m.status)
	}
}

// Snapshot reads every collection.
func (m *Manager) Snapshot() (*Snapshot, error) {
	s := &Snapshot{Version: Version, ExportedAt: m.clock.Now().UTC()}
	var err error
	if s.Items, err = m.stores.Items.List(); err != nil {
		return nil, fmt.Errorf("snapshot items: %w", err)
	}
	if s.Categories, err = m.stores.Categories.List(); err != nil {
		return nil, fmt.Errorf("snapshot categories: %w", err)
	}
	if s.Recipes, err = m.stores.Recipes.List(); err != nil {
		return nil, fmt.Errorf("snapshot recipes: %w", err)
	}
	if s.MealPlans, err = m.stores.MealPlans.List(); err != nil {
		return nil, fmt.Errorf("snapshot meal plans: %w", err)
	}
	return s, nil
}

// Export snapshots and encodes the current state.
func (m *Manager) Export(passphrase string) ([]byte, error) {
	if err := m.begin(); err != nil {
		return nil, err
	}
	s, err := m.Snapshot()
	if err != nil {
		m.end(nil)
		return nil, err
	}
	data, err := Export(s, passphrase)
	if err != nil {
		m.end(nil)
		return nil, err
	}

	m.end(func(st *Status) { st.LastExport = &s.ExportedAt })
	m.logger.Info("backup exported", "bytes", len(data), "encrypted", passphrase != "")
	return data, nil
}

// Restore replaces every collection with the contents of an export. The
// whole backup is validated before the first collection is replaced.
func (m *Manager) Restore(data []byte, passphrase string) (*Snapshot, error) {
	if err := m.begin(); err != nil {
		return nil, err
	}
	s, err := Import(data, passphrase)
	if err != nil {
		m.end(nil)
		return nil, err
	}

	if err := m.replace(s); err != nil {
		m.end(nil)
		m.logger.Error("restore failed", "error", err)
		return nil, err
	}

	now := m.clock.Now().UTC()
	m.end(func(st *Status) { st.LastRestore = &now })
	m.logger.Info("backup restored",
		"items", len(s.Items),
		"categories", len(s.Categories),
		"recipes", len(s.Recipes),
		"meal_plans", len(s.MealPlans),
	)
	return s, nil
}

func (m *Manager) replace(s *Snapshot) error {
	if err := m.stores.Categories.Replace(s.Categories); err != nil {
		return fmt.Errorf("restore categories: %w", err)
	}
	if err := m.stores.Items.Replace(s.Items); err != nil {
		return fmt.Errorf("restore items: %w", err)
	}
	if err := m.stores.Recipes.Replace(s.Recipes); err != nil {
		return fmt.Errorf("restore recipes: %w", err)
	}
	if err := m.stores.MealPlans.Replace(s.MealPlans); err != nil {
		return fmt.Errorf("restore meal plans: %w", err)
	}
	return nil
}
