package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/dukerupert/larder/internal/kv"
)

// PreferenceStore holds per-device view preferences.
type PreferenceStore struct {
	kv     kv.Store
	logger *slog.Logger
}

func NewPreferenceStore(s kv.Store, logger *slog.Logger) *PreferenceStore {
	return &PreferenceStore{kv: s, logger: logger}
}

// ShowChecked reports whether checked items are rendered. Defaults to true.
func (s *PreferenceStore) ShowChecked() (bool, error) {
	data, ok, err := s.kv.Get(kv.KeyShowChecked)
	if err != nil {
		return true, fmt.Errorf("get show checked: %w", err)
	}
	if !ok {
		return true, nil
	}
	var v bool
	if err := json.Unmarshal(data, &v); err != nil {
		s.logger.Warn("dropping corrupt preference", "key", kv.KeyShowChecked, "error", err)
		if err := s.kv.Delete(kv.KeyShowChecked); err != nil {
			return true, fmt.Errorf("drop show checked: %w", err)
		}
		return true, nil
	}
	return v, nil
}

func (s *PreferenceStore) SetShowChecked(v bool) error {
	if err := s.kv.Set(kv.KeyShowChecked, []byte(strconv.FormatBool(v))); err != nil {
		return fmt.Errorf("set show checked: %w", err)
	}
	return nil
}
