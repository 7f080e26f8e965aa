package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"
	"github.com/tidwall/jsonc"

	"github.com/sprinkler-go/sprinkler-go/pkg/cycle"
)

// StateVersion is the current version of the state file format.
const StateVersion = 1

// Persistence errors.
var (
	ErrUnsupportedVersion = errors.New("unsupported state file version")
)

// ControllerState is the persisted controller state.
type ControllerState struct {
	// Version is the state file format version.
	Version int `json:"version"`

	// SavedAt is when the state was last saved.
	SavedAt time.Time `json:"saved_at"`

	// Cycles in definition order.
	Cycles []cycle.Definition `json:"cycles"`

	// HoldDays is the hold length; negative means indefinite.
	HoldDays int8 `json:"holdDays"`

	// HoldEpoch is when the hold ends, 0 when inactive.
	HoldEpoch int64 `json:"holdEpoch"`

	// Settings are operator adjustments made at runtime.
	Settings *Settings `json:"settings,omitempty"`
}

// Settings are runtime-adjustable options that override configuration.
type Settings struct {
	// Adjustment is the seasonal adjustment percentage.
	Adjustment int `json:"adj,omitempty"`

	// InterZoneDelay is the pause between schedule items.
	InterZoneDelay time.Duration `json:"toggleDelay,omitempty"`

	// Logic is the output polarity name.
	Logic string `json:"logic,omitempty"`
}

// StateStore manages the state file.
type StateStore struct {
	mu   sync.Mutex
	fs   afero.Fs
	path string
}

// NewStateStore creates a store for path on fs.
func NewStateStore(fs afero.Fs, path string) *StateStore {
	return &StateStore{fs: fs, path: path}
}

// Path returns the state file path.
func (s *StateStore) Path() string {
	return s.path
}

// Save writes the state. The file is replaced atomically through a
// temporary file in the same directory.
func (s *StateStore) Save(state *ControllerState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return err
	}

	state.Version = StateVersion
	if state.SavedAt.IsZero() {
		state.SavedAt = time.Now()
	}
	if state.Cycles == nil {
		state.Cycles = []cycle.Definition{}
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0644); err != nil {
		return err
	}
	return s.fs.Rename(tmp, s.path)
}

// Load reads the state. It returns nil, nil if the file does not exist.
func (s *StateStore) Load() (*ControllerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	state := &ControllerState{}
	if err := json.Unmarshal(jsonc.ToJSON(data), state); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	if state.Version > StateVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, state.Version)
	}

	return state, nil
}

// Clear removes the state file.
func (s *StateStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.fs.Remove(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
