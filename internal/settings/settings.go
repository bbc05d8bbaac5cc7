// Package settings persists user display preferences. The state is loaded
// once at startup and written back on every change, mirroring a
// load-at-start / save-on-change lifecycle around a small JSON file.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
)

// State holds the persisted preferences.
type State struct {
	Theme         string `json:"theme"`
	Language      string `json:"language"`
	ReducedMotion bool   `json:"reduced_motion"`
	QuickPaste    bool   `json:"quick_paste"`
}

// Defaults returns the initial preference state.
func Defaults() State {
	return State{
		Theme:      "dark",
		Language:   "en",
		QuickPaste: true,
	}
}

// Store manages the settings file. It is safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	state State
	path  string
}

// DefaultPath returns the settings file location under the user config dir.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "loom", "settings.json"), nil
}

// Open loads settings from path, falling back to defaults when the file does
// not exist or cannot be parsed.
func Open(path string) *Store {
	s := &Store{
		state: Defaults(),
		path:  path,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", path).Msg("Failed to read settings file, using defaults")
		}
		return s
	}

	var loaded State
	if err := json.Unmarshal(data, &loaded); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Settings file is corrupt, using defaults")
		return s
	}

	s.state = loaded
	return s
}

// Get returns a copy of the current state.
func (s *Store) Get() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Set replaces the state and persists it.
func (s *Store) Set(state State) error {
	if err := validate(state); err != nil {
		return err
	}

	s.mu.Lock()
	s.state = state
	s.mu.Unlock()

	return s.save()
}

func validate(state State) error {
	switch state.Theme {
	case "light", "dark", "system":
	default:
		return fmt.Errorf("invalid theme %q", state.Theme)
	}
	if state.Language == "" {
		return fmt.Errorf("language is required")
	}
	return nil
}

func (s *Store) save() error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.state, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	// Write-then-rename so a crash mid-write never corrupts the file.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return os.Rename(tmp, s.path)
}
