package snapshot

import (
	"fmt"
	"os"

	"liquidityCore/internal/storage"
)

// FileStore persists snapshots to a JSON file.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string { return s.path }

// Load returns the stored state, or false if none has been saved yet.
func (s *FileStore) Load() (State, bool, error) {
	if stat, err := os.Stat(s.path); err == nil && stat.IsDir() {
		return State{}, false, fmt.Errorf("snapshot path %s is a directory", s.path)
	}
	var state State
	found, err := storage.ReadJSONFile(s.path, &state)
	if err != nil {
		return State{}, false, fmt.Errorf("load snapshot: %w", err)
	}
	return state, found, nil
}

// Save replaces the stored state atomically.
func (s *FileStore) Save(state State) error {
	if err := storage.WriteJSONFile(s.path, state); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}
