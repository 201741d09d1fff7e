package cart

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const DefaultFileName = "cart_data.json"

// State is the persisted form of a cart.
type State struct {
	RestaurantID string `json:"restaurantId,omitempty"`
	TableNumber  *int   `json:"tableNumber,omitempty"`
	Name         string `json:"name"`
	Items        []Line `json:"items"`
}

type Storage interface {
	Load() (State, error)
	Save(State) error
}

// FileStorage keeps the cart as a JSON document on local disk.
type FileStorage struct {
	Path string
}

var _ Storage = (*FileStorage)(nil)

func NewFileStorage(path string) *FileStorage {
	return &FileStorage{Path: path}
}

// DefaultPath is cart_data.json under the user's config directory, falling
// back to the working directory.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return DefaultFileName
	}
	return filepath.Join(dir, "qrmenu", DefaultFileName)
}

// Load returns an empty state when nothing has been saved yet.
func (s *FileStorage) Load() (State, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return State{}, nil
	}
	if err != nil {
		return State{}, err
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, fmt.Errorf("corrupt cart file %s: %w", s.Path, err)
	}
	return state, nil
}

// Save replaces the file atomically.
func (s *FileStorage) Save(state State) error {
	if state.Items == nil {
		state.Items = []Line{}
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.Path), ".cart-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.Path)
}
