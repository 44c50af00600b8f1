package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/smallnest/langfix/store"
)

// FileTrailStore writes one JSON file per trail into a directory.
type FileTrailStore struct {
	dir string
	mu  sync.RWMutex
}

// NewFileTrailStore creates the directory if needed and returns a store rooted there.
func NewFileTrailStore(dir string) (store.TrailStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create trail directory: %w", err)
	}
	return &FileTrailStore{dir: dir}, nil
}

// path maps a trail ID to its file. IDs that could name a file outside the
// directory are rejected.
func (f *FileTrailStore) path(trailID string) (string, error) {
	if trailID == "" || strings.ContainsAny(trailID, `/\`) || trailID != filepath.Base(trailID) {
		return "", fmt.Errorf("invalid trail ID %q", trailID)
	}
	return filepath.Join(f.dir, trailID+".json"), nil
}

// Save writes the trail to <dir>/<ID>.json.
func (f *FileTrailStore) Save(_ context.Context, trail *store.Trail) error {
	if trail == nil || trail.ID == "" {
		return fmt.Errorf("trail must have an ID")
	}
	path, err := f.path(trail.ID)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(trail, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal trail: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write trail: %w", err)
	}
	return nil
}

// Load reads a trail by ID.
func (f *FileTrailStore) Load(_ context.Context, trailID string) (*store.Trail, error) {
	path, err := f.path(trailID)
	if err != nil {
		return nil, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.read(path, trailID)
}

func (f *FileTrailStore) read(path, trailID string) (*store.Trail, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", store.ErrTrailNotFound, trailID)
		}
		return nil, fmt.Errorf("failed to read trail: %w", err)
	}

	var trail store.Trail
	if err := json.Unmarshal(data, &trail); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trail: %w", err)
	}
	return &trail, nil
}

// List scans the directory for trails of the given session.
func (f *FileTrailStore) List(_ context.Context, sessionID string) ([]*store.Trail, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.list(sessionID)
}

func (f *FileTrailStore) list(sessionID string) ([]*store.Trail, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read trail directory: %w", err)
	}

	trails := make([]*store.Trail, 0)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")
		trail, err := f.read(filepath.Join(f.dir, entry.Name()), id)
		if err != nil {
			// skip files that are not trails
			continue
		}
		if trail.SessionID == sessionID {
			trails = append(trails, trail)
		}
	}
	store.SortByTimestamp(trails)
	return trails, nil
}

// Delete removes a trail file.
func (f *FileTrailStore) Delete(_ context.Context, trailID string) error {
	path, err := f.path(trailID)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", store.ErrTrailNotFound, trailID)
		}
		return fmt.Errorf("failed to delete trail: %w", err)
	}
	return nil
}

// Clear removes every trail file of a session.
func (f *FileTrailStore) Clear(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	trails, err := f.list(sessionID)
	if err != nil {
		return err
	}
	for _, t := range trails {
		path, err := f.path(t.ID)
		if err != nil {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete trail %s: %w", t.ID, err)
		}
	}
	return nil
}
