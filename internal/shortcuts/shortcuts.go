// Package shortcuts persists named site/board favorites so frequent
// targets can be recalled by name.
package shortcuts

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/jonesrussell/crawldesk/internal/job"
)

// Shortcut is one saved crawl target.
type Shortcut struct {
	Name  string   `json:"name"`
	Site  job.Site `json:"site"`
	Board string   `json:"board"`
}

var (
	ErrNotFound = errors.New("shortcut not found")
	ErrExists   = errors.New("shortcut already exists")
)

// Store keeps shortcuts in a single JSON file, rewritten wholesale on
// every mutation.
type Store struct {
	path string

	mu   sync.Mutex
	list []Shortcut
}

// Open loads the shortcut file, creating state for an empty one when
// the file does not exist yet.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read shortcuts: %w", err)
	}
	if err := json.Unmarshal(data, &s.list); err != nil {
		return nil, fmt.Errorf("parse shortcuts: %w", err)
	}
	return s, nil
}

// List returns the shortcuts sorted by name.
func (s *Store) List() []Shortcut {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Shortcut, len(s.list))
	copy(out, s.list)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Get returns the shortcut with the given name.
func (s *Store) Get(name string) (Shortcut, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sc := range s.list {
		if strings.EqualFold(sc.Name, name) {
			return sc, nil
		}
	}
	return Shortcut{}, ErrNotFound
}

// Add saves a new shortcut. Names are unique, case-insensitive.
func (s *Store) Add(sc Shortcut) error {
	sc.Name = strings.TrimSpace(sc.Name)
	if sc.Name == "" {
		return errors.New("shortcut name is required")
	}
	if sc.Site == "" || strings.TrimSpace(sc.Board) == "" {
		return errors.New("shortcut needs a site and a board")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.list {
		if strings.EqualFold(existing.Name, sc.Name) {
			return ErrExists
		}
	}
	s.list = append(s.list, sc)
	return s.flush()
}

// Remove deletes a shortcut by name.
func (s *Store) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sc := range s.list {
		if strings.EqualFold(sc.Name, name) {
			s.list = append(s.list[:i], s.list[i+1:]...)
			return s.flush()
		}
	}
	return ErrNotFound
}

// flush writes the list out. Callers hold the lock.
func (s *Store) flush() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create shortcuts dir: %w", err)
	}
	data, err := json.MarshalIndent(s.list, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write shortcuts: %w", err)
	}
	return nil
}
