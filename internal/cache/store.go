// Package cache provides small JSON-file backed lookup stores that remember
// both answers and confirmed absences.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// State distinguishes a key that was never looked up from one that was
// looked up and found to have no value.
type State int

const (
	Unknown State = iota
	Absent
	Present
)

func (s State) String() string {
	switch s {
	case Absent:
		return "absent"
	case Present:
		return "present"
	default:
		return "unknown"
	}
}

// Lookup is the result of Store.Get.
type Lookup[V any] struct {
	State State
	Value V
}

// Known reports whether the key has been resolved, positively or not.
func (l Lookup[V]) Known() bool { return l.State != Unknown }

// Store is a string-keyed map persisted as one JSON object. Negative entries
// are written as null.
type Store[V any] struct {
	path    string
	mu      sync.RWMutex
	entries map[string]*V
	dirty   bool
}

// New returns an empty store persisted at path. Call Load to read it.
func New[V any](path string) *Store[V] {
	return &Store[V]{path: path, entries: make(map[string]*V)}
}

// NewMemory returns a store that never reads or writes disk.
func NewMemory[V any]() *Store[V] {
	return New[V]("")
}

// Path returns the backing file, or "" for memory-only stores.
func (s *Store[V]) Path() string { return s.path }

// Load replaces the in-memory entries with the file contents. A missing
// file leaves the store empty and returns nil. An unreadable or corrupt
// file also leaves it empty but the error is returned so callers can warn.
func (s *Store[V]) Load() error {
	if s.path == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*V)
	s.dirty = false

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read cache %s: %w", s.path, err)
	}

	var out map[string]*V
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("failed to parse cache %s: %w", s.path, err)
	}
	if out != nil {
		s.entries = out
	}
	return nil
}

// Save writes the store atomically when it has unsaved changes.
func (s *Store[V]) Save() error {
	if s.path == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp cache: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to save cache %s: %w", s.path, err)
	}

	s.dirty = false
	return nil
}

// Get reports what the store knows about key.
func (s *Store[V]) Get(key string) Lookup[V] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.entries[key]
	switch {
	case !ok:
		return Lookup[V]{State: Unknown}
	case v == nil:
		return Lookup[V]{State: Absent}
	default:
		return Lookup[V]{State: Present, Value: *v}
	}
}

// Put records a value for key.
func (s *Store[V]) Put(key string, v V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = &v
	s.dirty = true
}

// PutAbsent records that key has no value.
func (s *Store[V]) PutAbsent(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = nil
	s.dirty = true
}

// Len returns the number of entries, negative ones included.
func (s *Store[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
