// Package metadata keeps the labelled/shared flags of session folders.
package metadata

import (
	"fmt"
	"sort"
	"sync"
)

// Entry is the bookkeeping for one session folder.
type Entry struct {
	Labelled bool
	Shared   bool
}

// Backend persists the whole map. Load runs once when the store is built and
// Save after every mutation.
type Backend interface {
	Load() (map[string]Entry, error)
	Save(entries map[string]Entry) error
}

// Store is a keyed map of folder name to Entry backed by durable storage.
type Store struct {
	backend Backend

	mu      sync.RWMutex
	entries map[string]Entry
}

// NewStore loads the current entries from backend.
func NewStore(backend Backend) (*Store, error) {
	entries, err := backend.Load()
	if err != nil {
		return nil, fmt.Errorf("load metadata: %w", err)
	}
	if entries == nil {
		entries = make(map[string]Entry)
	}
	return &Store{backend: backend, entries: entries}, nil
}

// Get returns the entry for folder and whether one exists.
func (s *Store) Get(folder string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[folder]
	return e, ok
}

// SetLabelled sets the labelled flag of folder, creating the entry if needed.
func (s *Store) SetLabelled(labelled bool, folder string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entries[folder]
	e.Labelled = labelled
	s.entries[folder] = e
	return s.save()
}

// MarkShared sets shared on every folder given.
func (s *Store) MarkShared(folders ...string) error {
	if len(folders) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, folder := range folders {
		e := s.entries[folder]
		e.Shared = true
		s.entries[folder] = e
	}
	return s.save()
}

// Delete removes folder's entry. Deleting an absent entry is not an error.
func (s *Store) Delete(folder string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[folder]; !ok {
		return nil
	}
	delete(s.entries, folder)
	return s.save()
}

// Folders returns the names with an entry, sorted.
func (s *Store) Folders() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Store) save() error {
	snapshot := make(map[string]Entry, len(s.entries))
	for k, v := range s.entries {
		snapshot[k] = v
	}
	if err := s.backend.Save(snapshot); err != nil {
		return fmt.Errorf("save metadata: %w", err)
	}
	return nil
}

// MemoryBackend keeps entries in process memory.
type MemoryBackend struct {
	mu      sync.Mutex
	entries map[string]Entry
	Saves   int
}

func (m *MemoryBackend) Load() (map[string]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]Entry, len(m.entries))
	for k, v := range m.entries {
		out[k] = v
	}
	return out, nil
}

func (m *MemoryBackend) Save(entries map[string]Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = entries
	m.Saves++
	return nil
}
