package storage

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"hg-go/internal/hg"
)

// MemoryStorage is an in-memory implementation of the Storage interface.
// It is useful for testing and safe for concurrent use.
type MemoryStorage struct {
	files map[string][]byte
	mu    sync.RWMutex
}

// NewMemoryStorage creates a new empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{files: make(map[string][]byte)}
}

// Put stores r under name.
func (m *MemoryStorage) Put(name string, r io.Reader, size int64) error {
	if err := validName(name); err != nil {
		return err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read content: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = data
	return nil
}

// Get writes the content stored under name to w.
func (m *MemoryStorage) Get(name string, w io.Writer) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.files[name]
	if !ok {
		return fmt.Errorf("%s: %w", name, hg.ErrNotFound)
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write content: %w", err)
	}
	return nil
}

// Exists reports whether name is stored.
func (m *MemoryStorage) Exists(name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[name]
	return ok, nil
}

// List returns all stored names starting with prefix.
func (m *MemoryStorage) List(prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var names []string
	for name := range m.files {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// ValidateSetup always succeeds for in-memory storage.
func (m *MemoryStorage) ValidateSetup() error {
	return nil
}

// Compile-time check that MemoryStorage implements hg.Storage interface
var _ hg.Storage = (*MemoryStorage)(nil)
