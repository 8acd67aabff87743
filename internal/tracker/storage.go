package tracker

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrSlotEmpty is returned by Storage.Load when nothing was stored yet.
var ErrSlotEmpty = errors.New("storage slot is empty")

// Storage is durable key/value storage for serialized boards.
type Storage interface {
	Load(slot string) ([]byte, error)
	Store(slot string, data []byte) error
}

// FileStorage keeps each slot in a JSON file inside Dir.
type FileStorage struct {
	Dir string
}

// NewFileStorage creates the directory if needed.
func NewFileStorage(dir string) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &FileStorage{Dir: dir}, nil
}

func (s *FileStorage) path(slot string) string {
	return filepath.Join(s.Dir, slot+".json")
}

// Load reads a slot.
func (s *FileStorage) Load(slot string) ([]byte, error) {
	data, err := os.ReadFile(s.path(slot))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("read slot %s: %w", slot, err)
	}
	return data, nil
}

// Store replaces a slot atomically through a temp file rename.
func (s *FileStorage) Store(slot string, data []byte) error {
	tmp, err := os.CreateTemp(s.Dir, slot+".*.tmp")
	if err != nil {
		return fmt.Errorf("write slot %s: %w", slot, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write slot %s: %w", slot, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write slot %s: %w", slot, err)
	}
	if err := os.Rename(tmp.Name(), s.path(slot)); err != nil {
		return fmt.Errorf("write slot %s: %w", slot, err)
	}
	return nil
}

// MemoryStorage is an in-process Storage.
type MemoryStorage struct {
	mu    sync.Mutex
	slots map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{slots: map[string][]byte{}}
}

func (m *MemoryStorage) Load(slot string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.slots[slot]
	if !ok {
		return nil, ErrSlotEmpty
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryStorage) Store(slot string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[slot] = append([]byte(nil), data...)
	return nil
}
