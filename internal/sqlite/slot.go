// This file implements the key/value slots that hold the serialized
// database image between runs.
package sqlite

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Slot is a local key/value store. Store overwrites the previous value
// completely.
type Slot interface {
	Load(key string) (data []byte, ok bool, err error)
	Store(key string, data []byte) error
}

// DirSlot keeps each key as a file in a directory.
type DirSlot struct {
	Dir string
}

// NewDirSlot returns a slot rooted at dir. The directory is created on the
// first Store.
func NewDirSlot(dir string) *DirSlot {
	return &DirSlot{Dir: dir}
}

func (s *DirSlot) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid slot key %q", key)
	}
	return filepath.Join(s.Dir, key), nil
}

// Load returns the value stored under key. A missing file is reported with
// ok == false and no error.
func (s *DirSlot) Load(key string) ([]byte, bool, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading slot %s: %w", key, err)
	}
	return data, true, nil
}

// Store writes the value with the temp-file, fsync, rename pattern so a
// crash leaves either the old or the new value, never a torn one.
func (s *DirSlot) Store(key string, data []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("creating slot dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.Dir, "."+key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	w := bufio.NewWriter(tmp)
	if _, err := w.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing slot: %w", err)
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("flushing buffer: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// MemorySlot keeps values in memory. Useful for tests and throwaway
// stores.
type MemorySlot struct {
	mu     sync.Mutex
	values map[string][]byte
	writes int
}

// NewMemorySlot returns an empty in-memory slot.
func NewMemorySlot() *MemorySlot {
	return &MemorySlot{values: make(map[string][]byte)}
}

// Load returns a copy of the stored value.
func (s *MemorySlot) Load(key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Store replaces the value under key.
func (s *MemorySlot) Store(key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.values == nil {
		s.values = make(map[string][]byte)
	}
	s.values[key] = append([]byte(nil), data...)
	s.writes++
	return nil
}

// Writes returns how many times Store has been called.
func (s *MemorySlot) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
