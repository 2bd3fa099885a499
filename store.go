// FILE: lixenwraith/iniconf/store.go
package iniconf

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
)

// FileStore is the byte-level file boundary the engine reads and writes through.
// Paths are opaque keys, usually relative to some root the store owns.
type FileStore interface {
	Exists(path string) (bool, error)
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte) error
}

// Locker is implemented by stores that can hold a cross-process lock on a path.
type Locker interface {
	Lock(path string) (unlock func() error, err error)
}

// PathKeyer gives the identity used to serialize in-process operations on a path.
// Stores that do not implement it are keyed by the bare path.
type PathKeyer interface {
	Key(path string) string
}

// DirStore is a FileStore on the local file system. Relative paths are resolved
// against Root; rewrites go through a temporary file and an atomic rename.
type DirStore struct {
	Root string
	Perm fs.FileMode
}

// NewDirStore returns a store rooted at dir. An empty dir means the working directory.
func NewDirStore(dir string) *DirStore {
	return &DirStore{Root: dir, Perm: 0644}
}

func (s *DirStore) resolve(path string) string {
	if s.Root == "" || filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(s.Root, path)
}

// Exists reports whether path exists and is a regular file.
func (s *DirStore) Exists(path string) (bool, error) {
	info, err := os.Stat(s.resolve(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat config file '%s': %w", path, err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("config path '%s' is a directory", path)
	}
	return true, nil
}

// ReadFile returns the content of path.
func (s *DirStore) ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(s.resolve(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}
	return data, nil
}

// WriteFile atomically replaces path with data, creating parent directories.
func (s *DirStore) WriteFile(path string, data []byte) error {
	perm := s.Perm
	if perm == 0 {
		perm = 0644
	}
	return atomicWriteFile(s.resolve(path), data, perm)
}

// Lock takes an advisory lock on "<path>.lock", blocking until it is acquired.
func (s *DirStore) Lock(path string) (func() error, error) {
	target := s.resolve(path)
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory '%s': %w", filepath.Dir(target), err)
	}
	fl := flock.New(target + ".lock")
	if err := fl.Lock(); err != nil {
		return nil, fmt.Errorf("failed to lock config file '%s': %w", path, err)
	}
	return fl.Unlock, nil
}

// Key identifies path by its absolute location.
func (s *DirStore) Key(path string) string {
	target := s.resolve(path)
	if abs, err := filepath.Abs(target); err == nil {
		return abs
	}
	return target
}

// atomicWriteFile performs atomic file write
func atomicWriteFile(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory '%s': %w", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file in '%s': %w", dir, err)
	}

	tempPath := tempFile.Name()
	renamed := false
	defer func() {
		if !renamed {
			os.Remove(tempPath)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to write temporary file '%s': %w", tempPath, err)
	}

	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to sync temporary file '%s': %w", tempPath, err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file '%s': %w", tempPath, err)
	}

	if err := os.Chmod(tempPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions on '%s': %w", tempPath, err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename '%s' to '%s': %w", tempPath, path, err)
	}
	renamed = true

	return nil
}

// MemStore is an in-memory FileStore, useful for tests and for hosts that keep
// configuration text somewhere other than a file.
type MemStore struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{files: make(map[string][]byte)}
}

func (s *MemStore) Exists(path string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.files[path]
	return ok, nil
}

func (s *MemStore) ReadFile(path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.files[path]
	if !ok {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, fs.ErrNotExist)
	}
	return append([]byte(nil), data...), nil
}

func (s *MemStore) WriteFile(path string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = append([]byte(nil), data...)
	return nil
}

// Key scopes path to this store instance.
func (s *MemStore) Key(path string) string {
	return fmt.Sprintf("mem:%p:%s", s, path)
}

var pathLocks sync.Map // key -> *sync.Mutex

// lockPath serializes in-process operations on one store path.
func lockPath(store FileStore, path string) func() {
	key := path
	if k, ok := store.(PathKeyer); ok {
		key = k.Key(path)
	}
	m, _ := pathLocks.LoadOrStore(key, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

var (
	_ FileStore = (*DirStore)(nil)
	_ Locker    = (*DirStore)(nil)
	_ PathKeyer = (*DirStore)(nil)
	_ FileStore = (*MemStore)(nil)
	_ PathKeyer = (*MemStore)(nil)
)
