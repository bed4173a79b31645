package secretstore

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// FileBackend stores one secret per file under Dir with owner-only
// permissions. Keys must be plain path-safe names; everything this module
// writes ("auth_session", shard keys) qualifies.
type FileBackend struct {
	Dir string
}

func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	return &FileBackend{Dir: dir}, nil
}

func (f *FileBackend) path(key string) string {
	return filepath.Join(f.Dir, key)
}

func (f *FileBackend) Get(key string) (string, error) {
	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (f *FileBackend) Set(key, value string) error {
	return os.WriteFile(f.path(key), []byte(value), 0600)
}

func (f *FileBackend) Delete(key string) error {
	err := os.Remove(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	return err
}

// MemBackend is an in-memory Backend for tests.
type MemBackend struct {
	Entries map[string]string
	FailSet error
}

func (m *MemBackend) Get(key string) (string, error) {
	v, ok := m.Entries[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MemBackend) Set(key, value string) error {
	if m.FailSet != nil {
		return m.FailSet
	}
	if m.Entries == nil {
		m.Entries = make(map[string]string)
	}
	m.Entries[key] = value
	return nil
}

func (m *MemBackend) Delete(key string) error {
	if _, ok := m.Entries[key]; !ok {
		return ErrNotFound
	}
	delete(m.Entries, key)
	return nil
}
