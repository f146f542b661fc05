package mocks

import (
	"io/fs"
	"path"
	"slices"
	"sync"

	"github.com/Adc-alt/espcam/pkg/ports"
)

// FileSystem is an in-memory ports.FileSystem. Paths are cleaned with
// path.Clean, so "out/./a.mp4" and "out/a.mp4" name the same file.
type FileSystem struct {
	mu      sync.RWMutex
	files   map[string][]byte
	dirs    map[string]bool
	written []string

	ReadFileFunc  func(path string) ([]byte, error)
	WriteFileFunc func(path string, data []byte) error
	MkdirAllFunc  func(path string) error
	ExistsFunc    func(path string) (bool, error)
	RemoveFunc    func(path string) error
}

// NewFileSystem creates an empty FileSystem.
func NewFileSystem() *FileSystem {
	return &FileSystem{
		files: make(map[string][]byte),
		dirs:  map[string]bool{".": true},
	}
}

// ReadFile returns a *fs.PathError wrapping fs.ErrNotExist for unknown
// paths, like os.ReadFile.
func (m *FileSystem) ReadFile(name string) ([]byte, error) {
	if m.ReadFileFunc != nil {
		return m.ReadFileFunc(name)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[path.Clean(name)]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return data, nil
}

// WriteFile stores a copy of data.
func (m *FileSystem) WriteFile(name string, data []byte) error {
	if m.WriteFileFunc != nil {
		return m.WriteFileFunc(name, data)
	}
	name = path.Clean(name)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = slices.Clone(data)
	m.written = append(m.written, name)
	return nil
}

// MkdirAll marks dir and all of its parents as existing.
func (m *FileSystem) MkdirAll(dir string) error {
	if m.MkdirAllFunc != nil {
		return m.MkdirAllFunc(dir)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for d := path.Clean(dir); !m.dirs[d]; d = path.Dir(d) {
		m.dirs[d] = true
	}
	return nil
}

func (m *FileSystem) Exists(name string) (bool, error) {
	if m.ExistsFunc != nil {
		return m.ExistsFunc(name)
	}
	name = path.Clean(name)
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, isFile := m.files[name]
	return isFile || m.dirs[name], nil
}

func (m *FileSystem) Remove(name string) error {
	if m.RemoveFunc != nil {
		return m.RemoveFunc(name)
	}
	name = path.Clean(name)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[name]; ok {
		delete(m.files, name)
		return nil
	}
	if m.dirs[name] {
		delete(m.dirs, name)
		return nil
	}
	return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrNotExist}
}

// File returns the stored contents of name.
func (m *FileSystem) File(name string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[path.Clean(name)]
	return data, ok
}

// Written returns the cleaned paths passed to WriteFile, in call order.
func (m *FileSystem) Written() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.written)
}

var _ ports.FileSystem = (*FileSystem)(nil)
