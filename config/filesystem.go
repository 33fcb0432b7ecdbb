package config

import (
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileSystem is the slice of the OS the config loader touches, injectable for tests.
type FileSystem interface {
	ReadFile(filename string) ([]byte, error)
	WriteFile(filename string, data []byte, perm os.FileMode) error
	Stat(filename string) (os.FileInfo, error)
	MkdirAll(path string, perm os.FileMode) error
	UserHomeDir() (string, error)
	UserConfigDir() (string, error)
	Getwd() (string, error)
}

// OsFileSystem is the production FileSystem.
type OsFileSystem struct{}

func (*OsFileSystem) ReadFile(filename string) ([]byte, error) { return os.ReadFile(filename) }
func (*OsFileSystem) WriteFile(filename string, data []byte, perm os.FileMode) error {
	return os.WriteFile(filename, data, perm)
}
func (*OsFileSystem) Stat(filename string) (os.FileInfo, error)    { return os.Stat(filename) }
func (*OsFileSystem) MkdirAll(path string, perm os.FileMode) error { return os.MkdirAll(path, perm) }
func (*OsFileSystem) UserHomeDir() (string, error)                 { return os.UserHomeDir() }
func (*OsFileSystem) UserConfigDir() (string, error)               { return os.UserConfigDir() }
func (*OsFileSystem) Getwd() (string, error)                       { return os.Getwd() }

// MemFileSystem keeps files in memory so loader tests never touch the user's real config.
type MemFileSystem struct {
	mu    sync.RWMutex
	files map[string][]byte
	dirs  map[string]bool

	homeDir    string
	configDir  string
	currentDir string
}

// NewMemFileSystem creates an empty in-memory filesystem rooted at a fake home directory
func NewMemFileSystem() *MemFileSystem {
	return &MemFileSystem{
		files:      make(map[string][]byte),
		dirs:       make(map[string]bool),
		homeDir:    "/home/player",
		configDir:  "/home/player/.config",
		currentDir: "/",
	}
}

// SetConfigDir overrides the reported user config directory
func (fs *MemFileSystem) SetConfigDir(dir string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.configDir = dir
}

// SetCurrentDir overrides the reported working directory
func (fs *MemFileSystem) SetCurrentDir(dir string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.currentDir = dir
}

func (fs *MemFileSystem) ReadFile(filename string) ([]byte, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	filename = filepath.Clean(filename)
	data, ok := fs.files[filename]
	if !ok {
		return nil, &os.PathError{Op: "open", Path: filename, Err: os.ErrNotExist}
	}
	return append([]byte(nil), data...), nil
}

func (fs *MemFileSystem) WriteFile(filename string, data []byte, perm os.FileMode) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	filename = filepath.Clean(filename)
	if dir := filepath.Dir(filename); dir != "." && dir != "/" {
		fs.dirs[dir] = true
	}
	fs.files[filename] = append([]byte(nil), data...)
	return nil
}

func (fs *MemFileSystem) Stat(filename string) (os.FileInfo, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	filename = filepath.Clean(filename)
	if data, ok := fs.files[filename]; ok {
		return &memFileInfo{name: filepath.Base(filename), size: int64(len(data))}, nil
	}
	if fs.dirs[filename] {
		return &memFileInfo{name: filepath.Base(filename), isDir: true}, nil
	}
	return nil, &os.PathError{Op: "stat", Path: filename, Err: os.ErrNotExist}
}

func (fs *MemFileSystem) MkdirAll(path string, perm os.FileMode) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.dirs[filepath.Clean(path)] = true
	return nil
}

func (fs *MemFileSystem) UserHomeDir() (string, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.homeDir, nil
}

func (fs *MemFileSystem) UserConfigDir() (string, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.configDir, nil
}

func (fs *MemFileSystem) Getwd() (string, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.currentDir, nil
}

type memFileInfo struct {
	name  string
	size  int64
	isDir bool
}

func (fi *memFileInfo) Name() string { return fi.name }
func (fi *memFileInfo) Size() int64  { return fi.size }
func (fi *memFileInfo) Mode() os.FileMode {
	if fi.isDir {
		return os.ModeDir | 0o700
	}
	return 0o600
}
func (fi *memFileInfo) ModTime() time.Time { return time.Time{} }
func (fi *memFileInfo) IsDir() bool        { return fi.isDir }
func (fi *memFileInfo) Sys() interface{}   { return nil }
