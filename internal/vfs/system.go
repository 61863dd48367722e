// Package vfs is the file system the build reads sources from and writes
// outputs to.
package vfs

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// System is the file access a build needs.
type System interface {
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte) error
	DeleteFile(path string) error
	FileExists(path string) bool
	DirectoryExists(path string) bool
}

// FS implements System over an afero file system.
type FS struct {
	fs afero.Fs
}

// New wraps fs. A nil fs means the host file system.
func New(fs afero.Fs) *FS {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &FS{fs: fs}
}

// Afero returns the underlying file system.
func (s *FS) Afero() afero.Fs {
	return s.fs
}

// ReadFile reads the whole file.
func (s *FS) ReadFile(path string) ([]byte, error) {
	return afero.ReadFile(s.fs, path)
}

// WriteFile writes data, creating parent directories as needed.
func (s *FS) WriteFile(path string, data []byte) error {
	if err := s.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return afero.WriteFile(s.fs, path, data, 0644)
}

// DeleteFile removes a file. Removing a missing file is not an error.
func (s *FS) DeleteFile(path string) error {
	err := s.fs.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// FileExists reports whether path exists and is not a directory.
func (s *FS) FileExists(path string) bool {
	info, err := s.fs.Stat(path)
	return err == nil && !info.IsDir()
}

// DirectoryExists reports whether path exists and is a directory.
func (s *FS) DirectoryExists(path string) bool {
	info, err := s.fs.Stat(path)
	return err == nil && info.IsDir()
}

// Check is the recorded result of one existence check.
type Check struct {
	Path   string `json:"path"`
	Dir    bool   `json:"dir,omitempty"`
	Exists bool   `json:"exists"`
}

// Holds reports whether the check still gives the recorded result.
func (c Check) Holds(sys System) bool {
	if c.Dir {
		return sys.DirectoryExists(c.Path) == c.Exists
	}
	return sys.FileExists(c.Path) == c.Exists
}
