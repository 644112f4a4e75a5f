// Package store is the resource store the request handler reads and writes.
// Paths are relative to the store root; containment is the Fs's business.
package store

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

type Store interface {
	Exists(path string) bool
	IsDir(path string) bool
	ReadAll(path string) ([]byte, error)
	Append(path string, data []byte) error
	Overwrite(path string, data []byte) error
	LastModified(path string) (int64, error)
	// Create makes an empty file if none exists and reports whether it did.
	Create(path string) (bool, error)
}

type store struct {
	fs afero.Fs
}

func New(fs afero.Fs) Store {
	return &store{fs: fs}
}

// NewOS serves files under root. afero's BasePathFs rejects paths that
// escape it.
func NewOS(root string) (Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err = os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return New(afero.NewBasePathFs(afero.NewOsFs(), abs)), nil
}

func (s *store) Exists(path string) bool {
	ok, err := afero.Exists(s.fs, path)
	return err == nil && ok
}

func (s *store) IsDir(path string) bool {
	ok, err := afero.IsDir(s.fs, path)
	return err == nil && ok
}

func (s *store) ReadAll(path string) ([]byte, error) {
	return afero.ReadFile(s.fs, path)
}

func (s *store) Append(path string, data []byte) error {
	f, err := s.fs.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (s *store) Overwrite(path string, data []byte) error {
	return afero.WriteFile(s.fs, path, data, 0o644)
}

func (s *store) LastModified(path string) (int64, error) {
	info, err := s.fs.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.ModTime().Unix(), nil
}

func (s *store) Create(path string) (bool, error) {
	f, err := s.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, f.Close()
}
