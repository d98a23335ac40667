// Package workspace reads and writes manifests inside a directory holding
// one checkout per repository.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// ErrWriteFailure is returned when a rewritten manifest could not be persisted.
var ErrWriteFailure = errors.New("write failure")

const tempPattern = ".bumpwright-*"

// Store gives access to the manifests of a workspace. Writes are atomic per
// file: the new content goes to a temporary file next to the target, which is
// then renamed into place.
type Store struct {
	fs  afero.Fs
	log *zap.Logger
}

// New returns a store rooted at root on fs. A nil fs means the OS file
// system; an empty root means the current directory.
func New(fs afero.Fs, root string, log *zap.Logger) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if root != "" && root != "." {
		fs = afero.NewBasePathFs(fs, root)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{fs: fs, log: log}
}

// ManifestPath returns the location of a package manifest relative to the
// workspace root.
func ManifestPath(repository, path, name string) string {
	return filepath.Join(repository, path, name)
}

// Read returns the whole content of the file at path.
func (s *Store) Read(path string) (string, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

// Write replaces the file at path with text. The file keeps its permissions;
// new files are created 0644. On failure the original is left untouched.
func (s *Store) Write(path, text string) error {
	mode := os.FileMode(0o644)
	if fi, err := s.fs.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}

	dir := filepath.Dir(path)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: ensuring directory for %s: %v", ErrWriteFailure, path, err)
	}

	tmp, err := afero.TempFile(s.fs, dir, tempPattern)
	if err != nil {
		return fmt.Errorf("%w: staging %s: %v", ErrWriteFailure, path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		s.discard(tmpName)
		return fmt.Errorf("%w: writing %s: %v", ErrWriteFailure, path, err)
	}
	if err := tmp.Close(); err != nil {
		s.discard(tmpName)
		return fmt.Errorf("%w: closing %s: %v", ErrWriteFailure, path, err)
	}
	if err := s.fs.Chmod(tmpName, mode); err != nil {
		s.discard(tmpName)
		return fmt.Errorf("%w: setting mode on %s: %v", ErrWriteFailure, path, err)
	}
	if err := s.fs.Rename(tmpName, path); err != nil {
		s.discard(tmpName)
		return fmt.Errorf("%w: replacing %s: %v", ErrWriteFailure, path, err)
	}

	s.log.Debug("wrote file", zap.String("path", path), zap.Int("bytes", len(text)))
	return nil
}

func (s *Store) discard(name string) {
	if err := s.fs.Remove(name); err != nil {
		s.log.Warn("could not remove temporary file", zap.String("path", name), zap.Error(err))
	}
}
