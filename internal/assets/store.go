// Package assets removes media files from the asset root.
package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// ErrOutsideRoot is returned for paths that would escape the asset root
var ErrOutsideRoot = errors.New("path escapes asset root")

// Store deletes files under a root directory on an afero filesystem
type Store struct {
	fs   afero.Fs
	root string
	log  zerolog.Logger
}

// New creates a store on the OS filesystem
func New(root string, log zerolog.Logger) *Store {
	return NewWithFs(afero.NewOsFs(), root, log)
}

// NewWithFs creates a store on an arbitrary filesystem
func NewWithFs(fs afero.Fs, root string, log zerolog.Logger) *Store {
	return &Store{
		fs:   fs,
		root: filepath.Clean(root),
		log:  log.With().Str("component", "assets").Logger(),
	}
}

// resolve maps a stored asset path onto the filesystem. Stored paths are
// relative to the root; a leading slash is tolerated.
func (s *Store) resolve(p string) (string, error) {
	rel := filepath.Clean("/" + filepath.ToSlash(p))
	if rel == "/" {
		return "", fmt.Errorf("%w: %q", ErrOutsideRoot, p)
	}
	full := filepath.Join(s.root, rel)
	if full != s.root && !strings.HasPrefix(full, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrOutsideRoot, p)
	}
	return full, nil
}

// DeleteAsset removes one file. A file that is already gone is not an error.
func (s *Store) DeleteAsset(p string) error {
	full, err := s.resolve(p)
	if err != nil {
		return err
	}

	err = s.fs.Remove(full)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing %s: %w", p, err)
	}
	if err == nil {
		s.log.Debug().Str("path", p).Msg("Asset deleted")
	}
	return nil
}

// Exists reports whether an asset file is present
func (s *Store) Exists(p string) (bool, error) {
	full, err := s.resolve(p)
	if err != nil {
		return false, err
	}
	return afero.Exists(s.fs, full)
}
