package imagestore

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"github.com/spf13/afero"
)

const fileExtension = ".jpg"

// ErrNotFound is returned when no image file exists for an id.
var ErrNotFound = errors.New("image not found")

var validID = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// Store keeps one JPEG per photo, named <id>.jpg, in a single directory.
type Store struct {
	fs  afero.Fs
	dir string
}

// NewStore returns a store rooted at dir on the OS filesystem, creating dir if needed.
func NewStore(dir string) (*Store, error) {
	return NewStoreWithFs(afero.NewOsFs(), dir)
}

// NewStoreWithFs is NewStore on an arbitrary filesystem.
func NewStoreWithFs(fsys afero.Fs, dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("image directory must not be empty")
	}
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image directory %s: %w", dir, err)
	}
	return &Store{fs: fsys, dir: dir}, nil
}

// Path returns the file path for id.
func (s *Store) Path(id string) string {
	return filepath.Join(s.dir, id+fileExtension)
}

// Save writes data as <id>.jpg, replacing an existing file.
func (s *Store) Save(id string, data []byte) error {
	if !validID.MatchString(id) {
		return fmt.Errorf("invalid image id %q", id)
	}
	path := s.Path(id)
	// temp file + rename keeps readers from seeing a partial image
	tmp := path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write image %s: %w", id, err)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("failed to move image %s into place: %w", id, err)
	}
	slog.Debug("image saved", "id", id, "path", path, "size_bytes", len(data))
	return nil
}

// Load reads <id>.jpg.
func (s *Store) Load(id string) ([]byte, error) {
	if !validID.MatchString(id) {
		return nil, fmt.Errorf("image %q: %w", id, ErrNotFound)
	}
	data, err := afero.ReadFile(s.fs, s.Path(id))
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("image %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read image %s: %w", id, err)
	}
	return data, nil
}

// Exists reports whether <id>.jpg is present.
func (s *Store) Exists(id string) bool {
	if !validID.MatchString(id) {
		return false
	}
	ok, err := afero.Exists(s.fs, s.Path(id))
	return err == nil && ok
}

// Delete removes <id>.jpg. A missing file yields ErrNotFound.
func (s *Store) Delete(id string) error {
	if !validID.MatchString(id) {
		return fmt.Errorf("image %q: %w", id, ErrNotFound)
	}
	err := s.fs.Remove(s.Path(id))
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("image %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to delete image %s: %w", id, err)
	}
	slog.Debug("image deleted", "id", id)
	return nil
}
