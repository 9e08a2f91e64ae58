package blob

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"scribe/internal/fileutil"
)

// Store is a filesystem-backed blob store. Keys are slash-separated relative
// paths recorded in the catalog as window locators.
type Store struct {
	root string
}

// NewStore creates a blob store rooted at dir.
func NewStore(dir string) (*Store, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("blob store: root directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("blob store: create root: %w", err)
	}
	return &Store{root: dir}, nil
}

// WindowKey builds the canonical key for one window's audio payload.
func WindowKey(recordingID string, windowIndex int) string {
	return fmt.Sprintf("%s/window_%03d.wav", recordingID, windowIndex)
}

// Path resolves a key to an absolute filesystem path without touching disk.
func (s *Store) Path(key string) (string, error) {
	cleaned, err := s.cleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(cleaned)), nil
}

// Put moves a staged file into the store under key, replacing any previous
// payload. The source file is consumed.
func (s *Store) Put(key, sourcePath string) error {
	dest, err := s.Path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("blob store: create prefix: %w", err)
	}
	if err := os.Rename(sourcePath, dest); err == nil {
		return nil
	}
	// Rename fails across filesystems; fall back to copy + remove.
	if err := fileutil.CopyFile(sourcePath, dest); err != nil {
		return fmt.Errorf("blob store: store %s: %w", key, err)
	}
	return os.Remove(sourcePath)
}

// Exists reports whether the key holds a payload.
func (s *Store) Exists(key string) (bool, error) {
	path, err := s.Path(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// RemovePrefix deletes every payload under the given key prefix, e.g. all
// windows of one recording.
func (s *Store) RemovePrefix(prefix string) error {
	cleaned, err := s.cleanKey(prefix)
	if err != nil {
		return err
	}
	return os.RemoveAll(filepath.Join(s.root, filepath.FromSlash(cleaned)))
}

func (s *Store) cleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("blob store: empty key")
	}
	cleaned := filepath.ToSlash(filepath.Clean(key))
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") || strings.HasPrefix(cleaned, "/") {
		return "", fmt.Errorf("blob store: invalid key %q", key)
	}
	return cleaned, nil
}
