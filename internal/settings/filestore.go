package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// FileStore keeps one JSON file per key under Dir, named <key>.json.
type FileStore struct {
	Dir string
}

// NewFileStore returns a store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

// Path returns the file backing key.
func (s *FileStore) Path(key string) string {
	return filepath.Join(s.Dir, sanitizeKey(key)+".json")
}

// Load reads the collection for key. Missing files yield ErrNotFound.
func (s *FileStore) Load(key string) (Collection, error) {
	path := s.Path(key)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Collection{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return Collection{}, fmt.Errorf("settings: read %s: %w", path, err)
	}

	var file collectionFile
	if err := json.Unmarshal(data, &file); err != nil {
		return Collection{}, fmt.Errorf("settings: parse %s: %w", path, err)
	}

	c, missing := FromRecords(file.Settings)
	if missing > 0 {
		slog.Warn("stored noise settings incomplete, defaults substituted", "path", path, "missing", missing)
	}
	return c, nil
}

// Save writes the whole collection. The file is written to a temporary name
// and renamed into place, so readers see either the old or the new file.
func (s *FileStore) Save(key string, c Collection) error {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("settings: mkdir %s: %w", s.Dir, err)
	}
	data, err := json.MarshalIndent(collectionFile{Settings: c.Records()}, "", "  ")
	if err != nil {
		return fmt.Errorf("settings: encode: %w", err)
	}

	path := s.Path(key)
	tmp, err := os.CreateTemp(s.Dir, ".settings-*.json")
	if err != nil {
		return fmt.Errorf("settings: create temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("settings: write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("settings: close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("settings: rename %s: %w", path, err)
	}
	return nil
}

// Keys lists every key with a stored file. A missing directory has no keys.
func (s *FileStore) Keys() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("settings: list %s: %w", s.Dir, err)
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != ".json" {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, ".json"))
	}
	return keys, nil
}

// sanitizeKey keeps scene names usable as file names.
func sanitizeKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return "default"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, key)
}
