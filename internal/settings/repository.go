package settings

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrNotFound is returned by Load when no collection is stored under a key.
// It is recoverable: callers fall back to Defaults.
var ErrNotFound = errors.New("settings: not found")

// Repository persists whole collections under an external key such as a
// scene name. Save replaces the stored collection in one operation.
type Repository interface {
	Load(key string) (Collection, error)
	Save(key string, c Collection) error
}

// Lister is implemented by repositories that can enumerate their keys.
type Lister interface {
	Keys() ([]string, error)
}

// Resolve loads the collection for key, substituting defaults when nothing is
// stored. The boolean reports whether a stored collection was found.
func Resolve(repo Repository, key string) (Collection, bool, error) {
	if repo == nil {
		return Defaults(), false, nil
	}
	c, err := repo.Load(key)
	if errors.Is(err, ErrNotFound) {
		slog.Info("no stored noise settings, using defaults", "key", key)
		return Defaults(), false, nil
	}
	if err != nil {
		return Collection{}, false, fmt.Errorf("settings: resolve %q: %w", key, err)
	}
	return c, true, nil
}

// collectionFile is the serialized form, {"settings": [...]}.
type collectionFile struct {
	Settings []NoiseSettings `json:"settings"`
}
