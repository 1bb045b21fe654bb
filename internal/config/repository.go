package config

import (
	"fmt"
	"os"
	"path/filepath"

	"volumetric-clouds/internal/settings"
	"volumetric-clouds/internal/volume"
)

// OpenRepository returns the settings repository the config points at: the
// SQLite store when SettingsDB is set, otherwise the JSON file store. The
// returned function releases it.
func (c Config) OpenRepository() (settings.Repository, func() error, error) {
	if c.SettingsDB != "" {
		if err := os.MkdirAll(filepath.Dir(c.SettingsDB), 0755); err != nil {
			return nil, nil, fmt.Errorf("config: mkdir %s: %w", filepath.Dir(c.SettingsDB), err)
		}
		db, err := settings.OpenSQLStore(c.SettingsDB)
		if err != nil {
			return nil, nil, fmt.Errorf("config: open settings db: %w", err)
		}
		return db, db.Close, nil
	}
	return settings.NewFileStore(c.SettingsDir), func() error { return nil }, nil
}

// VolumeOptions builds the volume store options for the configured scene.
func (c Config) VolumeOptions(repo settings.Repository) volume.Options {
	return volume.Options{
		Repo:  repo,
		Key:   c.Scene,
		Sizes: [settings.NumTypes]int{c.ShapeSize, c.DetailSize},
	}
}
