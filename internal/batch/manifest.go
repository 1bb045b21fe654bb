package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

// Manifest describes one animation run.
type Manifest struct {
	RunID    string          `json:"run_id"`
	Scene    string          `json:"scene"`
	Created  time.Time       `json:"created"`
	Width    int             `json:"width"`
	Height   int             `json:"height"`
	FPS      float64         `json:"fps"`
	Settings string          `json:"settings_digest,omitempty"`
	Frames   []ManifestEntry `json:"frames"`
}

// ManifestEntry represents one rendered frame in the output manifest.
type ManifestEntry struct {
	Index    int     `json:"index"`
	Time     float64 `json:"time"`
	Image    string  `json:"image"`
	Coverage float64 `json:"coverage"`
}

// NewManifest builds the manifest of a finished run. Failed frames are left out.
func NewManifest(scene string, cfg Config, results []Result) Manifest {
	m := Manifest{
		RunID:   uuid.NewString(),
		Scene:   scene,
		Created: time.Now().UTC(),
		Width:   cfg.Width,
		Height:  cfg.Height,
		FPS:     cfg.FPS,
		Frames:  []ManifestEntry{},
	}
	for _, r := range results {
		if !r.Success {
			continue
		}
		m.Frames = append(m.Frames, ManifestEntry{
			Index:    r.Index,
			Time:     r.Time,
			Image:    r.Image,
			Coverage: r.Coverage,
		})
	}
	return m
}

// WriteManifest writes manifest.json to the output directory.
func WriteManifest(path string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("batch: write manifest %s: %w", path, err)
	}
	return nil
}
