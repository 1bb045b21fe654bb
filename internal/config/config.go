package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"volumetric-clouds/internal/clouds"
	"volumetric-clouds/internal/mathutil"
)

// Config holds all configurable paths, volume sizes and render settings.
type Config struct {
	// Paths
	BaseDir     string `json:"base_dir"`
	SettingsDir string `json:"settings_dir"`
	SettingsDB  string `json:"settings_db"` // SQLite store, used instead of SettingsDir when set
	BlueNoise   string `json:"blue_noise"`
	OutputDir   string `json:"output_dir"`
	Scene       string `json:"scene"`

	// Volume
	ShapeSize  int `json:"shape_size"`
	DetailSize int `json:"detail_size"`

	// Render settings
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Supersample int     `json:"supersample"`
	Exposure    float64 `json:"exposure"`
	Format      string  `json:"format"`
	WriteEXR    bool    `json:"write_exr"`
	Workers     int     `json:"workers"`
	Frames      int     `json:"frames"`
	FPS         float64 `json:"fps"`

	Box    *BoxTransform `json:"box,omitempty"`
	Sun    *SunAngles    `json:"sun,omitempty"`
	Camera clouds.Camera `json:"camera"`
	Sky    clouds.Sky    `json:"sky"`
	Clouds clouds.Params `json:"clouds"`
}

// BoxTransform places the cloud container like a scaled scene object.
type BoxTransform struct {
	Position mathutil.Vec3 `json:"position"`
	Size     mathutil.Vec3 `json:"size"`
}

// SunAngles gives the light direction as compass yaw and elevation, in degrees.
type SunAngles struct {
	Yaw   float64 `json:"yaw"`
	Pitch float64 `json:"pitch"`
}

// Default returns a Config whose nested blocks carry usable defaults. Scalar
// fields stay zero until Resolve.
func Default() Config {
	return Config{
		Camera: clouds.DefaultCamera(),
		Sky:    clouds.DefaultSky(),
		Clouds: clouds.DefaultParams(),
	}
}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Resolve fills in any empty fields with defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file
	if flags.BaseDir != "" {
		c.BaseDir = flags.BaseDir
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Scene != "" {
		c.Scene = flags.Scene
	}
	if flags.SettingsDB != "" {
		c.SettingsDB = flags.SettingsDB
	}
	if flags.Format != "" {
		c.Format = flags.Format
	}
	if flags.Width > 0 {
		c.Width = flags.Width
	}
	if flags.Height > 0 {
		c.Height = flags.Height
	}
	if flags.Frames > 0 {
		c.Frames = flags.Frames
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}

	if c.BaseDir == "" {
		c.BaseDir = "."
	}

	// Resolve relative paths against base dir
	if c.SettingsDir == "" {
		c.SettingsDir = filepath.Join(c.BaseDir, "Settings")
	} else if !filepath.IsAbs(c.SettingsDir) {
		c.SettingsDir = filepath.Join(c.BaseDir, c.SettingsDir)
	}
	if c.SettingsDB != "" && !filepath.IsAbs(c.SettingsDB) {
		c.SettingsDB = filepath.Join(c.BaseDir, c.SettingsDB)
	}
	if c.BlueNoise != "" && !filepath.IsAbs(c.BlueNoise) {
		c.BlueNoise = filepath.Join(c.BaseDir, c.BlueNoise)
	}
	if c.OutputDir == "" {
		c.OutputDir = filepath.Join(c.BaseDir, "renders")
	} else if !filepath.IsAbs(c.OutputDir) {
		c.OutputDir = filepath.Join(c.BaseDir, c.OutputDir)
	}

	if c.Scene == "" {
		c.Scene = "default"
	}

	// Defaults for render settings
	if c.Width <= 0 {
		c.Width = 640
	}
	if c.Height <= 0 {
		c.Height = 360
	}
	if c.Supersample <= 0 {
		c.Supersample = 1
	}
	if c.Exposure <= 0 {
		c.Exposure = 1
	}
	if c.Format == "" {
		c.Format = "webp"
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Frames <= 0 {
		c.Frames = 1
	}
	if c.FPS <= 0 {
		c.FPS = 24
	}

	if c.Box != nil {
		c.Clouds.Box = clouds.BoxFromTransform(c.Box.Position, c.Box.Size)
	}
	if c.Sun != nil {
		c.Clouds.LightDir = mathutil.DirFromAngles(c.Sun.Yaw, c.Sun.Pitch)
	}
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	BaseDir    string
	OutputDir  string
	Scene      string
	SettingsDB string
	Format     string
	Width      int
	Height     int
	Frames     int
	Workers    int
}
