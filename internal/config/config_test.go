package config

import (
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"volumetric-clouds/internal/clouds"
	"volumetric-clouds/internal/mathutil"
	"volumetric-clouds/internal/settings"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadKeepsDefaultsForMissingFields(t *testing.T) {
	path := writeConfig(t, `{
		"scene": "Sunset",
		"width": 320,
		"clouds": {"march_steps": 12, "density_multiplier": 2.5},
		"box": {"position": [0, 100, 0], "size": [400, 80, 400]}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	want := clouds.DefaultParams()
	if cfg.Clouds.MarchSteps != 12 || cfg.Clouds.DensityMultiplier != 2.5 {
		t.Fatalf("clouds block not applied: %+v", cfg.Clouds)
	}
	if cfg.Clouds.LightSteps != want.LightSteps || cfg.Clouds.NoiseWeights != want.NoiseWeights {
		t.Fatal("missing clouds fields lost their defaults")
	}
	if cfg.Camera != clouds.DefaultCamera() {
		t.Fatalf("camera = %+v", cfg.Camera)
	}

	cfg.Resolve(Flags{})
	wantBox := clouds.Box{Min: mathutil.Vec3{-200, 60, -200}, Max: mathutil.Vec3{200, 140, 200}}
	if cfg.Clouds.Box != wantBox {
		t.Fatalf("box = %+v, want %+v", cfg.Clouds.Box, wantBox)
	}
	if cfg.Scene != "Sunset" || cfg.Width != 320 || cfg.Height != 360 {
		t.Fatalf("resolved = %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("missing file accepted")
	}
	if _, err := Load(writeConfig(t, `{"width": "wide"}`)); err == nil {
		t.Fatal("bad json accepted")
	}
}

func TestResolveFlagsAndDefaults(t *testing.T) {
	cfg := Config{BaseDir: "/data", OutputDir: "out", SettingsDB: "noise.db", Width: 100}
	cfg.Resolve(Flags{Scene: "Storm", Width: 200, Frames: 48, Format: "png"})

	tests := []struct {
		name      string
		got, want any
	}{
		{"scene", cfg.Scene, "Storm"},
		{"width", cfg.Width, 200},
		{"frames", cfg.Frames, 48},
		{"format", cfg.Format, "png"},
		{"output", cfg.OutputDir, filepath.Join("/data", "out")},
		{"settings dir", cfg.SettingsDir, filepath.Join("/data", "Settings")},
		{"settings db", cfg.SettingsDB, filepath.Join("/data", "noise.db")},
		{"workers", cfg.Workers, runtime.NumCPU()},
		{"fps", cfg.FPS, 24.0},
		{"supersample", cfg.Supersample, 1},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}

	var empty Config
	empty.Resolve(Flags{})
	if empty.Scene != "default" || empty.Format != "webp" || empty.OutputDir != "renders" {
		t.Fatalf("empty resolve = %+v", empty)
	}
}

func TestOpenRepository(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{BaseDir: dir}
	cfg.Resolve(Flags{})

	repo, closeRepo, err := cfg.OpenRepository()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := repo.(*settings.FileStore); !ok {
		t.Fatalf("got %T, want *settings.FileStore", repo)
	}
	closeRepo()

	cfg.SettingsDB = filepath.Join(dir, "db", "noise.db")
	repo, closeRepo, err = cfg.OpenRepository()
	if err != nil {
		t.Fatal(err)
	}
	defer closeRepo()
	if _, ok := repo.(*settings.SQLStore); !ok {
		t.Fatalf("got %T, want *settings.SQLStore", repo)
	}

	opts := cfg.VolumeOptions(repo)
	if opts.Key != "default" || opts.Repo != repo {
		t.Fatalf("options = %+v", opts)
	}
}

func TestSunAnglesSetLightDir(t *testing.T) {
	cfg := Default()
	cfg.Sun = &SunAngles{Yaw: 90, Pitch: 30}
	cfg.Resolve(Flags{})

	d := cfg.Clouds.LightDir
	want := mathutil.Vec3{math.Cos(math.Pi / 6), 0.5, 0}
	if d.Sub(want).Len() > 1e-9 {
		t.Fatalf("light dir = %v, want %v", d, want)
	}
}
