package batch

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"volumetric-clouds/internal/clouds"
	"volumetric-clouds/internal/compute"
	"volumetric-clouds/internal/export"
	"volumetric-clouds/internal/postprocess"
	"volumetric-clouds/internal/settings"
	"volumetric-clouds/internal/volume"
)

func testConfig(dir string) Config {
	p := clouds.DefaultParams()
	p.MarchSteps = 4
	p.LightSteps = 1
	return Config{
		OutputDir:   dir,
		Format:      export.PNG,
		Width:       6,
		Height:      4,
		Supersample: 2,
		Tone:        postprocess.DefaultTone(),
		Workers:     2,
		Camera:      clouds.DefaultCamera(),
		Sky:         clouds.DefaultSky(),
		Params:      p,
		Frames:      3,
		FPS:         10,
	}
}

func TestRunWritesFramesAndManifest(t *testing.T) {
	store, err := volume.Open(compute.NewDevice(compute.Options{Workers: 2}), volume.Options{Sizes: [settings.NumTypes]int{8, 8}})
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.WriteEXR = true

	results := Run(clouds.NewRaymarcher(store, nil, 1), cfg)
	if len(results) != cfg.Frames {
		t.Fatalf("got %d results, want %d", len(results), cfg.Frames)
	}
	for i, r := range results {
		if !r.Success {
			t.Fatalf("frame %d failed: %s", i, r.Error)
		}
		if r.Index != i || math.Abs(r.Time-float64(i)/cfg.FPS) > 1e-9 {
			t.Fatalf("frame %d: %+v", i, r)
		}
		for _, name := range []string{r.Image, cfg.EXRName(i)} {
			if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
				t.Fatalf("frame %d: %v", i, err)
			}
		}
	}

	path := filepath.Join(dir, "manifest.json")
	m := NewManifest("test-scene", cfg, results)
	if err := WriteManifest(path, m); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got Manifest
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if _, err := uuid.Parse(got.RunID); err != nil {
		t.Fatalf("run id %q: %v", got.RunID, err)
	}
	if got.Scene != "test-scene" || len(got.Frames) != cfg.Frames || got.Frames[2].Image != "frame_0002.png" {
		t.Fatalf("manifest = %+v", got)
	}
}

func TestManifestSkipsFailedFrames(t *testing.T) {
	results := []Result{
		{Index: 0, Image: "frame_0000.webp", Success: true},
		{Index: 1, Error: "boom"},
	}
	m := NewManifest("s", Config{}, results)
	if len(m.Frames) != 1 || m.Frames[0].Index != 0 {
		t.Fatalf("frames = %+v", m.Frames)
	}
	if m.RunID == NewManifest("s", Config{}, results).RunID {
		t.Fatal("run ids should be unique")
	}
}

func TestFrameName(t *testing.T) {
	cfg := Config{Format: export.WebP}
	if got := cfg.FrameName(12); got != "frame_0012.webp" {
		t.Fatalf("FrameName(12) = %q", got)
	}
}

func TestRunStepsClock(t *testing.T) {
	store, err := volume.Open(compute.NewDevice(compute.Options{Workers: 1}), volume.Options{Sizes: [settings.NumTypes]int{8, 8}})
	if err != nil {
		t.Fatal(err)
	}
	r := clouds.NewRaymarcher(store, nil, 1)

	cfg := testConfig(t.TempDir())
	cfg.Supersample = 1
	cfg.FPS = 4
	cfg.StartTime = 1
	cfg.Frames = 4
	for i, res := range Run(r, cfg) {
		want := 1 + float64(i)*0.25
		if !res.Success || math.Abs(res.Time-want) > 1e-9 {
			t.Fatalf("frame %d: time %v, want %v (%s)", i, res.Time, want, res.Error)
		}
	}

	cfg.OutputDir = t.TempDir()
	cfg.Paused = true
	for i, res := range Run(r, cfg) {
		if !res.Success || res.Time != 0 {
			t.Fatalf("paused frame %d: time %v (%s)", i, res.Time, res.Error)
		}
	}
}
