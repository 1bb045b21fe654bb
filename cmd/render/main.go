package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"volumetric-clouds/internal/batch"
	"volumetric-clouds/internal/clouds"
	"volumetric-clouds/internal/compute"
	"volumetric-clouds/internal/config"
	"volumetric-clouds/internal/export"
	"volumetric-clouds/internal/postprocess"
	"volumetric-clouds/internal/settings"
	"volumetric-clouds/internal/texture"
	"volumetric-clouds/internal/volume"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config.json file")
	dataDir := flag.String("data", "", "Base directory for relative paths (default: .)")
	outputDir := flag.String("output", "", "Output directory (default: renders)")
	scene := flag.String("scene", "", "Scene key used to look up noise settings (default: default)")
	db := flag.String("db", "", "SQLite settings database (default: JSON files under Settings/)")
	format := flag.String("format", "", "Frame format: webp or png (default: webp)")
	width := flag.Int("width", 0, "Output width (default: 640)")
	height := flag.Int("height", 0, "Output height (default: 360)")
	frames := flag.Int("frames", 0, "Number of animation frames (default: 1)")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	parallel := flag.Int("parallel", 1, "Frames rendered concurrently")
	exr := flag.Bool("exr", false, "Also write linear OpenEXR frames")
	paused := flag.Bool("paused", false, "Freeze cloud movement in every frame")
	verbose := flag.Bool("v", false, "Debug logging")

	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	// Load config
	cfg := config.Default()
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// CLI flags override config file
	cfg.Resolve(config.Flags{
		BaseDir:    *dataDir,
		OutputDir:  *outputDir,
		Scene:      *scene,
		SettingsDB: *db,
		Format:     *format,
		Width:      *width,
		Height:     *height,
		Frames:     *frames,
		Workers:    *workers,
	})
	if *exr {
		cfg.WriteEXR = true
	}

	outFormat, err := export.ParseFormat(cfg.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Clouds.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error in clouds settings: %v\n", err)
		os.Exit(1)
	}

	repo, closeRepo, err := cfg.OpenRepository()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening settings: %v\n", err)
		os.Exit(1)
	}
	defer closeRepo()

	genStart := time.Now()
	store, err := volume.Open(compute.NewDevice(compute.Options{Workers: cfg.Workers}), cfg.VolumeOptions(repo))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating volumes: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Volumes: shape %d³, detail %d³ generated in %s\n",
		store.Texture(settings.Shape).Size, store.Texture(settings.Detail).Size,
		time.Since(genStart).Round(time.Millisecond))

	jitter := texture.Resolve(cfg.BlueNoise, 1)
	rm := clouds.NewRaymarcher(store, jitter, cfg.Workers)

	fmt.Printf("Volumetric clouds → %s\n", outFormat)
	fmt.Printf("Scene: %s, Frames: %d, Size: %dx%d (x%d), Workers: %d\n",
		cfg.Scene, cfg.Frames, cfg.Width, cfg.Height, cfg.Supersample, cfg.Workers)
	fmt.Printf("Output: %s\n", cfg.OutputDir)
	fmt.Println("------------------------------------------------------------")

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output dir: %v\n", err)
		os.Exit(1)
	}

	start := time.Now()

	// Run batch
	batchCfg := batch.Config{
		OutputDir:   cfg.OutputDir,
		Format:      outFormat,
		Width:       cfg.Width,
		Height:      cfg.Height,
		Supersample: cfg.Supersample,
		Tone:        postprocess.Tone{Exposure: cfg.Exposure, Gamma: 2.2},
		WriteEXR:    cfg.WriteEXR,
		Workers:     *parallel,
		Camera:      cfg.Camera,
		Sky:         cfg.Sky,
		Params:      cfg.Clouds,
		Frames:      cfg.Frames,
		FPS:         cfg.FPS,
		Paused:      *paused,
	}

	results := batch.Run(rm, batchCfg)

	elapsed := time.Since(start)
	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs (%.2f frames/sec, %s pixels)\n", elapsed.Seconds(),
		float64(len(results))/elapsed.Seconds(),
		humanize.Comma(int64(cfg.Width*cfg.Height*cfg.Supersample*cfg.Supersample*len(results))))

	// Count results
	success, failed := 0, 0
	var errors []batch.Result
	for _, r := range results {
		if r.Success {
			success++
		} else {
			failed++
			errors = append(errors, r)
		}
	}

	fmt.Printf("Rendered: %d/%d\n", success, len(results))

	if len(errors) > 0 {
		fmt.Printf("\nFailed (%d):\n", failed)
		limit := 20
		if len(errors) < limit {
			limit = len(errors)
		}
		for _, e := range errors[:limit] {
			fmt.Printf("  frame %d: %s\n", e.Index, e.Error)
		}
	}

	// Write manifest
	m := batch.NewManifest(cfg.Scene, batchCfg, results)
	coll := store.Settings()
	m.Settings = volume.Digest(coll, settings.Shape, store.Texture(settings.Shape).Size) +
		volume.Digest(coll, settings.Detail, store.Texture(settings.Detail).Size)
	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	if err := batch.WriteManifest(manifestPath, m); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: manifest write failed: %v\n", err)
	} else {
		fmt.Printf("Manifest: %s (run %s)\n", manifestPath, m.RunID)
	}

	if failed > 0 {
		os.Exit(1)
	}
}
