package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"volumetric-clouds/internal/compute"
	"volumetric-clouds/internal/config"
	"volumetric-clouds/internal/settings"
	"volumetric-clouds/internal/volume"
)

func bakePath(dir, scene string, t settings.NoiseType) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.vcld", scene, t))
}

func writeBake(store *volume.Store, path string, t settings.NoiseType) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := store.ExportBake(f, t); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	size := store.Texture(t).Size
	fmt.Printf("OK  %-6s %d³ -> %s (%s, raw %s)\n", t, size, path,
		humanize.Bytes(uint64(info.Size())), humanize.Bytes(uint64(size*size*size*4*2)))
	return nil
}

func verifyBake(store *volume.Store, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	if err := store.ImportBake(f); err != nil {
		return fmt.Errorf("verify %s: %w", path, err)
	}
	fmt.Printf("OK  verified %s\n", path)
	return nil
}

func main() {
	configFile := flag.String("config", "", "Path to config.json file")
	scene := flag.String("scene", "", "Scene key (default: default)")
	db := flag.String("db", "", "SQLite settings database")
	outputDir := flag.String("output", "", "Directory for .vcld files (default: renders)")
	verify := flag.Bool("verify", false, "Re-import every bake after writing it")
	flag.Parse()

	cfg := config.Default()
	if *configFile != "" {
		var err error
		if cfg, err = config.Load(*configFile); err != nil {
			fmt.Fprintf(os.Stderr, "ERR %v\n", err)
			os.Exit(1)
		}
	}
	cfg.Resolve(config.Flags{Scene: *scene, SettingsDB: *db, OutputDir: *outputDir})

	repo, closeRepo, err := cfg.OpenRepository()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERR %v\n", err)
		os.Exit(1)
	}
	defer closeRepo()

	store, err := volume.Open(compute.NewDevice(compute.Options{Workers: cfg.Workers}), cfg.VolumeOptions(repo))
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERR %v\n", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "ERR %v\n", err)
		os.Exit(1)
	}

	errors := 0
	for t := settings.NoiseType(0); t < settings.NumTypes; t++ {
		path := bakePath(cfg.OutputDir, cfg.Scene, t)
		if err := writeBake(store, path, t); err != nil {
			fmt.Fprintf(os.Stderr, "ERR %v\n", err)
			errors++
			continue
		}
		if *verify {
			if err := verifyBake(store, path); err != nil {
				fmt.Fprintf(os.Stderr, "ERR %v\n", err)
				errors++
			}
		}
	}
	if errors > 0 {
		fmt.Printf("\nDone with %d error(s).\n", errors)
		os.Exit(1)
	}
	fmt.Println("\nDone. All volumes baked.")
}
