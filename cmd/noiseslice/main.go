package main

import (
	"flag"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"volumetric-clouds/internal/compute"
	"volumetric-clouds/internal/config"
	"volumetric-clouds/internal/export"
	"volumetric-clouds/internal/settings"
	"volumetric-clouds/internal/volume"
)

func main() {
	configFile := flag.String("config", "", "Path to config.json file")
	scene := flag.String("scene", "", "Scene key (default: default)")
	db := flag.String("db", "", "SQLite settings database")
	typeName := flag.String("type", "shape", "Texture: shape or detail")
	channelName := flag.String("channel", "all", "Channel r, g, b, a or all")
	z := flag.Int("z", -1, "Slice depth (default: middle)")
	scale := flag.Int("scale", 4, "Pixel size of one texel")
	out := flag.String("out", "", "Output image, .png or .webp (default: <scene>_<type>_z<z>.png)")
	flag.Parse()

	cfg := config.Default()
	if *configFile != "" {
		var err error
		if cfg, err = config.Load(*configFile); err != nil {
			fmt.Fprintf(os.Stderr, "ERR %v\n", err)
			os.Exit(1)
		}
	}
	cfg.Resolve(config.Flags{Scene: *scene, SettingsDB: *db})

	t, err := settings.ParseNoiseType(*typeName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERR %v\n", err)
		os.Exit(1)
	}
	var channels []settings.Channel
	if *channelName == "all" {
		for ch := 0; ch < volume.UsableChannels[t]; ch++ {
			channels = append(channels, settings.Channel(ch))
		}
	} else {
		ch, err := settings.ParseChannel(*channelName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERR %v\n", err)
			os.Exit(1)
		}
		channels = []settings.Channel{ch}
	}

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
	size := store.Texture(t).Size
	if *z < 0 {
		*z = size / 2
	}

	var tiles []*image.Gray
	for _, ch := range channels {
		if _, ok := store.Setting(t, ch); !ok {
			fmt.Fprintf(os.Stderr, "ERR %s/%s has no noise setting\n", t, ch)
			os.Exit(1)
		}
		s, err := store.ReadChannel(t, ch, *z)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERR %v\n", err)
			os.Exit(1)
		}
		tiles = append(tiles, export.SliceImage(s, *scale))
	}

	path := *out
	if path == "" {
		path = filepath.Join(cfg.OutputDir, fmt.Sprintf("%s_%s_z%d.png", cfg.Scene, t, *z))
	}
	if err := export.WriteFile(path, export.Montage(tiles)); err != nil {
		fmt.Fprintf(os.Stderr, "ERR %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("OK  %s z=%d/%d channels=%v -> %s\n", t, *z, size, channels, path)
}
