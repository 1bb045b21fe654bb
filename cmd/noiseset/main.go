package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"volumetric-clouds/internal/config"
	"volumetric-clouds/internal/settings"
	"volumetric-clouds/internal/volume"
)

func parseFrequencies(s string) ([3]int, error) {
	var out [3]int
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return out, fmt.Errorf("want three comma-separated frequencies, got %q", s)
	}
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return out, fmt.Errorf("frequency %q: %w", p, err)
		}
		out[i] = v
	}
	return out, nil
}

func printCollection(key string, c settings.Collection) {
	fmt.Printf("Scene: %s\n", key)
	fmt.Println("type    ch  seed         mix   A   B   C")
	for t := settings.NoiseType(0); t < settings.NumTypes; t++ {
		for ch := 0; ch < volume.UsableChannels[t]; ch++ {
			s := c.Get(t, settings.Channel(ch))
			fmt.Printf("%-7s %-3s %-12d %-5.2f %-3d %-3d %-3d\n",
				t, s.Channel, s.Seed, s.Mix, s.FrequencyA, s.FrequencyB, s.FrequencyC)
		}
	}
}

func main() {
	configFile := flag.String("config", "", "Path to config.json file")
	scene := flag.String("scene", "", "Scene key (default: default)")
	db := flag.String("db", "", "SQLite settings database")
	typeName := flag.String("type", "shape", "Texture: shape or detail")
	channelName := flag.String("channel", "r", "Channel r, g, b or a")
	seed := flag.String("seed", "", "Set the seed")
	reseed := flag.Bool("reseed", false, "Derive a new seed from the current one")
	mix := flag.String("mix", "", "Set the layer mix in [0,1]")
	freq := flag.String("freq", "", "Set frequencies A,B,C (1..64 cells each)")
	list := flag.Bool("list", false, "Print every setting and exit")
	scenes := flag.Bool("scenes", false, "Print every scene key with stored settings and exit")
	flag.Parse()

	cfg := config.Default()
	if *configFile != "" {
		var err error
		if cfg, err = config.Load(*configFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	cfg.Resolve(config.Flags{Scene: *scene, SettingsDB: *db})

	repo, closeRepo, err := cfg.OpenRepository()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer closeRepo()

	if *scenes {
		lister, ok := repo.(settings.Lister)
		if !ok {
			fmt.Fprintln(os.Stderr, "Error: settings store cannot list scenes")
			os.Exit(1)
		}
		keys, err := lister.Keys()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing scenes: %v\n", err)
			os.Exit(1)
		}
		for _, k := range keys {
			fmt.Println(k)
		}
		return
	}

	coll, _, err := settings.Resolve(repo, cfg.Scene)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading settings: %v\n", err)
		os.Exit(1)
	}
	if *list {
		printCollection(cfg.Scene, coll)
		return
	}

	t, err := settings.ParseNoiseType(*typeName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	ch, err := settings.ParseChannel(*channelName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if int(ch) >= volume.UsableChannels[t] {
		fmt.Fprintf(os.Stderr, "Error: %s/%s has no noise setting\n", t, ch)
		os.Exit(1)
	}

	s := coll.Get(t, ch)
	if *seed != "" {
		v, err := strconv.Atoi(*seed)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: seed %q: %v\n", *seed, err)
			os.Exit(1)
		}
		s.Seed = v
	}
	if *reseed {
		s.Seed = s.NextSeed()
	}
	if *mix != "" {
		v, err := strconv.ParseFloat(*mix, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: mix %q: %v\n", *mix, err)
			os.Exit(1)
		}
		s.Mix = v
	}
	if *freq != "" {
		f, err := parseFrequencies(*freq)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		s.FrequencyA, s.FrequencyB, s.FrequencyC = f[0], f[1], f[2]
	}
	if err := s.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	coll.Set(s)
	if err := repo.Save(cfg.Scene, coll); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving settings: %v\n", err)
		os.Exit(1)
	}
	printCollection(cfg.Scene, coll)
}
