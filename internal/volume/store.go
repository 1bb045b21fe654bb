package volume

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"volumetric-clouds/internal/compute"
	"volumetric-clouds/internal/noise"
	"volumetric-clouds/internal/pointfield"
	"volumetric-clouds/internal/settings"
)

// DefaultSizes are the texture edge lengths: Shape 128³, Detail 64³.
var DefaultSizes = [settings.NumTypes]int{128, 64}

// UsableChannels is the number of channels exposed per type. Detail keeps
// four channels of storage but only three are editable.
var UsableChannels = [settings.NumTypes]int{4, 3}

var (
	// ErrNoSuchSetting reports a (type, channel) pair outside the usable range.
	ErrNoSuchSetting = errors.New("volume: no such setting")
	// ErrOutOfRange reports a slice index outside the texture.
	ErrOutOfRange = errors.New("volume: slice out of range")
)

// Options configures a Store.
type Options struct {
	Repo  settings.Repository // nil keeps settings in memory only
	Key   string              // repository key, e.g. the scene name
	Sizes [settings.NumTypes]int
}

// Store owns the Shape and Detail textures and the settings they are built
// from. Regeneration of a channel is single-flight and is committed under the
// frame lock, so a raymarch frame never observes a half-written channel.
type Store struct {
	dev  *compute.Device
	repo settings.Repository
	key  string

	frameMu  sync.RWMutex
	textures [settings.NumTypes]*Texture

	mu       sync.Mutex
	settings settings.Collection
	states   [settings.Count]GenState

	genMu [settings.Count]sync.Mutex
}

// Open resolves the settings stored under opts.Key (defaults when none are
// stored), allocates both textures and generates every channel once.
func Open(dev *compute.Device, opts Options) (*Store, error) {
	coll, found, err := settings.Resolve(opts.Repo, opts.Key)
	if err != nil {
		return nil, fmt.Errorf("volume: open: %w", err)
	}

	sizes := opts.Sizes
	for i := range sizes {
		if sizes[i] <= 0 {
			sizes[i] = DefaultSizes[i]
		}
	}

	s := &Store{
		dev:      dev,
		repo:     opts.Repo,
		key:      opts.Key,
		settings: coll,
	}
	for i := range s.textures {
		n := sizes[i]
		s.textures[i] = &Texture{
			Type: settings.NoiseType(i),
			Size: n,
			Data: make([]float32, n*n*n*4),
		}
	}
	for i := range s.states {
		s.states[i] = Dirty
	}

	slog.Info("generating volume textures",
		"key", opts.Key,
		"stored_settings", found,
		"workers", dev.Workers(),
		"shape", sizes[settings.Shape],
		"detail", sizes[settings.Detail],
		"voxels", humanize.Comma(int64(sizes[0]*sizes[0]*sizes[0]+sizes[1]*sizes[1]*sizes[1])))

	for i := 0; i < settings.Count; i++ {
		t, ch := settings.NoiseType(i/settings.NumChannels), settings.Channel(i%settings.NumChannels)
		if err := s.Regenerate(t, ch); err != nil {
			return nil, fmt.Errorf("volume: open: %w", err)
		}
	}
	return s, nil
}

// Key returns the repository key the store persists under.
func (s *Store) Key() string { return s.key }

// Texture returns the texture of type t. Its texels may only be read between
// BeginFrame and EndFrame when regeneration can run concurrently.
func (s *Store) Texture(t settings.NoiseType) *Texture {
	return s.textures[t]
}

func usable(t settings.NoiseType, ch settings.Channel) bool {
	if t < 0 || t >= settings.NumTypes || ch < 0 {
		return false
	}
	return int(ch) < UsableChannels[t]
}

// Setting returns the recipe for (t, ch). The boolean is false when the pair
// is not usable: any type above Detail, or a channel above 3-type.
func (s *Store) Setting(t settings.NoiseType, ch settings.Channel) (settings.NoiseSettings, bool) {
	if !usable(t, ch) {
		return settings.NoiseSettings{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.Get(t, ch), true
}

// Settings returns a copy of the whole collection.
func (s *Store) Settings() settings.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// SetSetting replaces a recipe and marks its channel Dirty. Unchanged
// recipes leave the channel state alone.
func (s *Store) SetSetting(ns settings.NoiseSettings) error {
	if !usable(ns.Type, ns.Channel) {
		return fmt.Errorf("%w: %s/%s", ErrNoSuchSetting, ns.Type, ns.Channel)
	}
	if err := ns.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := ns.Index()
	if s.settings[i] == ns {
		return nil
	}
	s.settings[i] = ns
	// An in-flight regeneration notices the change when it finishes.
	if s.states[i] != InProgress {
		s.states[i] = Dirty
	}
	return nil
}

// State returns the generation state of (t, ch).
func (s *Store) State(t settings.NoiseType, ch settings.Channel) GenState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[int(t)*settings.NumChannels+int(ch)]
}

// Regenerate rebuilds one channel: point fields, synthesis, then the
// normalization passes, all into scratch memory. The result replaces the
// channel only when every pass succeeded; otherwise the previous texels stay
// and the channel remains Dirty.
func (s *Store) Regenerate(t settings.NoiseType, ch settings.Channel) error {
	if t < 0 || t >= settings.NumTypes || ch < 0 || ch >= settings.NumChannels {
		return fmt.Errorf("%w: %s/%s", ErrNoSuchSetting, t, ch)
	}
	i := int(t)*settings.NumChannels + int(ch)

	s.genMu[i].Lock()
	defer s.genMu[i].Unlock()

	s.mu.Lock()
	rec := s.settings[i]
	s.states[i] = InProgress
	s.mu.Unlock()

	start := time.Now()
	limits, err := s.generate(rec)

	s.mu.Lock()
	switch {
	case err != nil:
		s.states[i] = Dirty
	case s.settings[i] != rec:
		s.states[i] = Dirty
	default:
		s.states[i] = Clean
	}
	s.mu.Unlock()

	if err != nil {
		slog.Error("volume channel regeneration failed, keeping previous texels",
			"type", t, "channel", ch, "error", err)
		return fmt.Errorf("volume: regenerate %s/%s: %w", t, ch, err)
	}
	slog.Debug("volume channel regenerated",
		"type", t, "channel", ch, "seed", rec.Seed,
		"raw_min", limits.Min, "raw_max", limits.Max,
		"elapsed", time.Since(start))
	return nil
}

func (s *Store) generate(rec settings.NoiseSettings) (noise.Limits, error) {
	tex := s.textures[rec.Type]
	size := tex.Size

	layers, err := pointfield.Layers(rec.Seed, rec.FrequencyA, rec.FrequencyB, rec.FrequencyC)
	if err != nil {
		return noise.Limits{}, err
	}

	buf, err := s.dev.Alloc(size * size * size)
	if err != nil {
		return noise.Limits{}, err
	}
	defer buf.Release()

	if err := noise.Synthesize(s.dev, buf.Data, size, layers, rec.Mix); err != nil {
		return noise.Limits{}, err
	}
	limits, err := noise.Normalize(s.dev, buf.Data, size)
	if err != nil {
		return noise.Limits{}, err
	}

	s.frameMu.Lock()
	defer s.frameMu.Unlock()
	if err := noise.WriteChannel(s.dev, tex.Data, buf.Data, size, noise.ChannelMask(int(rec.Channel))); err != nil {
		return noise.Limits{}, err
	}
	return limits, nil
}

// Sync regenerates every Dirty channel. Channels that become Dirty again
// while regenerating are picked up by a further pass. It is meant to run
// before each raymarch frame.
func (s *Store) Sync() error {
	const maxPasses = 4
	for pass := 0; pass < maxPasses; pass++ {
		var dirty []int
		s.mu.Lock()
		for i, st := range s.states {
			if st == Dirty {
				dirty = append(dirty, i)
			}
		}
		s.mu.Unlock()
		if len(dirty) == 0 {
			return nil
		}

		var errs []error
		for _, i := range dirty {
			t, ch := settings.NoiseType(i/settings.NumChannels), settings.Channel(i%settings.NumChannels)
			if err := s.Regenerate(t, ch); err != nil {
				errs = append(errs, err)
			}
		}
		if len(errs) > 0 {
			return errors.Join(errs...)
		}
	}
	return nil
}

// BeginFrame read-locks the textures for a raymarch frame. Regeneration
// commits wait until EndFrame.
func (s *Store) BeginFrame() (shape, detail *Texture) {
	s.frameMu.RLock()
	return s.textures[settings.Shape], s.textures[settings.Detail]
}

// EndFrame releases the lock taken by BeginFrame.
func (s *Store) EndFrame() {
	s.frameMu.RUnlock()
}

// ReadChannel returns the z-th cross-section of channel ch of texture t.
func (s *Store) ReadChannel(t settings.NoiseType, ch settings.Channel, z int) (Slice, error) {
	if t < 0 || t >= settings.NumTypes || ch < 0 || ch >= settings.NumChannels {
		return Slice{}, fmt.Errorf("%w: %s/%s", ErrNoSuchSetting, t, ch)
	}
	tex := s.textures[t]
	if z < 0 || z >= tex.Size {
		return Slice{}, fmt.Errorf("%w: z=%d, size %d", ErrOutOfRange, z, tex.Size)
	}
	s.frameMu.RLock()
	defer s.frameMu.RUnlock()
	return tex.slice(ch, z), nil
}

// Save persists the full collection under the store key.
func (s *Store) Save() error {
	if s.repo == nil {
		return fmt.Errorf("volume: save: no settings repository configured")
	}
	coll := s.Settings()
	if err := s.repo.Save(s.key, coll); err != nil {
		return fmt.Errorf("volume: save %q: %w", s.key, err)
	}
	slog.Info("noise settings saved", "key", s.key)
	return nil
}
