// Package settings holds the per-channel noise recipes and the keyed stores
// that persist them.
package settings

import (
	"errors"
	"fmt"

	"volumetric-clouds/internal/pointfield"
)

// NoiseType selects one of the two volume textures.
type NoiseType int

const (
	Shape NoiseType = iota
	Detail
)

// NumTypes is the number of volume textures.
const NumTypes = 2

func (t NoiseType) String() string {
	switch t {
	case Shape:
		return "shape"
	case Detail:
		return "detail"
	}
	return fmt.Sprintf("NoiseType(%d)", int(t))
}

// ParseNoiseType accepts "shape" / "detail" or their indices.
func ParseNoiseType(s string) (NoiseType, error) {
	switch s {
	case "shape", "0":
		return Shape, nil
	case "detail", "1":
		return Detail, nil
	}
	return 0, fmt.Errorf("settings: unknown noise type %q", s)
}

// Channel selects one of the four packed texel channels.
type Channel int

const (
	R Channel = iota
	G
	B
	A
)

// NumChannels is the number of packed channels per texel.
const NumChannels = 4

func (c Channel) String() string {
	if c >= 0 && c < NumChannels {
		return string("RGBA"[c])
	}
	return fmt.Sprintf("Channel(%d)", int(c))
}

// ParseChannel accepts R/G/B/A (either case) or 0..3.
func ParseChannel(s string) (Channel, error) {
	switch s {
	case "R", "r", "0":
		return R, nil
	case "G", "g", "1":
		return G, nil
	case "B", "b", "2":
		return B, nil
	case "A", "a", "3":
		return A, nil
	}
	return 0, fmt.Errorf("settings: unknown channel %q", s)
}

// NoiseSettings is one generation recipe.
type NoiseSettings struct {
	Type       NoiseType `json:"type"`
	Channel    Channel   `json:"channel"`
	Seed       int       `json:"seed"`
	Mix        float64   `json:"mix"`
	FrequencyA int       `json:"frequencyA"`
	FrequencyB int       `json:"frequencyB"`
	FrequencyC int       `json:"frequencyC"`
}

// Count is the size of a full collection (NumTypes × NumChannels).
const Count = NumTypes * NumChannels

// Index returns the collection slot of the recipe, type*4 + channel.
func (s NoiseSettings) Index() int {
	return int(s.Type)*NumChannels + int(s.Channel)
}

// ErrInvalid is wrapped by Validate failures.
var ErrInvalid = errors.New("settings: invalid noise settings")

// Validate checks ranges: type and channel in bounds, mix in [0,1] and every
// frequency in [1,64].
func (s NoiseSettings) Validate() error {
	if s.Type < 0 || s.Type >= NumTypes {
		return fmt.Errorf("%w: type %d", ErrInvalid, s.Type)
	}
	if s.Channel < 0 || s.Channel >= NumChannels {
		return fmt.Errorf("%w: channel %d", ErrInvalid, s.Channel)
	}
	if !(s.Mix >= 0 && s.Mix <= 1) {
		return fmt.Errorf("%w: mix %v", ErrInvalid, s.Mix)
	}
	for i, f := range [3]int{s.FrequencyA, s.FrequencyB, s.FrequencyC} {
		if f < pointfield.MinCells || f > pointfield.MaxCells {
			return fmt.Errorf("%w: frequency%c %d", ErrInvalid, 'A'+i, f)
		}
	}
	return nil
}

// Default returns the recipe used when nothing valid is persisted for a slot.
// Each channel gets its own seed and a cell count that doubles per channel, so
// the octaves in a fresh texture differ.
func Default(t NoiseType, ch Channel) NoiseSettings {
	base := 2 << int(ch)
	return NoiseSettings{
		Type:       t,
		Channel:    ch,
		Seed:       int(t)*NumChannels + int(ch),
		Mix:        0.5,
		FrequencyA: base,
		FrequencyB: min(base*2, pointfield.MaxCells),
		FrequencyC: min(base*4, pointfield.MaxCells),
	}
}

// NextSeed derives a fresh seed from the current one, so "new seed" is itself
// reproducible.
func (s NoiseSettings) NextSeed() int {
	return pointfield.NewSource(s.Seed).Int()
}

// Collection holds every recipe, ordered by Index.
type Collection [Count]NoiseSettings

// Defaults returns a collection of Default recipes for every slot.
func Defaults() Collection {
	var c Collection
	for i := range c {
		c[i] = Default(NoiseType(i/NumChannels), Channel(i%NumChannels))
	}
	return c
}

// Get returns the recipe for (t, ch).
func (c *Collection) Get(t NoiseType, ch Channel) NoiseSettings {
	return c[int(t)*NumChannels+int(ch)]
}

// Set stores s in its slot.
func (c *Collection) Set(s NoiseSettings) {
	c[s.Index()] = s
}

// FromRecords builds a collection from serialized records. Records are placed
// by their own type/channel; slots with no record, and records that fail
// validation, get Default recipes. The second result counts the slots that
// were filled with defaults.
func FromRecords(records []NoiseSettings) (Collection, int) {
	c := Defaults()
	var seen [Count]bool
	for _, r := range records {
		if r.Validate() != nil {
			continue
		}
		c[r.Index()] = r
		seen[r.Index()] = true
	}
	missing := 0
	for _, ok := range seen {
		if !ok {
			missing++
		}
	}
	return c, missing
}

// Records returns the collection as an ordered slice.
func (c Collection) Records() []NoiseSettings {
	out := make([]NoiseSettings, Count)
	copy(out, c[:])
	return out
}
