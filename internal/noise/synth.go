package noise

import (
	"fmt"

	"volumetric-clouds/internal/compute"
	"volumetric-clouds/internal/pointfield"
)

// Index returns the linear index of voxel (x, y, z) in a size³ scalar grid.
func Index(x, y, z, size int) int {
	return x + size*(y+size*z)
}

// Synthesize dispatches the cellular kernel, writing one raw (unnormalized)
// value per voxel into raw, which must hold size³ values.
func Synthesize(dev *compute.Device, raw []float32, size int, layers [3]pointfield.Field, mix float64) error {
	if len(raw) != size*size*size {
		return fmt.Errorf("noise: synthesize: buffer holds %d values, grid needs %d", len(raw), size*size*size)
	}
	return dev.Dispatch("synthesize", size, func(g compute.Group) {
		g.Each(func(x, y, z int) {
			raw[Index(x, y, z, size)] = float32(Layered(layers, mix, VoxelPosition(x, y, z, size)))
		})
	})
}

// ChannelMask returns the one-hot selector for channel ch (0..3).
func ChannelMask(ch int) [4]float32 {
	var m [4]float32
	if ch >= 0 && ch < 4 {
		m[ch] = 1
	}
	return m
}

// WriteChannel copies a size³ scalar field into the channel of packed RGBA
// texels selected by mask. Channels with a zero mask entry keep their values.
func WriteChannel(dev *compute.Device, texels []float32, field []float32, size int, mask [4]float32) error {
	if len(texels) != 4*len(field) || len(field) != size*size*size {
		return fmt.Errorf("noise: write channel: texel/field size mismatch (%d, %d)", len(texels), len(field))
	}
	return dev.Dispatch("write-channel", size, func(g compute.Group) {
		g.Each(func(x, y, z int) {
			i := Index(x, y, z, size)
			v := field[i]
			t := texels[i*4 : i*4+4]
			for c := 0; c < 4; c++ {
				if mask[c] != 0 {
					t[c] = v * mask[c]
				}
			}
		})
	})
}
