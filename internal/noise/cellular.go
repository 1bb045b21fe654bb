// Package noise holds the two compute passes that build one channel of a
// volume texture: cellular synthesis of the raw field, then normalization of
// that field into [0,1].
package noise

import (
	"math"

	"volumetric-clouds/internal/mathutil"
	"volumetric-clouds/internal/pointfield"
)

// Cellular returns the inverted worley value of p against field f: one minus
// the distance to the nearest point, measured in cell widths. The field tiles
// the unit cube, so Cellular(p) == Cellular(p + k) for any integer offset k.
func Cellular(f pointfield.Field, p mathutil.Vec3) float64 {
	n := float64(f.Cells)
	cell := p.Scale(n).Floor()
	cx, cy, cz := int(cell[0]), int(cell[1]), int(cell[2])

	minSq := math.Inf(1)
	for dz := -1; dz <= 1; dz++ {
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				q := f.At(cx+dx, cy+dy, cz+dz)
				d := q.Sub(p)
				if sq := d.Dot(d); sq < minSq {
					minSq = sq
				}
			}
		}
	}
	return 1 - math.Sqrt(minSq)*n
}

// Blend combines the three layer values. A and B form a two-octave base with
// B at half weight; mix then interpolates from that base towards layer C.
func Blend(a, b, c, mix float64) float64 {
	base := (a + 0.5*b) / 1.5
	return mix*c + (1-mix)*base
}

// Layered evaluates the blended three-layer value at p.
func Layered(layers [3]pointfield.Field, mix float64, p mathutil.Vec3) float64 {
	return Blend(
		Cellular(layers[0], p),
		Cellular(layers[1], p),
		Cellular(layers[2], p),
		mix,
	)
}

// VoxelPosition maps voxel (x, y, z) of a size³ grid into the unit cube.
// Voxel 0 and voxel size land on the same tile position.
func VoxelPosition(x, y, z, size int) mathutil.Vec3 {
	s := float64(size)
	return mathutil.Vec3{float64(x) / s, float64(y) / s, float64(z) / s}
}
