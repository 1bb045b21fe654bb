// Package volume owns the Shape and Detail 3D textures, regenerates their
// channels from noise settings, and exposes them to the raymarcher.
package volume

import (
	"math"

	"volumetric-clouds/internal/mathutil"
	"volumetric-clouds/internal/settings"
)

// Texture is a cubic grid of RGBA float texels stored as flat slices:
// Data[((z*Size+y)*Size+x)*4 + c]. Values are in [0,1] once generated.
type Texture struct {
	Type settings.NoiseType
	Size int
	Data []float32
}

// Texel returns the four channels at (x, y, z), wrapping each coordinate.
func (t *Texture) Texel(x, y, z int) [4]float32 {
	n := t.Size
	x, y, z = mathutil.Wrap(x, n), mathutil.Wrap(y, n), mathutil.Wrap(z, n)
	i := ((z*n+y)*n + x) * 4
	return [4]float32{t.Data[i], t.Data[i+1], t.Data[i+2], t.Data[i+3]}
}

// Sample performs trilinear filtering with repeat wrapping at normalized
// coordinate p. Texel centres sit at (i+0.5)/Size.
func (t *Texture) Sample(p mathutil.Vec3) [4]float64 {
	n := float64(t.Size)

	fx := p[0]*n - 0.5
	fy := p[1]*n - 0.5
	fz := p[2]*n - 0.5
	x0f, y0f, z0f := math.Floor(fx), math.Floor(fy), math.Floor(fz)
	dx, dy, dz := fx-x0f, fy-y0f, fz-z0f
	x0, y0, z0 := int(x0f), int(y0f), int(z0f)

	var out [4]float64
	for k := 0; k < 8; k++ {
		ox, oy, oz := k&1, (k>>1)&1, (k>>2)&1
		w := pick(ox, dx) * pick(oy, dy) * pick(oz, dz)
		if w == 0 {
			continue
		}
		tx := t.Texel(x0+ox, y0+oy, z0+oz)
		out[0] += float64(tx[0]) * w
		out[1] += float64(tx[1]) * w
		out[2] += float64(tx[2]) * w
		out[3] += float64(tx[3]) * w
	}
	return out
}

func pick(o int, d float64) float64 {
	if o == 0 {
		return 1 - d
	}
	return d
}

// Slice is a Size×Size cross-section of one channel, row-major by y.
type Slice struct {
	Size   int
	Values []float32
}

// At returns the value at (x, y).
func (s Slice) At(x, y int) float32 {
	return s.Values[y*s.Size+x]
}

func (t *Texture) slice(ch settings.Channel, z int) Slice {
	n := t.Size
	out := Slice{Size: n, Values: make([]float32, n*n)}
	base := z * n * n
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			out.Values[y*n+x] = t.Data[(base+y*n+x)*4+int(ch)]
		}
	}
	return out
}
