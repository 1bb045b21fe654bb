package postprocess

import (
	"image"
	"math"

	"volumetric-clouds/internal/clouds"
)

// Tone holds the exposure and display gamma used to map a linear frame to
// 8-bit output.
type Tone struct {
	Exposure float64
	Gamma    float64
	// Coverage writes cloud coverage into alpha instead of an opaque frame.
	Coverage bool
}

func DefaultTone() Tone {
	return Tone{Exposure: 1.0, Gamma: 2.2}
}

// ACESTonemap applies ACES Filmic tone mapping to a linear value.
func ACESTonemap(x float64) float64 {
	return (x * (2.51*x + 0.03)) / (x*(2.43*x+0.59) + 0.14)
}

// Tonemap converts a linear HDR frame to straight-alpha 8-bit RGBA.
func Tonemap(img *clouds.Image, t Tone) *image.NRGBA {
	gamma := t.Gamma
	if gamma <= 0 {
		gamma = 2.2
	}
	inv := 1 / gamma
	exposure := t.Exposure
	if exposure <= 0 {
		exposure = 1
	}

	out := image.NewNRGBA(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			px := img.At(x, y)
			di := out.PixOffset(x, y)
			for c := 0; c < 3; c++ {
				v := ACESTonemap(math.Max(0, float64(px[c])*exposure))
				out.Pix[di+c] = clamp8(math.Pow(math.Min(1, v), inv) * 255)
			}
			if t.Coverage {
				out.Pix[di+3] = clamp8(float64(px[3]) * 255)
			} else {
				out.Pix[di+3] = 255
			}
		}
	}
	return out
}
