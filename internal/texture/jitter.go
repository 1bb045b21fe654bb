// Package texture provides the per-pixel ray start offsets used to hide
// banding between raymarch steps: a tiled blue-noise image when one is
// supplied, otherwise a procedural simplex pattern.
package texture

import (
	"image"
	"log/slog"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// Jitter returns a ray offset factor in [0,1] for pixel (x, y).
type Jitter interface {
	Offset(x, y int) float64
}

// None disables jitter.
type None struct{}

func (None) Offset(x, y int) float64 { return 0 }

// ImageJitter tiles the red channel of an image across the frame.
type ImageJitter struct {
	img *image.NRGBA
}

// NewImageJitter wraps a loaded blue-noise image.
func NewImageJitter(img *image.NRGBA) *ImageJitter {
	return &ImageJitter{img: img}
}

func (j *ImageJitter) Offset(x, y int) float64 {
	w, h := j.img.Rect.Dx(), j.img.Rect.Dy()
	x %= w
	if x < 0 {
		x += w
	}
	y %= h
	if y < 0 {
		y += h
	}
	return float64(j.img.Pix[j.img.PixOffset(x, y)]) / 255.0
}

// SimplexJitter samples normalized opensimplex noise at a high frequency so
// neighbouring pixels decorrelate.
type SimplexJitter struct {
	noise opensimplex.Noise
	scale float64
}

// NewSimplexJitter creates a seeded procedural jitter.
func NewSimplexJitter(seed int64) *SimplexJitter {
	return &SimplexJitter{noise: opensimplex.NewNormalized(seed), scale: 0.73}
}

func (j *SimplexJitter) Offset(x, y int) float64 {
	v := j.noise.Eval2(float64(x)*j.scale, float64(y)*j.scale)
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Resolve loads the blue-noise image at path, falling back to simplex jitter
// when path is empty or cannot be loaded.
func Resolve(path string, seed int64) Jitter {
	if path == "" {
		return NewSimplexJitter(seed)
	}
	img, err := Load(path)
	if err != nil {
		slog.Warn("blue noise texture unavailable, using simplex jitter", "path", path, "error", err)
		return NewSimplexJitter(seed)
	}
	slog.Info("blue noise texture loaded", "path", path, "width", img.Rect.Dx(), "height", img.Rect.Dy())
	return NewImageJitter(img)
}
