package clouds

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"volumetric-clouds/internal/mathutil"
)

// Sky is a vertical gradient used as the background behind the clouds.
type Sky struct {
	Zenith  mathutil.Vec3 `json:"zenith"`
	Horizon mathutil.Vec3 `json:"horizon"`
}

func DefaultSky() Sky {
	return Sky{
		Zenith:  mathutil.Vec3{0.18, 0.36, 0.75},
		Horizon: mathutil.Vec3{0.70, 0.80, 0.92},
	}
}

// Color returns the sky colour seen along dir.
func (s Sky) Color(dir mathutil.Vec3) mathutil.Vec3 {
	t := mathutil.Saturate(dir[1])
	return s.Horizon.Scale(1 - t).Add(s.Zenith.Scale(t))
}

// Frame describes one image to render.
type Frame struct {
	Width, Height int
	Camera        Camera
	Sky           Sky
	Params        Params
}

// Image is a linear HDR frame. Pix holds RGBA per pixel, row-major; A is
// cloud coverage (1 - transmittance).
type Image struct {
	Width, Height int
	Pix           []float32
}

func NewImage(w, h int) *Image {
	return &Image{Width: w, Height: h, Pix: make([]float32, w*h*4)}
}

// At returns the RGBA values of pixel (x, y).
func (im *Image) At(x, y int) [4]float32 {
	i := (y*im.Width + x) * 4
	return [4]float32{im.Pix[i], im.Pix[i+1], im.Pix[i+2], im.Pix[i+3]}
}

// Render brings the volume textures up to date and raymarches every pixel.
// A failed regeneration is logged and the frame is drawn from the last good
// textures; the failed channel stays dirty and is retried next frame.
func (r *Raymarcher) Render(f Frame) (*Image, error) {
	if f.Width <= 0 || f.Height <= 0 {
		return nil, fmt.Errorf("clouds: invalid frame size %dx%d", f.Width, f.Height)
	}
	if err := f.Params.Validate(); err != nil {
		return nil, err
	}

	if err := r.store.Sync(); err != nil {
		slog.Error("volume regeneration failed, using previous textures", "error", err)
	}

	shape, detail := r.store.BeginFrame()
	defer r.store.EndFrame()

	pp := prepare(f.Params)
	gen := f.Camera.rays(f.Width, f.Height)
	img := NewImage(f.Width, f.Height)

	workers := r.workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > f.Height {
		workers = f.Height
	}

	var next atomic.Int64
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				y := int(next.Add(1) - 1)
				if y >= f.Height {
					return
				}
				for x := 0; x < f.Width; x++ {
					ray := gen.Ray(x, y)
					s := pp.march(shape, detail, ray, r.jitter.Offset(x, y), nil)
					c := s.Composite(f.Sky.Color(ray.Dir), pp.LightColor)
					i := (y*f.Width + x) * 4
					img.Pix[i] = float32(c[0])
					img.Pix[i+1] = float32(c[1])
					img.Pix[i+2] = float32(c[2])
					img.Pix[i+3] = float32(1 - s.Transmittance)
				}
			}
		}()
	}
	wg.Wait()
	return img, nil
}
