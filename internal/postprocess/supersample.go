package postprocess

import (
	"image"

	"golang.org/x/image/draw"
)

// Downsample shrinks a supersampled frame to width x height. Alpha carries
// cloud coverage, so colour is filtered premultiplied: clear-sky pixels with
// zero coverage then add nothing to the cloud edges they border.
func Downsample(img *image.NRGBA, width, height int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() <= width && b.Dy() <= height {
		return img
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), premultiply(img), b, draw.Src, nil)
	return unpremultiply(dst)
}

func premultiply(img *image.NRGBA) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		src := img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Max.X, y)]
		dst := out.Pix[out.PixOffset(b.Min.X, y):out.PixOffset(b.Max.X, y)]
		for i := 0; i < len(src); i += 4 {
			cov := float64(src[i+3]) / 255
			for c := 0; c < 3; c++ {
				dst[i+c] = uint8(float64(src[i+c])*cov + 0.5)
			}
			dst[i+3] = src[i+3]
		}
	}
	return out
}

// unpremultiply leaves colour black where coverage rounds to zero.
func unpremultiply(img *image.RGBA) *image.NRGBA {
	out := image.NewNRGBA(img.Bounds())
	for i := 0; i < len(img.Pix); i += 4 {
		cov := float64(img.Pix[i+3])
		out.Pix[i+3] = img.Pix[i+3]
		if cov <= 1 {
			continue
		}
		for c := 0; c < 3; c++ {
			out.Pix[i+c] = clamp8(float64(img.Pix[i+c]) * 255 / cov)
		}
	}
	return out
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
