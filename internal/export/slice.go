package export

import (
	"image"

	"golang.org/x/image/draw"

	"volumetric-clouds/internal/volume"
)

// SliceImage renders a texture cross-section as grayscale, enlarged by
// scale with nearest-neighbour filtering so individual texels stay visible.
func SliceImage(s volume.Slice, scale int) *image.Gray {
	src := image.NewGray(image.Rect(0, 0, s.Size, s.Size))
	for y := 0; y < s.Size; y++ {
		for x := 0; x < s.Size; x++ {
			v := s.At(x, y)
			if v < 0 {
				v = 0
			} else if v > 1 {
				v = 1
			}
			src.Pix[y*src.Stride+x] = uint8(v*255 + 0.5)
		}
	}
	if scale <= 1 {
		return src
	}

	dst := image.NewGray(image.Rect(0, 0, s.Size*scale, s.Size*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// Montage places the slices of several channels side by side.
func Montage(slices []*image.Gray) *image.Gray {
	if len(slices) == 0 {
		return image.NewGray(image.Rect(0, 0, 0, 0))
	}
	w, h := 0, 0
	for _, s := range slices {
		w += s.Bounds().Dx()
		if s.Bounds().Dy() > h {
			h = s.Bounds().Dy()
		}
	}
	out := image.NewGray(image.Rect(0, 0, w, h))
	x := 0
	for _, s := range slices {
		b := s.Bounds()
		draw.Draw(out, image.Rect(x, 0, x+b.Dx(), b.Dy()), s, b.Min, draw.Src)
		x += b.Dx()
	}
	return out
}
