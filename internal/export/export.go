// Package export writes rendered frames and volume cross-sections to disk.
package export

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/mrjoshuak/go-openexr/exr"

	"volumetric-clouds/internal/clouds"
)

// Format is an 8-bit output encoding.
type Format string

const (
	WebP Format = "webp"
	PNG  Format = "png"
)

// ParseFormat accepts a format name or file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(s), ".") {
	case "webp", "":
		return WebP, nil
	case "png":
		return PNG, nil
	}
	return "", fmt.Errorf("export: unknown format %q", s)
}

// Ext returns the file extension including the dot.
func (f Format) Ext() string { return "." + string(f) }

// Encode writes img to w.
func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case WebP:
		if err := nativewebp.Encode(w, img, nil); err != nil {
			return fmt.Errorf("export: webp encode: %w", err)
		}
	case PNG:
		if err := png.Encode(w, img); err != nil {
			return fmt.Errorf("export: png encode: %w", err)
		}
	default:
		return fmt.Errorf("export: unknown format %q", f)
	}
	return nil
}

// WriteFile encodes img to path, creating parent directories. The format is
// taken from the extension.
func WriteFile(path string, img image.Image) error {
	f, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("export: mkdir %s: %w", filepath.Dir(path), err)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: create %s: %w", path, err)
	}
	if err := Encode(out, img, f); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// HDR copies a linear frame into an OpenEXR image. Alpha carries coverage.
func HDR(img *clouds.Image) *exr.RGBAImage {
	out := exr.NewRGBAImage(exr.RectFromSize(img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			px := img.At(x, y)
			out.SetRGBA(x, y, px[0], px[1], px[2], px[3])
		}
	}
	return out
}

// WriteEXR stores the linear frame as an OpenEXR file.
func WriteEXR(path string, img *clouds.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("export: mkdir %s: %w", filepath.Dir(path), err)
	}
	if err := exr.EncodeFile(path, HDR(img)); err != nil {
		return fmt.Errorf("export: exr encode %s: %w", path, err)
	}
	return nil
}
