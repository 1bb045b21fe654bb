package texture

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestLoadGrayPNGIsOpaque(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 3, 2))
	g.SetGray(2, 1, color.Gray{Y: 200})
	path := filepath.Join(t.TempDir(), "noise.png")
	writePNG(t, path, g)

	img, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if img.Rect.Dx() != 3 || img.Rect.Dy() != 2 {
		t.Fatalf("bounds %v", img.Rect)
	}
	i := img.PixOffset(2, 1)
	if img.Pix[i] != 200 || img.Pix[i+3] != 255 {
		t.Fatalf("pixel = %v", img.Pix[i:i+4])
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.tga")); err == nil {
		t.Fatal("expected error")
	}
}

func TestImageJitterTiles(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Pix[img.PixOffset(1, 0)] = 255
	j := NewImageJitter(img)
	if j.Offset(1, 0) != 1 || j.Offset(3, 2) != 1 || j.Offset(-1, -2) != 1 {
		t.Fatal("image jitter should tile in both directions")
	}
	if j.Offset(0, 0) != 0 {
		t.Fatal("unexpected offset at (0,0)")
	}
}

func TestSimplexJitterRangeAndDeterminism(t *testing.T) {
	a := NewSimplexJitter(11)
	b := NewSimplexJitter(11)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			v := a.Offset(x, y)
			if v < 0 || v > 1 {
				t.Fatalf("offset (%d,%d) = %v", x, y, v)
			}
			if v != b.Offset(x, y) {
				t.Fatal("simplex jitter not deterministic")
			}
		}
	}
}

func TestResolveFallsBack(t *testing.T) {
	if _, ok := Resolve("", 1).(*SimplexJitter); !ok {
		t.Fatal("empty path should give simplex jitter")
	}
	if _, ok := Resolve(filepath.Join(t.TempDir(), "nope.png"), 1).(*SimplexJitter); !ok {
		t.Fatal("missing file should give simplex jitter")
	}
	path := filepath.Join(t.TempDir(), "blue.png")
	writePNG(t, path, image.NewNRGBA(image.Rect(0, 0, 4, 4)))
	if _, ok := Resolve(path, 1).(*ImageJitter); !ok {
		t.Fatal("existing file should give image jitter")
	}
}
