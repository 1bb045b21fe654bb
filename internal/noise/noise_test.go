package noise

import (
	"math"
	"slices"
	"testing"

	"volumetric-clouds/internal/compute"
	"volumetric-clouds/internal/mathutil"
	"volumetric-clouds/internal/pointfield"
)

func testDevice() *compute.Device {
	return compute.NewDevice(compute.Options{Workers: 4})
}

func mustLayers(t *testing.T, seed, a, b, c int) [3]pointfield.Field {
	t.Helper()
	layers, err := pointfield.Layers(seed, a, b, c)
	if err != nil {
		t.Fatal(err)
	}
	return layers
}

func TestCellularTilesAcrossUnitCube(t *testing.T) {
	layers := mustLayers(t, 42, 1, 3, 7)
	points := []mathutil.Vec3{
		{0, 0, 0},
		{0.13, 0.77, 0.5},
		{0.999, 0.001, 0.25},
	}
	offsets := []mathutil.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {-1, 2, 1}}
	for _, f := range layers {
		for _, p := range points {
			base := Cellular(f, p)
			for _, off := range offsets {
				got := Cellular(f, p.Add(off))
				if math.Abs(got-base) > 1e-9 {
					t.Fatalf("cells=%d p=%v off=%v: %v != %v", f.Cells, p, off, got, base)
				}
			}
		}
	}
}

func TestCellularPeaksAtFeaturePoint(t *testing.T) {
	f := mustLayers(t, 3, 4, 4, 4)[0]
	for _, p := range f.Points[:8] {
		if v := Cellular(f, p); math.Abs(v-1) > 1e-12 {
			t.Fatalf("value at a feature point should be 1, got %v", v)
		}
	}
}

func TestBlend(t *testing.T) {
	tests := []struct {
		a, b, c, mix, want float64
	}{
		{1, 1, 0, 0, 1},
		{1, 1, 0, 1, 0},
		{0, 0, 1, 1, 1},
		{0.3, 0.6, 0.9, 0.5, 0.5*0.9 + 0.5*(0.3+0.3)/1.5},
	}
	for _, tt := range tests {
		if got := Blend(tt.a, tt.b, tt.c, tt.mix); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("Blend(%v,%v,%v,%v) = %v, want %v", tt.a, tt.b, tt.c, tt.mix, got, tt.want)
		}
	}
}

func TestSynthesizeDeterministicAndWrapped(t *testing.T) {
	const size = 16
	dev := testDevice()
	layers := mustLayers(t, 42, 4, 8, 16)

	a := make([]float32, size*size*size)
	b := make([]float32, size*size*size)
	if err := Synthesize(dev, a, size, layers, 0.5); err != nil {
		t.Fatal(err)
	}
	if err := Synthesize(compute.NewDevice(compute.Options{Workers: 1}), b, size, layers, 0.5); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(a, b) {
		t.Fatal("synthesis must not depend on dispatch parallelism")
	}

	// Voxel "size" along any axis is voxel 0 of the next tile.
	for _, f := range layers {
		for y := 0; y < size; y += 5 {
			v0 := Cellular(f, VoxelPosition(0, y, 3, size))
			vN := Cellular(f, VoxelPosition(size, y, 3, size))
			if math.Abs(v0-vN) > 1e-9 {
				t.Fatalf("x wrap mismatch at y=%d: %v vs %v", y, v0, vN)
			}
		}
	}
}

func TestSynthesizeRejectsWrongBuffer(t *testing.T) {
	if err := Synthesize(testDevice(), make([]float32, 10), 4, mustLayers(t, 1, 1, 1, 1), 0); err == nil {
		t.Fatal("expected buffer size error")
	}
}

func TestNormalizeBounds(t *testing.T) {
	const size = 8
	raw := make([]float32, size*size*size)
	for i := range raw {
		raw[i] = float32(math.Sin(float64(i)*0.37))*40 - 7
	}
	wantMinIdx := slices.Index(raw, slices.Min(raw))
	wantMaxIdx := slices.Index(raw, slices.Max(raw))

	l, err := Normalize(testDevice(), raw, size)
	if err != nil {
		t.Fatal(err)
	}
	if l.Degenerate() {
		t.Fatal("limits unexpectedly degenerate")
	}
	for i, v := range raw {
		if v < 0 || v > 1 {
			t.Fatalf("voxel %d out of range: %v", i, v)
		}
	}
	if raw[wantMinIdx] != 0 {
		t.Fatalf("min voxel should map to 0, got %v", raw[wantMinIdx])
	}
	if raw[wantMaxIdx] != 1 {
		t.Fatalf("max voxel should map to 1, got %v", raw[wantMaxIdx])
	}
}

func TestNormalizeDegenerateField(t *testing.T) {
	const size = 4
	raw := make([]float32, size*size*size)
	for i := range raw {
		raw[i] = 3.5
	}
	l, err := Normalize(testDevice(), raw, size)
	if err != nil {
		t.Fatal(err)
	}
	if !l.Degenerate() {
		t.Fatalf("constant field should be degenerate, got %+v", l)
	}
	for i, v := range raw {
		if v != 0 {
			t.Fatalf("voxel %d = %v, want 0", i, v)
		}
	}
}

func TestNormalizeIgnoresNonFinite(t *testing.T) {
	const size = 2
	raw := []float32{0, 1, 2, 3, float32(math.Inf(1)), float32(math.NaN()), 4, 2}
	if _, err := Normalize(testDevice(), raw, size); err != nil {
		t.Fatal(err)
	}
	for i, v := range raw {
		if math.IsNaN(float64(v)) || v < 0 || v > 1 {
			t.Fatalf("voxel %d = %v", i, v)
		}
	}
	if raw[6] != 1 || raw[0] != 0 {
		t.Fatalf("finite limits not respected: %v", raw)
	}
}

func TestWriteChannelTouchesOnlyMaskedChannel(t *testing.T) {
	const size = 2
	n := size * size * size
	texels := make([]float32, n*4)
	for i := range texels {
		texels[i] = 0.25
	}
	field := make([]float32, n)
	for i := range field {
		field[i] = float32(i) / float32(n)
	}
	if err := WriteChannel(testDevice(), texels, field, size, ChannelMask(2)); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < n; i++ {
		for c := 0; c < 4; c++ {
			got := texels[i*4+c]
			want := float32(0.25)
			if c == 2 {
				want = field[i]
			}
			if got != want {
				t.Fatalf("texel %d channel %d = %v, want %v", i, c, got, want)
			}
		}
	}
}

func TestChannelMaskOneHot(t *testing.T) {
	for ch := 0; ch < 4; ch++ {
		m := ChannelMask(ch)
		var sum float32
		for _, v := range m {
			sum += v
		}
		if m[ch] != 1 || sum != 1 {
			t.Fatalf("mask %d = %v", ch, m)
		}
	}
	if ChannelMask(7) != ([4]float32{}) {
		t.Fatal("out-of-range channel should give an empty mask")
	}
}
