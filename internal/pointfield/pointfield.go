// Package pointfield generates the jittered-grid point sets that seed the
// cellular noise layers.
package pointfield

import (
	"fmt"
	"math/rand/v2"

	"volumetric-clouds/internal/mathutil"
)

// Frequency limits for one layer (cells per axis).
const (
	MinCells = 1
	MaxCells = 64
)

// Field holds Cells³ points, one per cell of a Cells×Cells×Cells grid over the
// unit cube, indexed x + Cells*(y + Cells*z).
type Field struct {
	Cells  int
	Points []mathutil.Vec3
}

// Source is a single stateful random stream. All layers of one noise recipe
// must be drawn from the same Source, in order.
type Source struct {
	r *rand.Rand
}

// NewSource creates a deterministic source for seed.
func NewSource(seed int) *Source {
	return &Source{r: rand.New(rand.NewPCG(uint64(int64(seed)), 0x636c6f7564))}
}

// Float returns the next value in [0, 1).
func (s *Source) Float() float64 {
	return s.r.Float64()
}

// Int returns the next non-negative int32-range value.
func (s *Source) Int() int {
	return int(s.r.Int32())
}

// Generate draws a field with cells points per axis. Cells are visited x
// outer, y middle, z inner; each cell consumes three values (x, y, z jitter).
func (s *Source) Generate(cells int) (Field, error) {
	if cells < MinCells || cells > MaxCells {
		return Field{}, fmt.Errorf("pointfield: cells %d out of range [%d,%d]", cells, MinCells, MaxCells)
	}
	points := make([]mathutil.Vec3, cells*cells*cells)
	inv := 1.0 / float64(cells)
	for x := 0; x < cells; x++ {
		for y := 0; y < cells; y++ {
			for z := 0; z < cells; z++ {
				jitter := mathutil.Vec3{s.r.Float64(), s.r.Float64(), s.r.Float64()}
				idx := x + cells*(y+cells*z)
				points[idx] = mathutil.Vec3{float64(x), float64(y), float64(z)}.Add(jitter).Scale(inv)
			}
		}
	}
	return Field{Cells: cells, Points: points}, nil
}

// Layers generates the A, B and C fields for one recipe from a single source.
func Layers(seed, cellsA, cellsB, cellsC int) ([3]Field, error) {
	var out [3]Field
	src := NewSource(seed)
	for i, cells := range [3]int{cellsA, cellsB, cellsC} {
		f, err := src.Generate(cells)
		if err != nil {
			return out, fmt.Errorf("pointfield: layer %c: %w", 'A'+i, err)
		}
		out[i] = f
	}
	return out, nil
}

// At returns the point of cell (ix, iy, iz), where the indices may lie one
// period outside the grid. The cell is wrapped into range and the point is
// shifted by whole periods so it stays next to the unwrapped cell.
func (f Field) At(ix, iy, iz int) mathutil.Vec3 {
	n := f.Cells
	wx, wy, wz := mathutil.Wrap(ix, n), mathutil.Wrap(iy, n), mathutil.Wrap(iz, n)
	p := f.Points[wx+n*(wy+n*wz)]
	fn := float64(n)
	return mathutil.Vec3{
		p[0] + float64(ix-wx)/fn,
		p[1] + float64(iy-wy)/fn,
		p[2] + float64(iz-wz)/fn,
	}
}
