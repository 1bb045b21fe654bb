package clouds

import (
	"math"

	"volumetric-clouds/internal/mathutil"
)

// Box is the axis-aligned container the clouds live in.
type Box struct {
	Min mathutil.Vec3 `json:"min"`
	Max mathutil.Vec3 `json:"max"`
}

// BoxFromTransform builds the box of an object at position scaled by size.
// Negative scale components mirror the object but span the same box.
func BoxFromTransform(position, size mathutil.Vec3) Box {
	half := size.Scale(0.5)
	a, b := position.Sub(half), position.Add(half)
	return Box{Min: a.Min(b), Max: a.Max(b)}
}

// Valid reports whether Max lies strictly above Min on every axis.
func (b Box) Valid() bool {
	return b.Max[0] > b.Min[0] && b.Max[1] > b.Min[1] && b.Max[2] > b.Min[2]
}

func (b Box) Size() mathutil.Vec3   { return b.Max.Sub(b.Min) }
func (b Box) Centre() mathutil.Vec3 { return b.Min.Add(b.Max).Scale(0.5) }

// Intersect returns the distance along the ray to the box and the distance
// travelled inside it. Origins inside the box give dstToBox = 0. A miss, or a
// box entirely behind the origin, gives dstInside = 0.
func (b Box) Intersect(origin, dir mathutil.Vec3) (dstToBox, dstInside float64) {
	tmin, tmax := math.Inf(-1), math.Inf(1)
	for k := 0; k < 3; k++ {
		if math.Abs(dir[k]) < 1e-12 {
			if origin[k] < b.Min[k] || origin[k] > b.Max[k] {
				return 0, 0
			}
			continue
		}
		inv := 1 / dir[k]
		t1 := (b.Min[k] - origin[k]) * inv
		t2 := (b.Max[k] - origin[k]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
		}
		if t2 < tmax {
			tmax = t2
		}
	}

	dstA := math.Max(0, tmin)
	dstInside = math.Max(0, tmax-dstA)
	if tmin > tmax {
		return 0, 0
	}
	return dstA, dstInside
}
