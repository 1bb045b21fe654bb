package clouds

import (
	"math"

	"volumetric-clouds/internal/mathutil"
)

// Camera is a pinhole camera looking from Position at Target.
type Camera struct {
	Position mathutil.Vec3 `json:"position"`
	Target   mathutil.Vec3 `json:"target"`
	FOV      float64       `json:"fov"` // vertical, degrees
}

// DefaultCamera looks at the default cloud box from below and to the side.
func DefaultCamera() Camera {
	return Camera{
		Position: mathutil.Vec3{0, 0, -450},
		Target:   mathutil.Vec3{0, 100, 0},
		FOV:      60,
	}
}

// rayGen maps pixel centres to world-space directions.
type rayGen struct {
	origin  mathutil.Vec3
	basis   mathutil.Mat3
	tanHalf float64
	aspect  float64
	w, h    float64
}

func (c Camera) rays(width, height int) rayGen {
	fov := c.FOV
	if fov <= 0 || fov >= 180 {
		fov = 60
	}
	return rayGen{
		origin:  c.Position,
		basis:   mathutil.LookAt(c.Position, c.Target, mathutil.Vec3{0, 1, 0}),
		tanHalf: math.Tan(mathutil.Deg2Rad(fov) / 2),
		aspect:  float64(width) / float64(height),
		w:       float64(width),
		h:       float64(height),
	}
}

// Ray returns the primary ray through pixel (px, py); py grows downward.
func (g rayGen) Ray(px, py int) Ray {
	sx := (2*(float64(px)+0.5)/g.w - 1) * g.tanHalf * g.aspect
	sy := (1 - 2*(float64(py)+0.5)/g.h) * g.tanHalf
	dir := g.basis.MulVec3(mathutil.Vec3{sx, sy, 1}).Normalize()
	return Ray{Origin: g.origin, Dir: dir}
}
