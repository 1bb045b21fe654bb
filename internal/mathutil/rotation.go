package mathutil

import "math"

// RotX returns a 3×3 rotation matrix around the X axis. Angle in radians.
func RotX(a float64) Mat3 {
	c, s := math.Cos(a), math.Sin(a)
	return Mat3{
		1, 0, 0,
		0, c, -s,
		0, s, c,
	}
}

// RotY returns a 3×3 rotation matrix around the Y axis.
func RotY(a float64) Mat3 {
	c, s := math.Cos(a), math.Sin(a)
	return Mat3{
		c, 0, s,
		0, 1, 0,
		-s, 0, c,
	}
}

// Deg2Rad converts degrees to radians.
func Deg2Rad(d float64) float64 {
	return d * math.Pi / 180
}

// DirFromAngles returns the unit direction for a yaw (around Y) and pitch
// (around X) in degrees. Zero angles point down +Z.
func DirFromAngles(yawDeg, pitchDeg float64) Vec3 {
	r := Mat3Mul(RotY(Deg2Rad(yawDeg)), RotX(Deg2Rad(-pitchDeg)))
	return r.MulVec3(Vec3{0, 0, 1}).Normalize()
}
