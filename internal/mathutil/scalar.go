package mathutil

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Saturate clamps v to [0, 1].
func Saturate(v float64) float64 {
	return Clamp(v, 0, 1)
}

// Lerp interpolates between a and b by t.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Remap maps v from [oldMin, oldMax] to [newMin, newMax] without clamping.
// A zero-width source range maps everything to newMin.
func Remap(v, oldMin, oldMax, newMin, newMax float64) float64 {
	if oldMax == oldMin {
		return newMin
	}
	return newMin + (v-oldMin)*(newMax-newMin)/(oldMax-oldMin)
}

// Wrap returns v modulo n in [0, n) for positive n.
func Wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}
