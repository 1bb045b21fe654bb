package noise

import (
	"fmt"
	"math"
	"sync/atomic"

	"volumetric-clouds/internal/compute"
)

// Limits is the global range of a raw field.
type Limits struct {
	Min, Max float32
}

// Degenerate reports whether the field is constant (or empty).
func (l Limits) Degenerate() bool {
	return !(l.Max > l.Min)
}

// atomicFloat is a float32 updated with compare-and-swap loops, the CPU
// counterpart of InterlockedMin/InterlockedMax on the limits buffer.
type atomicFloat struct {
	bits atomic.Uint32
}

func newAtomicFloat(v float32) *atomicFloat {
	a := &atomicFloat{}
	a.bits.Store(math.Float32bits(v))
	return a
}

func (a *atomicFloat) load() float32 {
	return math.Float32frombits(a.bits.Load())
}

func (a *atomicFloat) min(v float32) {
	for {
		old := a.bits.Load()
		if math.Float32frombits(old) <= v {
			return
		}
		if a.bits.CompareAndSwap(old, math.Float32bits(v)) {
			return
		}
	}
}

func (a *atomicFloat) max(v float32) {
	for {
		old := a.bits.Load()
		if math.Float32frombits(old) >= v {
			return
		}
		if a.bits.CompareAndSwap(old, math.Float32bits(v)) {
			return
		}
	}
}

// Reduce finds the global min and max of raw over a size³ grid. Each group
// reduces locally, then merges into the shared limits atomically. Non-finite
// values are ignored.
func Reduce(dev *compute.Device, raw []float32, size int) (Limits, error) {
	if len(raw) != size*size*size {
		return Limits{}, fmt.Errorf("noise: reduce: buffer holds %d values, grid needs %d", len(raw), size*size*size)
	}
	lo := newAtomicFloat(float32(math.Inf(1)))
	hi := newAtomicFloat(float32(math.Inf(-1)))

	err := dev.Dispatch("reduce", size, func(g compute.Group) {
		localMin := float32(math.Inf(1))
		localMax := float32(math.Inf(-1))
		g.Each(func(x, y, z int) {
			v := raw[Index(x, y, z, size)]
			if isNonFinite(v) {
				return
			}
			localMin = min(localMin, v)
			localMax = max(localMax, v)
		})
		lo.min(localMin)
		hi.max(localMax)
	})
	if err != nil {
		return Limits{}, err
	}

	l := Limits{Min: lo.load(), Max: hi.load()}
	if isNonFinite(l.Min) || isNonFinite(l.Max) {
		// Nothing finite was seen.
		l = Limits{}
	}
	return l, nil
}

// Remap rewrites raw in place as (v-min)/(max-min) clamped to [0,1]. A
// degenerate range maps every voxel to 0, as does any non-finite input.
func Remap(dev *compute.Device, raw []float32, size int, l Limits) error {
	if len(raw) != size*size*size {
		return fmt.Errorf("noise: remap: buffer holds %d values, grid needs %d", len(raw), size*size*size)
	}
	degenerate := l.Degenerate()
	span := l.Max - l.Min
	return dev.Dispatch("remap", size, func(g compute.Group) {
		g.Each(func(x, y, z int) {
			i := Index(x, y, z, size)
			v := raw[i]
			if degenerate || isNonFinite(v) {
				raw[i] = 0
				return
			}
			n := (v - l.Min) / span
			if n < 0 {
				n = 0
			} else if n > 1 {
				n = 1
			}
			raw[i] = n
		})
	})
}

// Normalize runs Reduce and then Remap. Dispatch returning is the fence
// between the two passes, so the reduction sees every synthesized voxel.
func Normalize(dev *compute.Device, raw []float32, size int) (Limits, error) {
	l, err := Reduce(dev, raw, size)
	if err != nil {
		return Limits{}, fmt.Errorf("noise: normalize: %w", err)
	}
	if err := Remap(dev, raw, size, l); err != nil {
		return Limits{}, fmt.Errorf("noise: normalize: %w", err)
	}
	return l, nil
}

func isNonFinite(v float32) bool {
	f := float64(v)
	return math.IsNaN(f) || math.IsInf(f, 0)
}
