package clouds

import (
	"math"

	"volumetric-clouds/internal/mathutil"
)

// Offsets applied to time-based sample movement and the base noise scale,
// so speeds and cloud scale stay in comfortable slider ranges.
const (
	offsetSpeed = 0.01
	baseScale   = 0.001
)

// prepared holds the per-frame values derived from Params once, so the
// per-sample path only does arithmetic.
type prepared struct {
	Params

	boxSize   mathutil.Vec3
	boxCentre mathutil.Vec3
	lightDir  mathutil.Vec3
	weights   [4]float64 // normalized shape weights
	dWeights  [3]float64 // normalized detail weights
	shapeOff  mathutil.Vec3
	detailOff mathutil.Vec3
}

func prepare(p Params) *prepared {
	pp := &prepared{
		Params:    p,
		boxSize:   p.Box.Size(),
		boxCentre: p.Box.Centre(),
		lightDir:  p.LightDir.Normalize(),
	}

	var sum float64
	for _, w := range p.NoiseWeights {
		sum += w
	}
	if sum != 0 {
		for i, w := range p.NoiseWeights {
			pp.weights[i] = w / sum
		}
	}
	sum = 0
	for _, w := range p.DetailWeights {
		sum += w
	}
	if sum != 0 {
		for i, w := range p.DetailWeights {
			pp.dWeights[i] = w / sum
		}
	}

	t := p.EffectiveTime()
	vo := p.VolumeOffset * offsetSpeed
	pp.shapeOff = p.CloudSpeed.Scale(t * offsetSpeed).Add(mathutil.Vec3{vo, vo, vo})
	pp.detailOff = p.DetailSpeed.Scale(t * offsetSpeed)
	return pp
}

// heightGradient fades density in over the bottom tenth of the box and out
// towards the top, blended in by HeightMapFactor.
func (pp *prepared) heightGradient(y float64) float64 {
	h := (y - pp.Box.Min[1]) / pp.boxSize[1]
	g := mathutil.Saturate(mathutil.Remap(h, 0, 0.1, 0, 1)) *
		mathutil.Saturate(mathutil.Remap(h, 1, 0.2, 0, 1))
	return mathutil.Lerp(1, g, mathutil.Saturate(pp.HeightMapFactor))
}

// maxAsymmetry keeps hg finite when the ray is aligned with the light.
const maxAsymmetry = 0.999

// hg is the Henyey-Greenstein phase function.
func hg(cosTheta, g float64) float64 {
	g = mathutil.Clamp(g, -maxAsymmetry, maxAsymmetry)
	g2 := g * g
	denom := 1 + g2 - 2*g*cosTheta
	return (1 - g2) / (4 * math.Pi * math.Pow(denom, 1.5))
}

// phase blends a forward and a backward scattering lobe.
func (pp *prepared) phase(cosTheta float64) float64 {
	blend := 0.5*hg(cosTheta, pp.ForwardScattering) + 0.5*hg(cosTheta, -pp.BackwardScattering)
	return pp.ScatterMultiplier * blend
}
