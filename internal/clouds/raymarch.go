package clouds

import (
	"math"

	"volumetric-clouds/internal/mathutil"
	"volumetric-clouds/internal/texture"
	"volumetric-clouds/internal/volume"
)

// Ray is one primary ray. Depth limits the march to the opaque scene behind
// the clouds; 0 means unbounded.
type Ray struct {
	Origin mathutil.Vec3
	Dir    mathutil.Vec3
	Depth  float64
}

// Sample is the integrated result of one ray.
type Sample struct {
	Light         float64 // scattered light energy
	Transmittance float64 // 1 = background fully visible
}

// Composite blends the sample over a background colour.
func (s Sample) Composite(bg, lightColor mathutil.Vec3) mathutil.Vec3 {
	return bg.Scale(s.Transmittance).Add(lightColor.Scale(s.Light))
}

// Raymarcher samples a volume store with a fixed jitter source.
type Raymarcher struct {
	store   *volume.Store
	jitter  texture.Jitter
	workers int
}

// NewRaymarcher returns a raymarcher over store. A nil jitter disables the
// start offset. workers <= 0 uses one goroutine per CPU.
func NewRaymarcher(store *volume.Store, jitter texture.Jitter, workers int) *Raymarcher {
	if jitter == nil {
		jitter = texture.None{}
	}
	return &Raymarcher{store: store, jitter: jitter, workers: workers}
}

// density evaluates the cloud density at a world position.
func (pp *prepared) density(shape, detail *volume.Texture, pos mathutil.Vec3) float64 {
	if pp.DensityMultiplier == 0 {
		return 0
	}
	uvw := pp.boxSize.Scale(0.5).Add(pos.Sub(pp.boxCentre)).Scale(pp.CloudScale * baseScale)

	sn := shape.Sample(uvw.Add(pp.shapeOff))
	var shapeFBM float64
	for i := range sn {
		shapeFBM += sn[i] * pp.weights[i]
	}
	shapeFBM *= pp.heightGradient(pos[1])

	base := shapeFBM + pp.DensityOffset*0.1
	if base <= 0 {
		return 0
	}

	dn := detail.Sample(uvw.Scale(pp.DetailScale).Add(pp.detailOff))
	var detailFBM float64
	for i := range pp.dWeights {
		detailFBM += dn[i] * pp.dWeights[i]
	}

	oneMinus := 1 - shapeFBM
	erode := oneMinus * oneMinus * oneMinus
	d := base - (1-detailFBM)*erode*pp.DetailMultiplier
	if d <= 0 {
		return 0
	}
	return d * pp.DensityMultiplier
}

// lightTransmit marches from pos towards the light and returns the
// fraction of light reaching pos, never darker than Brightness.
func (pp *prepared) lightTransmit(shape, detail *volume.Texture, pos mathutil.Vec3) float64 {
	if pp.LightSteps == 0 {
		return 1
	}
	_, inside := pp.Box.Intersect(pos, pp.lightDir)
	step := inside / float64(pp.LightSteps)
	var total float64
	for i := 0; i < pp.LightSteps; i++ {
		p := pos.Add(pp.lightDir.Scale(step * (float64(i) + 0.5)))
		total += pp.density(shape, detail, p) * step
	}
	return pp.Brightness + math.Exp(-total*pp.OutScatterMultiplier)*(1-pp.Brightness)
}

// march walks the ray through the box. trace, when set, receives the
// transmittance after every step.
func (pp *prepared) march(shape, detail *volume.Texture, ray Ray, jitter float64, trace func(float64)) Sample {
	dir := ray.Dir.Normalize()
	dstToBox, dstInside := pp.Box.Intersect(ray.Origin, dir)
	if ray.Depth > 0 {
		dstInside = math.Min(dstInside, ray.Depth-dstToBox)
	}
	if dstInside <= 0 {
		return Sample{Transmittance: 1}
	}

	entry := ray.Origin.Add(dir.Scale(dstToBox))
	stepSize := dstInside / float64(pp.MarchSteps)
	phase := pp.phase(dir.Dot(pp.lightDir))

	transmittance := 1.0
	light := 0.0
	for travelled := jitter * math.Min(pp.RayOffset, stepSize); travelled < dstInside; travelled += stepSize {
		pos := entry.Add(dir.Scale(travelled))
		d := pp.density(shape, detail, pos)
		if d > 0 {
			lt := pp.lightTransmit(shape, detail, pos)
			light += d * stepSize * transmittance * lt * phase * pp.InScatterMultiplier
			transmittance *= math.Exp(-d * stepSize * pp.OutScatterMultiplier)
		}
		if trace != nil {
			trace(transmittance)
		}
		if transmittance < pp.TransmitThreshold {
			break
		}
	}
	return Sample{Light: light, Transmittance: transmittance}
}

// March integrates a single ray against explicit textures. px and py pick
// the jitter texel.
func (r *Raymarcher) March(p Params, shape, detail *volume.Texture, ray Ray, px, py int) Sample {
	return prepare(p).march(shape, detail, ray, r.jitter.Offset(px, py), nil)
}
