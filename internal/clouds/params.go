// Package clouds raymarches the Shape and Detail volume textures through an
// axis-aligned box and integrates transmittance and scattered sunlight.
package clouds

import (
	"fmt"
	"math"

	"volumetric-clouds/internal/mathutil"
)

// Params is the per-frame snapshot of every raymarch, lighting and movement
// setting. Box, Time and Simulating come from the scene each frame; the rest
// is loaded from configuration.
type Params struct {
	// Noise
	CloudScale        float64    `json:"cloud_scale"`
	DensityMultiplier float64    `json:"density_multiplier"`
	NoiseWeights      [4]float64 `json:"noise_weights"`
	DetailScale       float64    `json:"detail_scale"`
	DetailMultiplier  float64    `json:"detail_multiplier"`
	DetailWeights     [3]float64 `json:"detail_weights"`
	VolumeOffset      float64    `json:"volume_offset"`
	DensityOffset     float64    `json:"density_offset"`
	HeightMapFactor   float64    `json:"height_map_factor"`

	// Ray-march
	MarchSteps int     `json:"march_steps"`
	LightSteps int     `json:"light_steps"`
	RayOffset  float64 `json:"ray_offset"`

	// Lighting
	Brightness           float64       `json:"brightness"`
	TransmitThreshold    float64       `json:"transmit_threshold"`
	InScatterMultiplier  float64       `json:"in_scatter_multiplier"`
	OutScatterMultiplier float64       `json:"out_scatter_multiplier"`
	ForwardScattering    float64       `json:"forward_scattering"`
	BackwardScattering   float64       `json:"backward_scattering"`
	ScatterMultiplier    float64       `json:"scatter_multiplier"`
	LightDir             mathutil.Vec3 `json:"light_dir"` // points towards the light
	LightColor           mathutil.Vec3 `json:"light_color"`

	// Movement
	CloudSpeed  mathutil.Vec3 `json:"cloud_speed"`
	DetailSpeed mathutil.Vec3 `json:"detail_speed"`

	// Per frame
	Box        Box     `json:"-"`
	Time       float64 `json:"-"` // seconds
	Simulating bool    `json:"-"`
}

// DefaultParams returns settings that produce visible cumulus-like clouds in
// a box a few hundred units across.
func DefaultParams() Params {
	return Params{
		CloudScale:        1.0,
		DensityMultiplier: 1.0,
		NoiseWeights:      [4]float64{1, 0.5, 0.25, 0.125},
		DetailScale:       3.0,
		DetailMultiplier:  0.5,
		DetailWeights:     [3]float64{1, 0.5, 0.25},
		DensityOffset:     -4.0,
		HeightMapFactor:   0.8,

		MarchSteps: 32,
		LightSteps: 8,
		RayOffset:  10,

		Brightness:           0.2,
		TransmitThreshold:    0.01,
		InScatterMultiplier:  1.0,
		OutScatterMultiplier: 0.5,
		ForwardScattering:    0.8,
		BackwardScattering:   0.3,
		ScatterMultiplier:    1.0,
		LightDir:             mathutil.Vec3{0.4, 1, 0.3},
		LightColor:           mathutil.Vec3{1, 0.97, 0.92},

		CloudSpeed:  mathutil.Vec3{1, 0, 0.2},
		DetailSpeed: mathutil.Vec3{2, -0.5, 0.5},

		Box: Box{Min: mathutil.Vec3{-250, 50, -250}, Max: mathutil.Vec3{250, 150, 250}},
	}
}

// Validate rejects settings the raymarcher cannot run with.
func (p Params) Validate() error {
	if p.MarchSteps < 1 {
		return fmt.Errorf("clouds: march_steps must be >= 1, got %d", p.MarchSteps)
	}
	if p.LightSteps < 0 {
		return fmt.Errorf("clouds: light_steps must be >= 0, got %d", p.LightSteps)
	}
	if p.TransmitThreshold < 0 || p.TransmitThreshold >= 1 {
		return fmt.Errorf("clouds: transmit_threshold must be in [0,1), got %v", p.TransmitThreshold)
	}
	if p.RayOffset < 0 {
		return fmt.Errorf("clouds: ray_offset must be >= 0, got %v", p.RayOffset)
	}
	if !p.Box.Valid() {
		return fmt.Errorf("clouds: invalid box %v..%v", p.Box.Min, p.Box.Max)
	}
	for _, m := range []struct {
		name string
		v    float64
	}{
		{"density_multiplier", p.DensityMultiplier},
		{"in_scatter_multiplier", p.InScatterMultiplier},
		{"out_scatter_multiplier", p.OutScatterMultiplier},
		{"scatter_multiplier", p.ScatterMultiplier},
	} {
		if !(m.v >= 0) || math.IsInf(m.v, 1) {
			return fmt.Errorf("clouds: %s must be finite and >= 0, got %v", m.name, m.v)
		}
	}
	if !(p.Brightness >= 0 && p.Brightness <= 1) {
		return fmt.Errorf("clouds: brightness must be in [0,1], got %v", p.Brightness)
	}
	if !(math.Abs(p.ForwardScattering) < 1) {
		return fmt.Errorf("clouds: forward_scattering must be in (-1,1), got %v", p.ForwardScattering)
	}
	if !(math.Abs(p.BackwardScattering) < 1) {
		return fmt.Errorf("clouds: backward_scattering must be in (-1,1), got %v", p.BackwardScattering)
	}
	return nil
}

// EffectiveTime is the animation time: Time while simulating, otherwise 0 so
// the clouds hold still during inspection.
func (p Params) EffectiveTime() float64 {
	if !p.Simulating {
		return 0
	}
	return p.Time
}
