package denoise

import (
	"fmt"
	"math"

	"github.com/gogpu/denoise/internal/knn"
)

// Reference tuning values.
const (
	// DefaultNoise is the reference noise level. NoiseScale is derived from
	// it with NoiseScaleFromNoise.
	DefaultNoise float32 = 0.32

	// DefaultLerpBase is the reference blend base.
	DefaultLerpBase float32 = 0.2
)

// Params are the per-call tuning parameters.
type Params struct {
	// NoiseScale multiplies the squared color distance inside the weight
	// exponent. Larger values make the filter more selective.
	NoiseScale float32

	// LerpBase in [0,1] selects the blend factor. Flat windows keep LerpBase
	// of the original pixel, other windows keep 1-LerpBase.
	LerpBase float32
}

// DefaultParams returns the reference parameters.
func DefaultParams() Params {
	return Params{
		NoiseScale: NoiseScaleFromNoise(DefaultNoise),
		LerpBase:   DefaultLerpBase,
	}
}

// NoiseScaleFromNoise converts a noise level to the NoiseScale consumed by
// the filter: 1 / noise².
func NoiseScaleFromNoise(noise float32) float32 {
	return 1 / (noise * noise)
}

// Validate reports whether p can be used. NoiseScale may be any finite
// value; LerpBase must lie in [0,1].
func (p Params) Validate() error {
	ns := float64(p.NoiseScale)
	if math.IsNaN(ns) || math.IsInf(ns, 0) {
		return fmt.Errorf("denoise: noise scale %v: %w", p.NoiseScale, ErrInvalidParams)
	}
	if !(p.LerpBase >= 0 && p.LerpBase <= 1) {
		return fmt.Errorf("denoise: lerp base %v outside [0,1]: %w", p.LerpBase, ErrInvalidParams)
	}
	return nil
}

// Window constants of the reference kernel.
const (
	DefaultRadius                  = knn.DefaultRadius
	DefaultWeightThreshold float32 = knn.DefaultWeightThreshold
	DefaultLerpThreshold   float32 = knn.DefaultLerpThreshold
	MaxRadius                      = knn.MaxRadius
)

// Kernel overrides the window constants. Zero fields take the defaults.
type Kernel struct {
	// Radius is the window radius R; the window is (2R+1)².
	Radius int

	// WeightThreshold is the weight above which a neighbor counts as a match.
	WeightThreshold float32

	// LerpThreshold is the match fraction above which a window is flat.
	// Zero selects the default. To make every window flat use a small
	// positive value such as 1e-6; the center always counts as a match.
	LerpThreshold float32
}

// DefaultKernel returns the reference kernel constants.
func DefaultKernel() Kernel {
	return Kernel{
		Radius:          DefaultRadius,
		WeightThreshold: DefaultWeightThreshold,
		LerpThreshold:   DefaultLerpThreshold,
	}
}

// resolved returns k with zero fields replaced by defaults.
func (k Kernel) resolved() Kernel {
	def := DefaultKernel()
	if k.Radius == 0 {
		k.Radius = def.Radius
	}
	if k.WeightThreshold == 0 {
		k.WeightThreshold = def.WeightThreshold
	}
	if k.LerpThreshold == 0 {
		k.LerpThreshold = def.LerpThreshold
	}
	return k
}

// Area returns the window area (2R+1)² after defaults are applied.
func (k Kernel) Area() int {
	d := 2*k.resolved().Radius + 1
	return d * d
}
