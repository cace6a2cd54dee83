package knn

import (
	"errors"

	"github.com/gogpu/denoise/internal/color"
	"github.com/gogpu/denoise/internal/fastmath"
)

// Reference constants of the filter.
const (
	// DefaultRadius is the window radius. The window is 7x7.
	DefaultRadius = 3

	// DefaultWeightThreshold is the weight above which a neighbor matches.
	DefaultWeightThreshold float32 = 0.032

	// DefaultLerpThreshold is the match fraction above which a window is
	// treated as flat.
	DefaultLerpThreshold float32 = 0.6

	// MaxRadius bounds the window so the offset table stays small.
	MaxRadius = 16
)

// ErrInvalidKernel is returned when kernel constants are out of range.
var ErrInvalidKernel = errors.New("knn: invalid kernel")

// Sampler is the read-only image the kernel consumes. Coordinates are
// continuous texel coordinates with texel centers at +0.5. Implementations
// resolve any coordinate, in or out of bounds, through their own edge policy
// and must be safe for concurrent use.
type Sampler interface {
	Sample(x, y float32) color.ColorF32
}

// ExpFunc computes e^x in float32.
type ExpFunc func(float32) float32

// offset is one precomputed window position.
type offset struct {
	di, dj  float32 // row and column offset
	spatial float32 // (i² + j²) / A
}

// Kernel holds the constants of one filter instance and the precomputed
// window. Build it with NewKernel.
type Kernel struct {
	radius          int
	area            int
	invArea         float32
	weightThreshold float32
	lerpThreshold   float32
	exp             ExpFunc
	offsets         []offset
}

// Config describes a Kernel. Zero fields take the reference defaults, so a
// zero LerpThreshold cannot be requested; a tiny positive one behaves the
// same because the center always matches.
type Config struct {
	Radius          int
	WeightThreshold float32
	LerpThreshold   float32
	Exp             ExpFunc
}

// DefaultConfig returns the reference configuration with the precise
// exponential.
func DefaultConfig() Config {
	return Config{
		Radius:          DefaultRadius,
		WeightThreshold: DefaultWeightThreshold,
		LerpThreshold:   DefaultLerpThreshold,
		Exp:             fastmath.StdExp,
	}
}

// NewKernel validates cfg and precomputes the window offsets.
func NewKernel(cfg Config) (*Kernel, error) {
	def := DefaultConfig()
	if cfg.Radius == 0 {
		cfg.Radius = def.Radius
	}
	if cfg.WeightThreshold == 0 {
		cfg.WeightThreshold = def.WeightThreshold
	}
	if cfg.LerpThreshold == 0 {
		cfg.LerpThreshold = def.LerpThreshold
	}
	if cfg.Exp == nil {
		cfg.Exp = def.Exp
	}

	if cfg.Radius < 0 || cfg.Radius > MaxRadius {
		return nil, ErrInvalidKernel
	}
	if !(cfg.WeightThreshold > 0 && cfg.WeightThreshold < 1) {
		return nil, ErrInvalidKernel
	}
	if !(cfg.LerpThreshold >= 0 && cfg.LerpThreshold <= 1) {
		return nil, ErrInvalidKernel
	}

	diameter := 2*cfg.Radius + 1
	area := diameter * diameter
	invArea := 1 / float32(area)

	offsets := make([]offset, 0, area)
	for i := -cfg.Radius; i <= cfg.Radius; i++ {
		for j := -cfg.Radius; j <= cfg.Radius; j++ {
			offsets = append(offsets, offset{
				di:      float32(i),
				dj:      float32(j),
				spatial: float32(i*i+j*j) * invArea,
			})
		}
	}

	return &Kernel{
		radius:          cfg.Radius,
		area:            area,
		invArea:         invArea,
		weightThreshold: cfg.WeightThreshold,
		lerpThreshold:   cfg.LerpThreshold,
		exp:             cfg.Exp,
		offsets:         offsets,
	}, nil
}

// MustKernel is like NewKernel but panics on an invalid configuration.
func MustKernel(cfg Config) *Kernel {
	k, err := NewKernel(cfg)
	if err != nil {
		panic(err)
	}
	return k
}

// Radius returns the window radius R.
func (k *Kernel) Radius() int { return k.radius }

// Area returns the window area A = (2R+1)².
func (k *Kernel) Area() int { return k.area }

// WeightThreshold returns the per-neighbor match threshold.
func (k *Kernel) WeightThreshold() float32 { return k.weightThreshold }

// LerpThreshold returns the match fraction above which a window is flat.
func (k *Kernel) LerpThreshold() float32 { return k.lerpThreshold }

// Weight returns the weight of a neighbor at squared color distance dist
// and window offset (i, j).
func (k *Kernel) Weight(dist, noiseScale float32, i, j int) float32 {
	spatial := float32(i*i+j*j) * k.invArea
	return k.exp(-(dist*noiseScale + spatial))
}

// Flat reports whether matchFraction selects the flat regime.
func (k *Kernel) Flat(matchFraction float32) bool {
	return matchFraction > k.lerpThreshold
}
