package image

import (
	"math"

	"github.com/gogpu/denoise/internal/color"
)

// FilterMode defines how texels are combined when sampling between centers.
type FilterMode uint8

const (
	// FilterBilinear interpolates between the 4 nearest texel centers.
	FilterBilinear FilterMode = iota

	// FilterNearest selects the texel containing the coordinate.
	FilterNearest
)

// String returns a string representation of the filter mode.
func (m FilterMode) String() string {
	switch m {
	case FilterBilinear:
		return "Bilinear"
	case FilterNearest:
		return "Nearest"
	default:
		return "Unknown"
	}
}

// AddressMode defines how texel indices outside the texture are resolved.
type AddressMode uint8

const (
	// AddressClamp repeats the edge texel.
	AddressClamp AddressMode = iota

	// AddressWrap tiles the texture.
	AddressWrap

	// AddressMirror tiles the texture, flipping every other copy.
	AddressMirror
)

// String returns a string representation of the address mode.
func (m AddressMode) String() string {
	switch m {
	case AddressClamp:
		return "Clamp"
	case AddressWrap:
		return "Wrap"
	case AddressMirror:
		return "Mirror"
	default:
		return "Unknown"
	}
}

// Sampler reads a Texture at continuous texel coordinates.
//
// Coordinates are unnormalized: texel (i, j) has its center at
// (i+0.5, j+0.5). Sampling exactly at a texel center returns that texel
// unchanged in both filter modes. Sampler never reads outside the texture.
type Sampler struct {
	tex     *Texture
	filter  FilterMode
	address AddressMode
}

// NewSampler creates a sampler over tex.
func NewSampler(tex *Texture, filter FilterMode, address AddressMode) *Sampler {
	return &Sampler{tex: tex, filter: filter, address: address}
}

// Texture returns the sampled texture.
func (s *Sampler) Texture() *Texture {
	return s.tex
}

// Filter returns the filter mode.
func (s *Sampler) Filter() FilterMode {
	return s.filter
}

// Address returns the address mode.
func (s *Sampler) Address() AddressMode {
	return s.address
}

// Sample returns the color at continuous texel coordinates (x, y).
// An empty texture samples as transparent black.
func (s *Sampler) Sample(x, y float32) color.ColorF32 {
	if s.tex.IsEmpty() {
		return color.ColorF32{}
	}
	if s.filter == FilterNearest {
		return s.sampleNearest(x, y)
	}
	return s.sampleBilinear(x, y)
}

func (s *Sampler) sampleNearest(x, y float32) color.ColorF32 {
	w, h := s.tex.Bounds()
	ix := s.resolve(int(math.Floor(float64(x))), w)
	iy := s.resolve(int(math.Floor(float64(y))), h)
	return s.tex.At(ix, iy)
}

func (s *Sampler) sampleBilinear(x, y float32) color.ColorF32 {
	w, h := s.tex.Bounds()

	// Shift so that texel centers land on integers.
	fx := x - 0.5
	fy := y - 0.5

	x0f := float32(math.Floor(float64(fx)))
	y0f := float32(math.Floor(float64(fy)))
	tx := fx - x0f
	ty := fy - y0f

	x0 := int(x0f)
	y0 := int(y0f)

	ix0 := s.resolve(x0, w)
	ix1 := s.resolve(x0+1, w)
	iy0 := s.resolve(y0, h)
	iy1 := s.resolve(y0+1, h)

	c00 := s.tex.At(ix0, iy0)
	c10 := s.tex.At(ix1, iy0)
	c01 := s.tex.At(ix0, iy1)
	c11 := s.tex.At(ix1, iy1)

	top := color.Lerp(c00, c10, tx)
	bottom := color.Lerp(c01, c11, tx)
	return color.Lerp(top, bottom, ty)
}

// resolve maps a possibly out-of-range index into [0, n).
func (s *Sampler) resolve(i, n int) int {
	switch s.address {
	case AddressWrap:
		i %= n
		if i < 0 {
			i += n
		}
		return i
	case AddressMirror:
		period := 2 * n
		i %= period
		if i < 0 {
			i += period
		}
		if i >= n {
			i = period - 1 - i
		}
		return i
	default:
		return clamp(i, 0, n-1)
	}
}

// clamp clamps an integer value to [minVal, maxVal].
//
//nolint:unparam // minVal is always 0 currently, but function is general-purpose
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}
