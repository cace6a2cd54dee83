// Package image provides the float32 texture and sampler consumed by the
// denoise kernel.
//
// A Texture stores four float32 channels per texel in row-major order. It is
// immutable once handed to a Sampler and is safe for concurrent reads.
package image

import (
	"errors"

	"github.com/gogpu/denoise/internal/color"
)

// Common errors for texture operations.
var (
	// ErrInvalidDimensions is returned when width or height is negative.
	ErrInvalidDimensions = errors.New("image: invalid dimensions")

	// ErrDataTooSmall is returned when provided data is smaller than required.
	ErrDataTooSmall = errors.New("image: data buffer too small")
)

// Channels is the number of float32 values stored per texel.
const Channels = 4

// Texture is a width x height grid of RGBA float32 texels.
type Texture struct {
	width  int
	height int
	pix    []float32
}

// NewTexture allocates a zeroed texture. Zero dimensions produce an empty
// texture; negative dimensions are rejected.
func NewTexture(width, height int) (*Texture, error) {
	if width < 0 || height < 0 {
		return nil, ErrInvalidDimensions
	}
	return &Texture{
		width:  width,
		height: height,
		pix:    make([]float32, width*height*Channels),
	}, nil
}

// FromRaw wraps existing texel data without copying.
// The caller must not modify pix while the texture is being sampled.
func FromRaw(pix []float32, width, height int) (*Texture, error) {
	if width < 0 || height < 0 {
		return nil, ErrInvalidDimensions
	}
	n := width * height * Channels
	if len(pix) < n {
		return nil, ErrDataTooSmall
	}
	return &Texture{
		width:  width,
		height: height,
		pix:    pix[:n],
	}, nil
}

// Width returns the texture width in texels.
func (t *Texture) Width() int {
	return t.width
}

// Height returns the texture height in texels.
func (t *Texture) Height() int {
	return t.height
}

// Bounds returns the texture dimensions as (width, height).
func (t *Texture) Bounds() (int, int) {
	return t.width, t.height
}

// Pix returns the raw texel data, four float32 values per texel.
func (t *Texture) Pix() []float32 {
	return t.pix
}

// IsEmpty reports whether the texture has no texels.
func (t *Texture) IsEmpty() bool {
	return t.width == 0 || t.height == 0
}

// At returns the texel at integer coordinates, or zero if out of bounds.
func (t *Texture) At(x, y int) color.ColorF32 {
	if x < 0 || x >= t.width || y < 0 || y >= t.height {
		return color.ColorF32{}
	}
	i := (y*t.width + x) * Channels
	p := t.pix[i : i+Channels : i+Channels]
	return color.ColorF32{R: p[0], G: p[1], B: p[2], A: p[3]}
}

// Set stores c at integer coordinates. Out-of-bounds writes are ignored.
func (t *Texture) Set(x, y int, c color.ColorF32) {
	if x < 0 || x >= t.width || y < 0 || y >= t.height {
		return
	}
	i := (y*t.width + x) * Channels
	t.pix[i+0] = c.R
	t.pix[i+1] = c.G
	t.pix[i+2] = c.B
	t.pix[i+3] = c.A
}

// Fill sets every texel to c.
func (t *Texture) Fill(c color.ColorF32) {
	for i := 0; i < len(t.pix); i += Channels {
		t.pix[i+0] = c.R
		t.pix[i+1] = c.G
		t.pix[i+2] = c.B
		t.pix[i+3] = c.A
	}
}

// Clone creates a deep copy of the texture.
func (t *Texture) Clone() *Texture {
	pix := make([]float32, len(t.pix))
	copy(pix, t.pix)
	return &Texture{width: t.width, height: t.height, pix: pix}
}
