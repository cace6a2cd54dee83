package denoise

import (
	"fmt"
	"image"

	teximage "github.com/gogpu/denoise/internal/image"
)

// FilterMode selects how an Image interpolates between texels.
type FilterMode = teximage.FilterMode

// Interpolation modes.
const (
	FilterBilinear = teximage.FilterBilinear
	FilterNearest  = teximage.FilterNearest
)

// AddressMode selects how an Image resolves coordinates outside its bounds.
type AddressMode = teximage.AddressMode

// Edge policies.
const (
	AddressClamp  = teximage.AddressClamp
	AddressWrap   = teximage.AddressWrap
	AddressMirror = teximage.AddressMirror
)

// Image is a float32 RGBA texture with a sampling policy. The default
// policy is bilinear filtering with clamped edges.
//
// An Image must not be modified while a filter call reads it.
type Image struct {
	tex     *teximage.Texture
	sampler *teximage.Sampler
}

// NewImage creates a black image of the given size.
func NewImage(width, height int) (*Image, error) {
	tex, err := teximage.NewTexture(width, height)
	if err != nil {
		return nil, fmt.Errorf("denoise: new image %dx%d: %w", width, height, ErrInvalidDimensions)
	}
	return newImage(tex), nil
}

// NewImageFromStd converts any image.Image. Channels are normalized from
// 8 bits to [0,1].
func NewImageFromStd(img image.Image) *Image {
	return newImage(teximage.FromStdImage(img))
}

// LoadImage decodes a PNG, JPEG, GIF, BMP, TIFF or WebP file.
func LoadImage(path string) (*Image, error) {
	tex, err := teximage.LoadTexture(path)
	if err != nil {
		return nil, fmt.Errorf("denoise: load %s: %w", path, err)
	}
	return newImage(tex), nil
}

func newImage(tex *teximage.Texture) *Image {
	return &Image{
		tex:     tex,
		sampler: teximage.NewSampler(tex, FilterBilinear, AddressClamp),
	}
}

// WithSampling returns a view of img sharing its pixels with a different
// sampling policy.
func (img *Image) WithSampling(filter FilterMode, address AddressMode) *Image {
	return &Image{
		tex:     img.tex,
		sampler: teximage.NewSampler(img.tex, filter, address),
	}
}

// Width returns the image width in pixels.
func (img *Image) Width() int { return img.tex.Width() }

// Height returns the image height in pixels.
func (img *Image) Height() int { return img.tex.Height() }

// Filter returns the interpolation mode.
func (img *Image) Filter() FilterMode { return img.sampler.Filter() }

// Address returns the edge policy.
func (img *Image) Address() AddressMode { return img.sampler.Address() }

// At returns the texel at integer coordinates, or zero if out of bounds.
func (img *Image) At(x, y int) Color { return img.tex.At(x, y) }

// Set writes the texel at integer coordinates. Out-of-bounds writes are
// ignored.
func (img *Image) Set(x, y int, c Color) { img.tex.Set(x, y, c) }

// Fill sets every texel to c.
func (img *Image) Fill(c Color) { img.tex.Fill(c) }

// Sample implements Sampler.
func (img *Image) Sample(x, y float32) Color {
	return img.sampler.Sample(x, y)
}

// ToNRGBA converts the image back to 8-bit.
func (img *Image) ToNRGBA() *image.NRGBA {
	return img.tex.ToNRGBA()
}

// SavePNG writes the image, quantized to 8 bits, as PNG.
func (img *Image) SavePNG(path string) error {
	return teximage.SavePNG(path, img.ToNRGBA())
}

// pix exposes the raw row-major RGBA float32 data for accelerators.
func (img *Image) pix() []float32 { return img.tex.Pix() }
