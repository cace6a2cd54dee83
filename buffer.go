package denoise

import (
	"fmt"
	"image"
	stdcolor "image/color"
	"strings"

	"github.com/gogpu/denoise/internal/color"
	teximage "github.com/gogpu/denoise/internal/image"
)

// Buffer is a width x height grid of packed colors.
//
// Each element holds R in bits 0-7, G in bits 8-15, B in bits 16-23 and an
// unused zero byte in bits 24-31. On little-endian machines the in-memory
// byte order is R, G, B, 0. Pixel (x, y) is Pix[y*Width+x].
type Buffer struct {
	Width  int
	Height int
	Pix    []uint32
}

// NewBuffer allocates a zeroed buffer.
func NewBuffer(width, height int) (*Buffer, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("denoise: buffer %dx%d: %w", width, height, ErrInvalidDimensions)
	}
	return &Buffer{
		Width:  width,
		Height: height,
		Pix:    make([]uint32, width*height),
	}, nil
}

// check reports whether b is a usable destination.
func (b *Buffer) check() error {
	if b == nil {
		return fmt.Errorf("denoise: nil destination: %w", ErrBufferSize)
	}
	if b.Width < 0 || b.Height < 0 {
		return fmt.Errorf("denoise: destination %dx%d: %w", b.Width, b.Height, ErrInvalidDimensions)
	}
	if len(b.Pix) != b.Width*b.Height {
		return fmt.Errorf("denoise: destination has %d pixels, want %d: %w",
			len(b.Pix), b.Width*b.Height, ErrBufferSize)
	}
	return nil
}

// Packed returns the packed value at (x, y), or 0 if out of bounds.
func (b *Buffer) Packed(x, y int) uint32 {
	if x < 0 || x >= b.Width || y < 0 || y >= b.Height {
		return 0
	}
	return b.Pix[y*b.Width+x]
}

// RGB returns the unpacked 8-bit channels at (x, y).
func (b *Buffer) RGB(x, y int) (r, g, bl uint8) {
	c := color.Packed(b.Packed(x, y)).Unpack()
	return c.R, c.G, c.B
}

// At returns the color at (x, y) as an opaque NRGBA value.
func (b *Buffer) At(x, y int) stdcolor.NRGBA {
	r, g, bl := b.RGB(x, y)
	return stdcolor.NRGBA{R: r, G: g, B: bl, A: 255}
}

// ToNRGBA converts the buffer to an opaque image. The unused fourth byte is
// replaced by full alpha.
func (b *Buffer) ToNRGBA() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	for y := range b.Height {
		row := b.Pix[y*b.Width : (y+1)*b.Width]
		for x, p := range row {
			c := color.Packed(p).Unpack()
			off := y*img.Stride + x*4
			img.Pix[off] = c.R
			img.Pix[off+1] = c.G
			img.Pix[off+2] = c.B
			img.Pix[off+3] = 255
		}
	}
	return img
}

// ToImage returns the buffer as an image.Image.
func (b *Buffer) ToImage() image.Image {
	return b.ToNRGBA()
}

// SavePNG writes the buffer as an opaque PNG.
func (b *Buffer) SavePNG(path string) error {
	return teximage.SavePNG(path, b.ToNRGBA())
}

// SaveJPEG writes the buffer as JPEG with the given quality (1-100).
func (b *Buffer) SaveJPEG(path string, quality int) error {
	return teximage.SaveJPEG(path, b.ToNRGBA(), quality)
}

// Save writes the buffer choosing the encoder from the file extension:
// .jpg and .jpeg produce JPEG, anything else PNG.
func (b *Buffer) Save(path string) error {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".jpg") || strings.HasSuffix(lower, ".jpeg") {
		return b.SaveJPEG(path, 95)
	}
	return b.SavePNG(path)
}
