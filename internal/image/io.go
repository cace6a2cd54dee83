package image

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"

	// Decoders registered with image.Decode beyond the standard library.
	_ "image/gif"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"golang.org/x/image/draw"

	"github.com/gogpu/denoise/internal/color"
)

// I/O errors.
var (
	// ErrEmptyData is returned when image data is empty.
	ErrEmptyData = errors.New("image: empty data")
)

// LoadTexture loads an image file and converts it to a texture.
// Supported formats: PNG, JPEG, GIF, BMP, TIFF, WebP.
func LoadTexture(path string) (*Texture, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("image: open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Decode(f)
}

// LoadTextureFromBytes decodes an in-memory image, auto-detecting the format.
func LoadTextureFromBytes(data []byte) (*Texture, error) {
	if len(data) == 0 {
		return nil, ErrEmptyData
	}
	return Decode(bytes.NewReader(data))
}

// Decode decodes an image from r, auto-detecting the format.
func Decode(r io.Reader) (*Texture, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("image: decode: %w", err)
	}
	return FromStdImage(img), nil
}

// FromStdImage converts a standard library image to a texture.
// 8-bit channels are normalized to [0,1]; RGBA and NRGBA pixel bytes are
// read as stored. Other color models are converted through NRGBA first.
func FromStdImage(img image.Image) *Texture {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	tex, _ := NewTexture(width, height)

	var pix []uint8
	var stride int
	switch src := img.(type) {
	case *image.NRGBA:
		pix, stride = src.Pix, src.Stride
	case *image.RGBA:
		pix, stride = src.Pix, src.Stride
	default:
		nrgba := image.NewNRGBA(image.Rect(0, 0, width, height))
		draw.Draw(nrgba, nrgba.Bounds(), img, bounds.Min, draw.Src)
		pix, stride = nrgba.Pix, nrgba.Stride
	}

	dst := tex.Pix()
	for y := range height {
		row := pix[y*stride : y*stride+width*4]
		for x := range width {
			c := color.Normalize(color.ColorU8{R: row[x*4], G: row[x*4+1], B: row[x*4+2], A: row[x*4+3]})
			i := (y*width + x) * Channels
			dst[i+0] = c.R
			dst[i+1] = c.G
			dst[i+2] = c.B
			dst[i+3] = c.A
		}
	}

	return tex
}

// ToNRGBA converts the texture to an 8-bit NRGBA image with rounding.
func (t *Texture) ToNRGBA() *image.NRGBA {
	nrgba := image.NewNRGBA(image.Rect(0, 0, t.width, t.height))
	for y := range t.height {
		for x := range t.width {
			c := color.Quantize(t.At(x, y))
			off := y*nrgba.Stride + x*4
			nrgba.Pix[off] = c.R
			nrgba.Pix[off+1] = c.G
			nrgba.Pix[off+2] = c.B
			nrgba.Pix[off+3] = c.A
		}
	}
	return nrgba
}

// SavePNG encodes img as PNG at path.
func SavePNG(path string, img image.Image) error {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("image: create file: %w", err)
	}

	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("image: encode PNG: %w", err)
	}

	return f.Close()
}

// SaveJPEG encodes img as JPEG at path with the given quality (1-100).
func SaveJPEG(path string, img image.Image, quality int) error {
	if quality < 1 {
		quality = 1
	}
	if quality > 100 {
		quality = 100
	}

	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("image: create file: %w", err)
	}

	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: quality}); err != nil {
		_ = f.Close()
		return fmt.Errorf("image: encode JPEG: %w", err)
	}

	return f.Close()
}
