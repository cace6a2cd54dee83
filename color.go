package denoise

import (
	"github.com/gogpu/denoise/internal/color"
	"github.com/gogpu/denoise/internal/knn"
)

// Color is a 4-channel float32 color. Channels read from 8-bit images are
// normalized to [0,1]. The filter uses R, G and B; the fourth channel is
// ignored.
type Color = color.ColorF32

// Sampler is a read-only image addressed by continuous texel coordinates.
//
// Texel centers lie at (x+0.5, y+0.5). Implementations resolve every
// coordinate, including out-of-range ones, through their own edge policy
// and must be safe for concurrent use. *Image implements Sampler.
type Sampler interface {
	Sample(x, y float32) Color
}

var _ knn.Sampler = Sampler(nil)

// SamplerFunc adapts a function to the Sampler interface.
type SamplerFunc func(x, y float32) Color

// Sample calls f(x, y).
func (f SamplerFunc) Sample(x, y float32) Color {
	return f(x, y)
}
