package denoise

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/gogpu/denoise/internal/color"
)

// ChannelStats holds the mean and standard deviation of one channel over an
// image, in [0,1] units.
type ChannelStats struct {
	Mean   float64
	StdDev float64
}

// Stats summarizes a filter run.
type Stats struct {
	// Pixels is the number of pixels analyzed.
	Pixels int

	// FlatFraction is the share of pixels whose window selected the flat
	// regime. It is zero when no regime map was supplied.
	FlatFraction float64

	// Source and Output are the per-channel statistics in R, G, B order.
	Source [3]ChannelStats
	Output [3]ChannelStats
}

// NoiseReduction returns the mean relative drop of the channel standard
// deviations, Output vs Source. Channels with zero source deviation are
// skipped.
func (s Stats) NoiseReduction() float64 {
	var sum float64
	n := 0
	for c := range 3 {
		if s.Source[c].StdDev == 0 {
			continue
		}
		sum += 1 - s.Output[c].StdDev/s.Source[c].StdDev
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// ComputeStats compares output with the source it was computed from, sampled
// at texel centers. regime is an optional DiagnosticFilter result for the
// same inputs and may be nil.
func ComputeStats(src Sampler, output, regime *Buffer) (Stats, error) {
	if src == nil {
		return Stats{}, fmt.Errorf("denoise: stats: %w", ErrNilSampler)
	}
	if err := output.check(); err != nil {
		return Stats{}, err
	}
	if regime != nil {
		if err := regime.check(); err != nil {
			return Stats{}, err
		}
		if regime.Width != output.Width || regime.Height != output.Height {
			return Stats{}, fmt.Errorf("denoise: regime map %dx%d, output %dx%d: %w",
				regime.Width, regime.Height, output.Width, output.Height, ErrBufferSize)
		}
	}

	n := output.Width * output.Height
	s := Stats{Pixels: n}
	if n == 0 {
		return s, nil
	}

	var in, out [3][]float64
	for c := range 3 {
		in[c] = make([]float64, 0, n)
		out[c] = make([]float64, 0, n)
	}

	flat := 0
	for y := range output.Height {
		for x := range output.Width {
			sc := src.Sample(float32(x)+0.5, float32(y)+0.5)
			in[0] = append(in[0], float64(sc.R))
			in[1] = append(in[1], float64(sc.G))
			in[2] = append(in[2], float64(sc.B))

			oc := color.Packed(output.Pix[y*output.Width+x]).F32()
			out[0] = append(out[0], float64(oc.R))
			out[1] = append(out[1], float64(oc.G))
			out[2] = append(out[2], float64(oc.B))

			if regime != nil && IsFlat(regime.Pix[y*output.Width+x]) {
				flat++
			}
		}
	}

	for c := range 3 {
		s.Source[c] = channelStats(in[c])
		s.Output[c] = channelStats(out[c])
	}
	if regime != nil {
		s.FlatFraction = float64(flat) / float64(n)
	}
	return s, nil
}

func channelStats(xs []float64) ChannelStats {
	if len(xs) < 2 {
		return ChannelStats{Mean: stat.Mean(xs, nil)}
	}
	mean, std := stat.MeanStdDev(xs, nil)
	return ChannelStats{Mean: mean, StdDev: std}
}

// IsFlat reports whether a DiagnosticFilter pixel marks the flat regime.
func IsFlat(p uint32) bool {
	return color.Packed(p).Unpack().R == 255
}
