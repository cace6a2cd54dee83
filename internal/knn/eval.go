package knn

import "github.com/gogpu/denoise/internal/color"

// Result is the full outcome of the kernel at one output pixel.
type Result struct {
	// Color is the blended output color before packing.
	Color color.ColorF32

	// Center is the sampled center color c0.
	Center color.ColorF32

	// Average is sumColor / sumWeight.
	Average color.ColorF32

	// MatchFraction is the share of window samples whose weight exceeded
	// the weight threshold, in [0,1].
	MatchFraction float32

	// Flat is true when MatchFraction exceeds the lerp threshold.
	Flat bool

	// Blend is the fraction q used in Average + (Center - Average) * q.
	Blend float32
}

// Evaluate runs the denoise kernel at integer pixel (x, y).
func (k *Kernel) Evaluate(src Sampler, x, y int, noiseScale, lerpBase float32) Result {
	cx := float32(x) + 0.5
	cy := float32(y) + 0.5
	c0 := src.Sample(cx, cy)

	var sum color.ColorF32
	var sumWeight float32
	matches := 0

	for _, o := range k.offsets {
		c := src.Sample(cx+o.dj, cy+o.di)
		w := k.exp(-(c0.DistSq(c)*noiseScale + o.spatial))

		sum = sum.Add(c.Scale(w))
		sumWeight += w
		if w > k.weightThreshold {
			matches++
		}
	}

	// sumWeight >= 1: the center sample has distance 0 and spatial term 0.
	avg := color.ColorF32{
		R: sum.R / sumWeight,
		G: sum.G / sumWeight,
		B: sum.B / sumWeight,
	}
	fraction := float32(matches) / float32(k.area)

	flat := k.Flat(fraction)
	q := 1 - lerpBase
	if flat {
		q = lerpBase
	}

	out := color.Lerp(avg, c0, q)
	out.A = 0

	return Result{
		Color:         out,
		Center:        c0,
		Average:       avg,
		MatchFraction: fraction,
		Flat:          flat,
		Blend:         q,
	}
}

// Filter returns the packed denoised color at integer pixel (x, y).
func (k *Kernel) Filter(src Sampler, x, y int, noiseScale, lerpBase float32) color.Packed {
	return color.Pack(k.Evaluate(src, x, y, noiseScale, lerpBase).Color)
}

// MatchFraction computes only the share of matching window samples at
// (x, y). It performs no color accumulation.
func (k *Kernel) MatchFraction(src Sampler, x, y int, noiseScale float32) float32 {
	cx := float32(x) + 0.5
	cy := float32(y) + 0.5
	c0 := src.Sample(cx, cy)

	matches := 0
	for _, o := range k.offsets {
		c := src.Sample(cx+o.dj, cy+o.di)
		w := k.exp(-(c0.DistSq(c)*noiseScale + o.spatial))
		if w > k.weightThreshold {
			matches++
		}
	}
	return float32(matches) / float32(k.area)
}

// Diagnostic returns the regime map color at (x, y): red when the flat
// regime is selected, blue otherwise.
func (k *Kernel) Diagnostic(src Sampler, x, y int, noiseScale float32) color.Packed {
	var q float32
	if k.Flat(k.MatchFraction(src, x, y, noiseScale)) {
		q = 1
	}
	return color.Pack(color.ColorF32{R: q, G: 0, B: 1 - q})
}
