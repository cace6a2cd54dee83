package color

// Normalize returns c with every channel scaled from [0,255] to [0,1].
func Normalize(c ColorU8) ColorF32 {
	return ColorF32{
		R: float32(c.R) / 255,
		G: float32(c.G) / 255,
		B: float32(c.B) / 255,
		A: float32(c.A) / 255,
	}
}

// Quantize rounds every channel of c to the nearest 8-bit step.
// Out-of-range values saturate.
func Quantize(c ColorF32) ColorU8 {
	return ColorU8{
		R: quantize(c.R),
		G: quantize(c.G),
		B: quantize(c.B),
		A: quantize(c.A),
	}
}

// quantize maps v from [0,1] to [0,255], rounding half up. NaN maps to 0.
func quantize(v float32) uint8 {
	switch {
	case !(v > 0):
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}
