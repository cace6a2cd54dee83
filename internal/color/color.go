// Package color provides the float32 color type shared by the denoise kernel
// and the packed 8-bit output encoding.
package color

// ColorF32 represents a color with float32 components.
// Values read from 8-bit images are normalized to [0,1]. The fourth
// component is carried through sampling but ignored by the kernel.
type ColorF32 struct {
	R, G, B, A float32
}

// ColorU8 represents a color with uint8 components in [0,255].
type ColorU8 struct {
	R, G, B, A uint8
}

// Add returns the component-wise sum c + o.
func (c ColorF32) Add(o ColorF32) ColorF32 {
	return ColorF32{R: c.R + o.R, G: c.G + o.G, B: c.B + o.B, A: c.A + o.A}
}

// Scale returns every component of c multiplied by s.
func (c ColorF32) Scale(s float32) ColorF32 {
	return ColorF32{R: c.R * s, G: c.G * s, B: c.B * s, A: c.A * s}
}

// DistSq returns the squared Euclidean distance between c and o over the
// R, G and B channels. The fourth channel does not participate.
func (c ColorF32) DistSq(o ColorF32) float32 {
	dr := o.R - c.R
	dg := o.G - c.G
	db := o.B - c.B
	return dr*dr + dg*dg + db*db
}

// Lerp moves from a toward b by t, per channel: a + (b-a)*t.
// When a and b are equal the result is exactly a for any t.
func Lerp(a, b ColorF32, t float32) ColorF32 {
	return ColorF32{
		R: a.R + (b.R-a.R)*t,
		G: a.G + (b.G-a.G)*t,
		B: a.B + (b.B-a.B)*t,
		A: a.A + (b.A-a.A)*t,
	}
}
