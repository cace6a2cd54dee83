package color

import (
	"math"
	"testing"
)

func TestDistSq(t *testing.T) {
	tests := []struct {
		name string
		a, b ColorF32
		want float32
	}{
		{"identical", ColorF32{R: 0.3, G: 0.4, B: 0.5}, ColorF32{R: 0.3, G: 0.4, B: 0.5}, 0},
		{"red vs blue", ColorF32{R: 1}, ColorF32{B: 1}, 2},
		{"alpha ignored", ColorF32{A: 0}, ColorF32{A: 1}, 0},
		{"single channel", ColorF32{G: 0.25}, ColorF32{G: 0.75}, 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.a.DistSq(tt.b)
			if !floatNear(got, tt.want, 1e-7) {
				t.Errorf("DistSq(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if back := tt.b.DistSq(tt.a); back != got {
				t.Errorf("DistSq is not symmetric: %v vs %v", got, back)
			}
		})
	}
}

func TestAddScale(t *testing.T) {
	c := ColorF32{R: 0.5, G: 0.25, B: 1, A: 0}
	got := c.Scale(2).Add(ColorF32{R: 1, G: 1, B: 1, A: 1})
	want := ColorF32{R: 2, G: 1.5, B: 3, A: 1}
	if got != want {
		t.Errorf("Scale/Add = %v, want %v", got, want)
	}
}

func TestLerp(t *testing.T) {
	a := ColorF32{R: 0, G: 1, B: 0.5}
	b := ColorF32{R: 1, G: 0, B: 0.5}

	if got := Lerp(a, b, 0); got != a {
		t.Errorf("Lerp(t=0) = %v, want %v", got, a)
	}
	if got := Lerp(a, b, 1); got != b {
		t.Errorf("Lerp(t=1) = %v, want %v", got, b)
	}
	mid := Lerp(a, b, 0.25)
	if !colorF32Near(mid, ColorF32{R: 0.25, G: 0.75, B: 0.5}, 1e-7) {
		t.Errorf("Lerp(t=0.25) = %v", mid)
	}

	// Equal endpoints must be reproduced exactly for any t.
	same := ColorF32{R: 1, G: 0, B: 0}
	for _, q := range []float32{0, 0.2, 0.8, 1, 0.3333} {
		if got := Lerp(same, same, q); got != same {
			t.Errorf("Lerp(same, same, %v) = %v, want %v", q, got, same)
		}
	}
}

func TestPack(t *testing.T) {
	tests := []struct {
		name  string
		input ColorF32
		want  Packed
	}{
		{"black", ColorF32{}, 0},
		{"red", ColorF32{R: 1}, 0x000000FF},
		{"green", ColorF32{G: 1}, 0x0000FF00},
		{"blue", ColorF32{B: 1}, 0x00FF0000},
		{"alpha dropped", ColorF32{R: 1, G: 1, B: 1, A: 1}, 0x00FFFFFF},
		{"clamped", ColorF32{R: 2, G: -1, B: 0.5}, 0x008000FF},
		{"nan is zero", ColorF32{R: float32(math.NaN())}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Pack(tt.input); got != tt.want {
				t.Errorf("Pack(%v) = 0x%08X, want 0x%08X", tt.input, uint32(got), uint32(tt.want))
			}
		})
	}
}

func TestPackedUnpack(t *testing.T) {
	c := ColorU8{R: 10, G: 20, B: 30, A: 40}
	p := PackU8(c)
	if uint32(p) != 0x281E140A {
		t.Errorf("PackU8(%v) = 0x%08X, want 0x281E140A", c, uint32(p))
	}
	if got := p.Unpack(); got != c {
		t.Errorf("Unpack() = %v, want %v", got, c)
	}
	if got := p.F32(); !colorF32Near(got, Normalize(c), 1e-7) {
		t.Errorf("F32() = %v, want %v", got, Normalize(c))
	}
}

func TestNormalizeEndpoints(t *testing.T) {
	if got := Normalize(ColorU8{R: 255, G: 255, B: 255, A: 255}); got != (ColorF32{R: 1, G: 1, B: 1, A: 1}) {
		t.Errorf("Normalize(white) = %v, want exactly 1", got)
	}
	if got := Normalize(ColorU8{}); got != (ColorF32{}) {
		t.Errorf("Normalize(black) = %v, want zero", got)
	}
}

func TestQuantize(t *testing.T) {
	tests := []struct {
		name  string
		input float32
		want  uint8
	}{
		{"zero", 0, 0},
		{"one", 1, 255},
		{"half rounds up", 0.5, 128},
		{"quarter", 0.25, 64},
		{"three quarters", 0.75, 191},
		{"negative", -0.1, 0},
		{"above one", 1.5, 255},
		{"nan", float32(math.NaN()), 0},
		{"+inf", float32(math.Inf(1)), 255},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Quantize(ColorF32{R: tt.input, G: tt.input, B: tt.input, A: tt.input})
			want := ColorU8{R: tt.want, G: tt.want, B: tt.want, A: tt.want}
			if got != want {
				t.Errorf("Quantize(%v) = %v, want %v", tt.input, got, want)
			}
		})
	}
}

// Every 8-bit value survives Normalize followed by Pack and Quantize.
func TestRoundTrip8Bit(t *testing.T) {
	for v := range 256 {
		want := ColorU8{R: uint8(v), G: uint8(255 - v), B: uint8(v / 2), A: uint8(v)}
		c := Normalize(want)
		if got := Quantize(c); got != want {
			t.Fatalf("Quantize(Normalize(%v)) = %v", want, got)
		}
		want.A = 0
		if got := Pack(c).Unpack(); got != want {
			t.Fatalf("Pack(Normalize(%v)).Unpack() = %v", want, got)
		}
	}
}

// floatNear checks if two float32 values are within epsilon of each other.
func floatNear(a, b, epsilon float32) bool {
	return math.Abs(float64(a-b)) < float64(epsilon)
}

// colorF32Near checks if two ColorF32 values are within epsilon of each other.
func colorF32Near(a, b ColorF32, epsilon float32) bool {
	return floatNear(a.R, b.R, epsilon) &&
		floatNear(a.G, b.G, epsilon) &&
		floatNear(a.B, b.B, epsilon) &&
		floatNear(a.A, b.A, epsilon)
}
