package color

// Packed is a 32-bit color with 8 bits per channel.
// Byte 0 holds red, byte 1 green, byte 2 blue and byte 3 the unused channel.
type Packed uint32

// Pack quantizes the R, G and B channels of c to 8 bits and packs them.
// The fourth byte is always zero.
func Pack(c ColorF32) Packed {
	r := uint32(quantize(c.R))
	g := uint32(quantize(c.G))
	b := uint32(quantize(c.B))
	return Packed(r | g<<8 | b<<16)
}

// PackU8 packs all four 8-bit channels without quantization.
func PackU8(c ColorU8) Packed {
	return Packed(uint32(c.R) | uint32(c.G)<<8 | uint32(c.B)<<16 | uint32(c.A)<<24)
}

// Unpack splits p into its four 8-bit channels.
func (p Packed) Unpack() ColorU8 {
	return ColorU8{
		R: uint8(p),       //nolint:gosec // masked by truncation
		G: uint8(p >> 8),  //nolint:gosec // masked by truncation
		B: uint8(p >> 16), //nolint:gosec // masked by truncation
		A: uint8(p >> 24), //nolint:gosec // masked by truncation
	}
}

// F32 unpacks p and normalizes every channel to [0,1].
func (p Packed) F32() ColorF32 {
	return Normalize(p.Unpack())
}
