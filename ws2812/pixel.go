// Package ws2812 encodes RGB pixels for WS2812 LED chains.
//
// Pixels are packed into 32-bit words that a shift register clocks out MSB
// first: green, red, blue, then 8 unused bits. The target provides the
// Transfer that moves the words onto the wire.
package ws2812

// Pixel is the colour of one LED
type Pixel struct {
	R, G, B uint8
}

// BitsPerPixel is the number of bits shifted out per LED
const BitsPerPixel = 24

// Pack returns the wire word for p
//
//	word := uint32(g)<<24 | uint32(r)<<16 | uint32(b)<<8
func Pack(p Pixel) uint32 {
	return uint32(p.G)<<24 | uint32(p.R)<<16 | uint32(p.B)<<8
}

// Unpack is the inverse of Pack
func Unpack(word uint32) Pixel {
	return Pixel{
		R: uint8(word >> 16),
		G: uint8(word >> 24),
		B: uint8(word >> 8),
	}
}

// PackAll packs pixels into words and returns the number of words written
func PackAll(words []uint32, pixels []Pixel) int {
	n := min(len(words), len(pixels))
	for i := 0; i < n; i++ {
		words[i] = Pack(pixels[i])
	}
	return n
}
