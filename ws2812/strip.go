package ws2812

import "errors"

var ErrPixelCount = errors.New("ws2812: pixel count does not match strip length")

// Transfer moves packed words onto the wire. It returns once the last word
// has been shifted out and the latch time has elapsed.
type Transfer interface {
	Transfer(words []uint32) error
}

// Strip is a fixed-length chain of LEDs
type Strip struct {
	tx    Transfer
	words []uint32
}

// NewStrip creates a strip of count LEDs driven through tx
func NewStrip(tx Transfer, count int) *Strip {
	return &Strip{
		tx:    tx,
		words: make([]uint32, count),
	}
}

// Len returns the number of LEDs in the strip
func (s *Strip) Len() int {
	return len(s.words)
}

// Write sends the full pixel array. The whole chain is rewritten every time.
func (s *Strip) Write(pixels []Pixel) error {
	if len(pixels) != len(s.words) {
		return ErrPixelCount
	}
	PackAll(s.words, pixels)
	return s.tx.Transfer(s.words)
}
