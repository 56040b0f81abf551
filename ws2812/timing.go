package ws2812

import (
	"errors"
	"time"
)

var (
	ErrTiming       = errors.New("ws2812: invalid timing")
	ErrClockDivider = errors.New("ws2812: clock divider out of range")
)

// Timing describes one bit in state machine ticks.
// A 1 bit is high for T1+T2 ticks and low for T3. A 0 bit is high for T1
// ticks and low for T2+T3.
type Timing struct {
	T1 uint8 // Start, always high
	T2 uint8 // Data, high for a 1 bit
	T3 uint8 // Stop, always low

	BitRate uint32        // Bits per second
	Latch   time.Duration // Low time that latches the chain
}

// DefaultTiming is the 800 kHz WS2812 timing
var DefaultTiming = Timing{
	T1:      2,
	T2:      5,
	T3:      3,
	BitRate: 800_000,
	Latch:   60 * time.Microsecond,
}

// maxPhase is the longest phase a single instruction can hold:
// one tick plus 15 delay ticks with a single side-set bit
const maxPhase = 16

// CyclesPerBit returns the number of ticks in one bit
func (t Timing) CyclesPerBit() uint32 {
	return uint32(t.T1) + uint32(t.T2) + uint32(t.T3)
}

// Validate checks that every phase is non-empty and fits one instruction
func (t Timing) Validate() error {
	for _, phase := range []uint8{t.T1, t.T2, t.T3} {
		if phase == 0 || phase > maxPhase {
			return ErrTiming
		}
	}
	if t.BitRate == 0 {
		return ErrTiming
	}
	return nil
}

// HighTicks returns how long a bit holds the line high
func (t Timing) HighTicks(bit bool) uint8 {
	if bit {
		return t.T1 + t.T2
	}
	return t.T1
}

// LowTicks returns how long a bit holds the line low
func (t Timing) LowTicks(bit bool) uint8 {
	if bit {
		return t.T3
	}
	return t.T2 + t.T3
}

// ClockDivider returns the state machine clock divider for a system clock of
// sysHz, in 16.8 fixed point
func (t Timing) ClockDivider(sysHz uint32) (whole uint16, frac uint8, err error) {
	if err := t.Validate(); err != nil {
		return 0, 0, err
	}
	div := uint64(sysHz) * 256 / (uint64(t.BitRate) * uint64(t.CyclesPerBit()))
	if div < 256 || div > 0xFFFF<<8|0xFF {
		return 0, 0, ErrClockDivider
	}
	return uint16(div >> 8), uint8(div), nil
}

// FrameTime returns how long a transfer of n pixels occupies the line,
// latch included
func (t Timing) FrameTime(n int) time.Duration {
	if t.BitRate == 0 {
		return t.Latch
	}
	bits := time.Duration(n * BitsPerPixel)
	return bits*time.Second/time.Duration(t.BitRate) + t.Latch
}
