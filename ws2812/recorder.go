package ws2812

import (
	"errors"
	"sync"
)

var ErrPulse = errors.New("ws2812: pulse does not match a 0 or 1 bit")

// Pulse is one bit as seen on the wire, in state machine ticks
type Pulse struct {
	High uint8
	Low  uint8
}

// Encode expands a packed word into the 24 pulses the state machine emits
func (t Timing) Encode(word uint32) []Pulse {
	pulses := make([]Pulse, BitsPerPixel)
	for i := range pulses {
		bit := word&(1<<(31-i)) != 0
		pulses[i] = Pulse{High: t.HighTicks(bit), Low: t.LowTicks(bit)}
	}
	return pulses
}

// DecodePulses turns a pulse train back into pixels
func (t Timing) DecodePulses(pulses []Pulse) ([]Pixel, error) {
	if len(pulses)%BitsPerPixel != 0 {
		return nil, ErrPulse
	}
	one := Pulse{High: t.HighTicks(true), Low: t.LowTicks(true)}
	zero := Pulse{High: t.HighTicks(false), Low: t.LowTicks(false)}

	pixels := make([]Pixel, 0, len(pulses)/BitsPerPixel)
	for i := 0; i < len(pulses); i += BitsPerPixel {
		var word uint32
		for j, p := range pulses[i : i+BitsPerPixel] {
			switch p {
			case one:
				word |= 1 << (31 - j)
			case zero:
			default:
				return nil, ErrPulse
			}
		}
		pixels = append(pixels, Unpack(word))
	}
	return pixels, nil
}

// Recorder is a Transfer that keeps a copy of every transmission.
// Set Err to make transfers fail.
type Recorder struct {
	Timing Timing
	Err    error

	mu        sync.Mutex
	transfers [][]uint32
}

// NewRecorder creates a recorder that renders waveforms with timing
func NewRecorder(timing Timing) *Recorder {
	return &Recorder{Timing: timing}
}

// Transfer implements Transfer
func (r *Recorder) Transfer(words []uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.transfers = append(r.transfers, append([]uint32(nil), words...))
	return nil
}

// Count returns the number of completed transfers
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.transfers)
}

// Last returns the words of the most recent transfer
func (r *Recorder) Last() []uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.transfers) == 0 {
		return nil
	}
	return r.transfers[len(r.transfers)-1]
}

// Waveform returns the pulse train of the most recent transfer
func (r *Recorder) Waveform() []Pulse {
	words := r.Last()
	pulses := make([]Pulse, 0, len(words)*BitsPerPixel)
	for _, w := range words {
		pulses = append(pulses, r.Timing.Encode(w)...)
	}
	return pulses
}

// Pixels decodes the most recent transfer
func (r *Recorder) Pixels() ([]Pixel, error) {
	return r.Timing.DecodePulses(r.Waveform())
}
