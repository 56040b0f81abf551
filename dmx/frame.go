// Package dmx receives DMX512 frames from a break-delimited serial line
package dmx

const (
	// ChannelCount is the number of channels in a DMX512 universe
	ChannelCount = 512

	// RawBufferSize is the capacity of each receive buffer: a full universe
	// plus room for the start code and framing slack
	RawBufferSize = ChannelCount + 3

	// BaudRate and line format of the DMX512 physical layer (8N2)
	BaudRate = 250000
	DataBits = 8
	StopBits = 2

	// NullStartCode marks a chunk carrying dimmer data
	NullStartCode = 0x00
)

// Frame holds one universe of channel values. Index 0 is channel 1.
type Frame [ChannelCount]byte

// Fill copies payload into the frame and zeroes every channel past it.
// Bytes beyond ChannelCount are ignored. It returns the number of channels set.
func (f *Frame) Fill(payload []byte) int {
	n := copy(f[:], payload)
	clear(f[n:])
	return n
}

// Channel returns the value of a 1-based DMX channel, or 0 when out of range
func (f *Frame) Channel(ch int) byte {
	if ch < 1 || ch > ChannelCount {
		return 0
	}
	return f[ch-1]
}
