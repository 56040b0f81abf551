package dmx

import "errors"

var (
	// Recoverable line errors, the chunk is dropped and the receiver re-arms
	ErrFraming     = errors.New("dmx: framing error")
	ErrOverrun     = errors.New("dmx: receive overrun")
	ErrParity      = errors.New("dmx: parity error")
	ErrBreakNoData = errors.New("dmx: break without data")

	// ErrPortClosed ends the receive loop
	ErrPortClosed = errors.New("dmx: port closed")
)

// ReceiveError reports a chunk that could not be turned into a frame
type ReceiveError struct {
	Chunk uint32 // Index of the failed chunk since start
	Err   error
}

func (e *ReceiveError) Error() string {
	return e.Err.Error() + " (chunk " + utoa(e.Chunk) + ")"
}

func (e *ReceiveError) Unwrap() error {
	return e.Err
}

// utoa converts an unsigned integer to a string without fmt
func utoa(n uint32) string {
	if n == 0 {
		return "0"
	}
	var buf [10]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[pos:])
}
