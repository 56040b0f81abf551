package protocol

import "errors"

var (
	ErrInvalidVLQ     = errors.New("invalid VLQ encoding")
	ErrBufferTooSmall = errors.New("buffer too small for VLQ")
)

// EncodeVLQUint writes v as a Klipper VLQ: 7-bit groups, most significant
// first, with bit 6 of the leading group carrying the sign. Values above
// MaxInt32 are encoded as their negative int32 counterpart, which keeps every
// sequence number within BlockSeqMaxSize bytes.
func EncodeVLQUint(output OutputBuffer, v uint32) {
	s := int32(v)
	var buf [BlockSeqMaxSize]byte
	n := 0
	for shift := 28; shift > 0; shift -= 7 {
		// One more group is needed once s leaves [-2^(shift-2), 3*2^(shift-2))
		limit := int32(1) << (shift - 2)
		if n > 0 || s < -limit || s >= 3*limit {
			buf[n] = byte(s>>shift)&0x7F | 0x80
			n++
		}
	}
	buf[n] = byte(s & 0x7F)
	output.Output(buf[:n+1])
}

// DecodeVLQUint reads a VLQ from the front of data and advances data past it
func DecodeVLQUint(data *[]byte) (uint32, error) {
	buf := *data
	if len(buf) == 0 {
		return 0, ErrBufferTooSmall
	}

	v := uint32(buf[0] & 0x7F)
	if buf[0]&0x60 == 0x60 {
		// Sign extend
		v |= ^uint32(0x1F)
	}

	i := 0
	for buf[i]&0x80 != 0 {
		i++
		if i >= BlockSeqMaxSize {
			return 0, ErrInvalidVLQ
		}
		if i >= len(buf) {
			return 0, ErrBufferTooSmall
		}
		v = v<<7 | uint32(buf[i]&0x7F)
	}

	*data = buf[i+1:]
	return v, nil
}
