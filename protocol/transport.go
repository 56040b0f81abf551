package protocol

import "errors"

var (
	ErrPayloadTooLarge = errors.New("payload exceeds block limit")
	ErrIncomplete      = errors.New("incomplete block")
	ErrBadLength       = errors.New("invalid block length")
	ErrBadSync         = errors.New("missing block sync byte")
	ErrBadCRC          = errors.New("block CRC mismatch")
	ErrOutputOverflow  = errors.New("block does not fit the output buffer")
)

// Topic names a one-way publish channel. The key is what travels on the wire.
type Topic struct {
	Name string
	Key  uint16
}

// NewTopic derives the wire key of a topic from its name
func NewTopic(name string) Topic {
	return Topic{Name: name, Key: CRC16([]byte(name))}
}

// TopicDMX carries one DMX frame per block
var TopicDMX = NewTopic("dmx/data")

// EncodeBlock writes a complete topic block for payload into output
func EncodeBlock(output OutputBuffer, key uint16, seq uint32, payload []byte) error {
	if len(payload) > PayloadMax {
		return ErrPayloadTooLarge
	}
	cursor := output.CurPosition()

	// Length placeholder, patched once the payload is in place
	output.Output([]byte{0, 0, byte(key >> 8), byte(key)})
	EncodeVLQUint(output, seq)
	output.Output(payload)

	length := len(output.DataSince(cursor)) + BlockTrailerSize
	output.Update(cursor+BlockPositionLen, byte(length>>8))
	output.Update(cursor+BlockPositionLen+1, byte(length))

	crc := CRC16(output.DataSince(cursor))
	output.Output([]byte{
		byte(crc >> 8),
		byte(crc),
		BlockValueSync,
	})
	if output.Overflowed() {
		return ErrOutputOverflow
	}
	return nil
}

// ParseBlock decodes the block at the start of data
// It returns the number of bytes the block occupies. ErrIncomplete means
// data holds a plausible prefix and more bytes are needed.
func ParseBlock(data []byte) (Message, int, error) {
	if len(data) < BlockHeaderSize {
		return Message{}, 0, ErrIncomplete
	}

	length := int(data[BlockPositionLen])<<8 | int(data[BlockPositionLen+1])
	if length < BlockLengthMin || length > BlockLengthMax {
		return Message{}, 0, ErrBadLength
	}
	if len(data) < length {
		return Message{}, 0, ErrIncomplete
	}
	if data[length-BlockTrailerSync] != BlockValueSync {
		return Message{}, 0, ErrBadSync
	}

	frameCRC := uint16(data[length-BlockTrailerCRC])<<8 | uint16(data[length-BlockTrailerCRC+1])
	if CRC16(data[:length-BlockTrailerSize]) != frameCRC {
		return Message{}, 0, ErrBadCRC
	}

	body := data[BlockHeaderSize : length-BlockTrailerSize]
	seq, err := DecodeVLQUint(&body)
	if err != nil {
		return Message{}, 0, err
	}

	return Message{
		Length:  uint16(length),
		Key:     uint16(data[BlockPositionKey])<<8 | uint16(data[BlockPositionKey+1]),
		Seq:     seq,
		Payload: body,
		CRC:     frameCRC,
	}, length, nil
}
