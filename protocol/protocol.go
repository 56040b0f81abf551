// Package protocol implements the framed topic protocol carried over USB CDC
package protocol

// Block layout
//
//	len_hi len_lo | key_hi key_lo | VLQ(seq) | payload | crc_hi crc_lo | 0x7E
//
// len is the total block length including header and trailer. The CRC covers
// every byte before the trailer.
const (
	BlockHeaderSize  = 4 // length (2) + topic key (2)
	BlockTrailerSize = 3 // CRC (2) + sync (1)
	BlockLengthMin   = BlockHeaderSize + 1 + BlockTrailerSize
	BlockSeqMaxSize  = 5 // VLQ encoding of a uint32

	BlockPositionLen = 0
	BlockPositionKey = 2
	BlockTrailerCRC  = 3
	BlockTrailerSync = 1
	BlockValueSync   = 0x7E

	// PayloadMax is the largest payload a block may carry
	PayloadMax = 512

	BlockLengthMax = BlockHeaderSize + BlockSeqMaxSize + PayloadMax + BlockTrailerSize

	MessageMax = 1024 // Scratch buffer size, room for a full block plus slack
)

// Message represents a decoded topic block
type Message struct {
	Length  uint16
	Key     uint16
	Seq     uint32
	Payload []byte
	CRC     uint16
}
