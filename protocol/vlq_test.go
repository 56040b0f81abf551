package protocol

import (
	"math"
	"testing"
)

func TestVLQSequenceRange(t *testing.T) {
	// Sequence numbers use the full uint32 range and wrap
	testCases := []struct {
		value uint32
		size  int
	}{
		{0, 1},
		{1, 1},
		{95, 1},
		{96, 2},
		{127, 2},
		{128, 2},
		{1 << 20, 3},
		{math.MaxInt32, 5},
		{math.MaxInt32 + 1, 5},
		{math.MaxUint32 - 1, 1}, // -2
		{math.MaxUint32, 1},     // -1
	}

	for _, tc := range testCases {
		output := NewScratchOutput()
		EncodeVLQUint(output, tc.value)
		encoded := output.Result()

		if len(encoded) != tc.size {
			t.Errorf("value %d encoded to %d bytes %v, expected %d", tc.value, len(encoded), encoded, tc.size)
		}

		data := encoded
		decoded, err := DecodeVLQUint(&data)
		if err != nil {
			t.Errorf("Failed to decode VLQ for value %d: %v", tc.value, err)
			continue
		}
		if decoded != tc.value {
			t.Errorf("VLQ mismatch: expected %d, got %d", tc.value, decoded)
		}
		if len(data) != 0 {
			t.Errorf("VLQ decode left %d bytes for value %d", len(data), tc.value)
		}
	}
}

func TestVLQKnownEncodings(t *testing.T) {
	testCases := []struct {
		value    uint32
		expected []byte
	}{
		{5, []byte{0x05}},
		{300, []byte{0x82, 0x2C}},
		{math.MaxUint32, []byte{0x7F}},
	}

	for _, tc := range testCases {
		output := NewScratchOutput()
		EncodeVLQUint(output, tc.value)
		encoded := output.Result()
		if string(encoded) != string(tc.expected) {
			t.Errorf("value %d: expected %v, got %v", tc.value, tc.expected, encoded)
		}
	}
}

func TestVLQDecodeAdvances(t *testing.T) {
	data := []byte{0x82, 0x2C, 0x05}
	first, err := DecodeVLQUint(&data)
	if err != nil || first != 300 {
		t.Fatalf("Expected 300, got %d (%v)", first, err)
	}
	second, err := DecodeVLQUint(&data)
	if err != nil || second != 5 {
		t.Fatalf("Expected 5, got %d (%v)", second, err)
	}
}

func TestVLQBufferTooSmall(t *testing.T) {
	for _, data := range [][]byte{{}, {0x80}} {
		_, err := DecodeVLQUint(&data)
		if err != ErrBufferTooSmall {
			t.Errorf("%v: expected ErrBufferTooSmall, got %v", data, err)
		}
	}
}

func TestVLQTooLong(t *testing.T) {
	data := []byte{0x81, 0x81, 0x81, 0x81, 0x81, 0x01}
	_, err := DecodeVLQUint(&data)
	if err != ErrInvalidVLQ {
		t.Errorf("Expected ErrInvalidVLQ, got %v", err)
	}
}
