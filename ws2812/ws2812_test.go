package ws2812

import (
	"errors"
	"testing"
	"time"
)

func TestPack(t *testing.T) {
	testCases := []struct {
		pixel    Pixel
		expected uint32
	}{
		{Pixel{}, 0x00000000},
		{Pixel{R: 0xFF}, 0x00FF0000},
		{Pixel{G: 0xFF}, 0xFF000000},
		{Pixel{B: 0xFF}, 0x0000FF00},
		{Pixel{R: 0x12, G: 0x34, B: 0x56}, 0x34125600},
	}

	for _, tc := range testCases {
		word := Pack(tc.pixel)
		if word != tc.expected {
			t.Errorf("Pack(%+v): expected 0x%08X, got 0x%08X", tc.pixel, tc.expected, word)
		}
		if Unpack(word) != tc.pixel {
			t.Errorf("Unpack(0x%08X): expected %+v, got %+v", word, tc.pixel, Unpack(word))
		}
	}
}

func TestRedPixelWaveform(t *testing.T) {
	pulses := DefaultTiming.Encode(Pack(Pixel{R: 0xFF}))
	if len(pulses) != BitsPerPixel {
		t.Fatalf("Expected %d pulses, got %d", BitsPerPixel, len(pulses))
	}

	zero := Pulse{High: 2, Low: 8}
	one := Pulse{High: 7, Low: 3}
	for i, p := range pulses {
		want := zero
		if i >= 8 && i < 16 {
			want = one
		}
		if p != want {
			t.Errorf("bit %d: expected %+v, got %+v", i, want, p)
		}
		if uint32(p.High)+uint32(p.Low) != DefaultTiming.CyclesPerBit() {
			t.Errorf("bit %d: period %d ticks, expected %d", i, p.High+p.Low, DefaultTiming.CyclesPerBit())
		}
	}
}

func TestClockDivider(t *testing.T) {
	testCases := []struct {
		sysHz uint32
		whole uint16
		frac  uint8
		err   error
	}{
		{125_000_000, 15, 160, nil},
		{133_000_000, 16, 160, nil},
		{8_000_000, 1, 0, nil},
		{4_000_000, 0, 0, ErrClockDivider},
	}

	for _, tc := range testCases {
		whole, frac, err := DefaultTiming.ClockDivider(tc.sysHz)
		if err != tc.err {
			t.Errorf("%d Hz: expected error %v, got %v", tc.sysHz, tc.err, err)
			continue
		}
		if whole != tc.whole || frac != tc.frac {
			t.Errorf("%d Hz: expected %d+%d/256, got %d+%d/256", tc.sysHz, tc.whole, tc.frac, whole, frac)
		}
	}

	bad := DefaultTiming
	bad.T2 = 0
	if _, _, err := bad.ClockDivider(125_000_000); err != ErrTiming {
		t.Errorf("Expected ErrTiming for empty phase, got %v", err)
	}
}

func TestFrameTime(t *testing.T) {
	// 170 pixels * 24 bits at 800 kHz = 5.1 ms, plus latch
	expected := 5100*time.Microsecond + DefaultTiming.Latch
	if got := DefaultTiming.FrameTime(170); got != expected {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}

func TestStripWrite(t *testing.T) {
	rec := NewRecorder(DefaultTiming)
	strip := NewStrip(rec, 3)

	pixels := []Pixel{
		{R: 0x20, G: 0x10, B: 0x30},
		{R: 0xFF},
		{B: 0x01},
	}
	if err := strip.Write(pixels); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	words := rec.Last()
	if len(words) != 3 || words[0] != 0x10203000 {
		t.Errorf("Unexpected words %08X", words)
	}

	decoded, err := rec.Pixels()
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	for i := range pixels {
		if decoded[i] != pixels[i] {
			t.Errorf("pixel %d: expected %+v, got %+v", i, pixels[i], decoded[i])
		}
	}
}

func TestStripPixelCount(t *testing.T) {
	rec := NewRecorder(DefaultTiming)
	strip := NewStrip(rec, 4)

	if err := strip.Write(make([]Pixel, 3)); err != ErrPixelCount {
		t.Errorf("Expected ErrPixelCount, got %v", err)
	}
	if rec.Count() != 0 {
		t.Error("Nothing should be transferred on a length mismatch")
	}
}

func TestStripTransferError(t *testing.T) {
	rec := NewRecorder(DefaultTiming)
	rec.Err = errors.New("dma fault")
	strip := NewStrip(rec, 1)

	if err := strip.Write([]Pixel{{}}); err != rec.Err {
		t.Errorf("Expected transfer error to propagate, got %v", err)
	}
}

func TestDecodePulsesRejectsNoise(t *testing.T) {
	pulses := DefaultTiming.Encode(0)
	pulses[5] = Pulse{High: 4, Low: 6}
	if _, err := DefaultTiming.DecodePulses(pulses); err != ErrPulse {
		t.Errorf("Expected ErrPulse, got %v", err)
	}
	if _, err := DefaultTiming.DecodePulses(pulses[:10]); err != ErrPulse {
		t.Errorf("Expected ErrPulse for a partial pixel, got %v", err)
	}
}
