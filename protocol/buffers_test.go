package protocol

import "testing"

func TestScratchOutput(t *testing.T) {
	scratch := NewScratchOutput()
	scratch.Output([]byte{1, 2, 3})
	scratch.Output([]byte{4, 5})

	if scratch.CurPosition() != 5 {
		t.Errorf("Expected position 5, got %d", scratch.CurPosition())
	}

	scratch.Update(0, 99)
	if result := scratch.Result(); len(result) != 5 || result[0] != 99 {
		t.Errorf("Unexpected result %v", result)
	}

	since := scratch.DataSince(2)
	if len(since) != 3 || since[0] != 3 {
		t.Errorf("DataSince(2): expected [3 4 5], got %v", since)
	}

	scratch.Reset()
	if scratch.CurPosition() != 0 || len(scratch.Result()) != 0 {
		t.Errorf("After reset, expected empty buffer, got %d bytes", scratch.CurPosition())
	}
}

func TestScratchOutputOverflow(t *testing.T) {
	scratch := NewScratchOutput()
	scratch.Output(make([]byte, MessageMax-1))
	if scratch.Overflowed() {
		t.Fatal("Overflowed() true before buffer is full")
	}

	scratch.Output([]byte{1, 2})
	if !scratch.Overflowed() {
		t.Error("Expected Overflowed() after writing past the end")
	}
	if scratch.CurPosition() != MessageMax {
		t.Errorf("Expected position %d, got %d", MessageMax, scratch.CurPosition())
	}

	scratch.Reset()
	if scratch.Overflowed() {
		t.Error("Reset should clear the overflow flag")
	}
}

func TestFifoBuffer(t *testing.T) {
	fifo := NewFifoBuffer(8)

	if n := fifo.Write([]byte{1, 2, 3, 4, 5, 6}); n != 6 {
		t.Errorf("Expected to keep 6 bytes, kept %d", n)
	}
	fifo.Pop(5)
	if fifo.Available() != 1 {
		t.Errorf("After popping 5, expected 1 available, got %d", fifo.Available())
	}

	// Unread bytes move to the front to make room
	if n := fifo.Write([]byte{7, 8, 9, 10}); n != 4 {
		t.Errorf("Expected to keep 4 bytes, kept %d", n)
	}
	data := fifo.Data()
	expected := []byte{6, 7, 8, 9, 10}
	if string(data) != string(expected) {
		t.Errorf("Expected %v, got %v", expected, data)
	}

	if n := fifo.Write([]byte{11, 12, 13, 14}); n != 3 {
		t.Errorf("Expected only 3 bytes to fit, kept %d", n)
	}

	fifo.Pop(100)
	if fifo.Available() != 0 || len(fifo.Data()) != 0 {
		t.Errorf("Expected empty FIFO, got %d bytes", fifo.Available())
	}
}
