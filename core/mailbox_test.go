package core

import (
	"dmxbridge/dmx"
	"testing"
	"time"
)

func frameWith(values ...byte) dmx.Frame {
	var f dmx.Frame
	f.Fill(values)
	return f
}

func TestMailboxLatestWins(t *testing.T) {
	mb := NewMailbox()

	mb.Deposit(frameWith(0xA1))
	mb.Deposit(frameWith(0xB2))

	frame := mb.Take()
	if frame[0] != 0xB2 {
		t.Errorf("Expected latest frame 0xB2, got 0x%02X", frame[0])
	}

	if _, ok := mb.TryTake(); ok {
		t.Error("Expected mailbox to be empty after take")
	}

	stats := mb.Stats()
	if stats.Deposits != 2 || stats.Takes != 1 || stats.Overwrites != 1 {
		t.Errorf("Unexpected stats %+v", stats)
	}
}

func TestMailboxTakeWaitsForDeposit(t *testing.T) {
	mb := NewMailbox()

	got := make(chan dmx.Frame, 1)
	go func() {
		got <- mb.Take()
	}()

	select {
	case <-got:
		t.Fatal("Take returned before any deposit")
	case <-time.After(20 * time.Millisecond):
	}

	mb.Deposit(frameWith(7, 8, 9))

	select {
	case frame := <-got:
		if frame[0] != 7 || frame[2] != 9 {
			t.Errorf("Unexpected frame %v", frame[:3])
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Take did not return after deposit")
	}
}

func TestMailboxStaleWakeToken(t *testing.T) {
	mb := NewMailbox()

	// TryTake consumes the frame but leaves the wake token behind
	mb.Deposit(frameWith(1))
	if _, ok := mb.TryTake(); !ok {
		t.Fatal("Expected a pending frame")
	}

	got := make(chan dmx.Frame, 1)
	go func() {
		got <- mb.Take()
	}()

	select {
	case <-got:
		t.Fatal("Take returned a frame that was already taken")
	case <-time.After(20 * time.Millisecond):
	}

	mb.Deposit(frameWith(2))
	select {
	case frame := <-got:
		if frame[0] != 2 {
			t.Errorf("Expected frame 2, got %d", frame[0])
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Take did not return after second deposit")
	}
}

func TestMailboxConcurrentProducer(t *testing.T) {
	mb := NewMailbox()
	const count = 1000

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 1; i <= count; i++ {
			mb.Deposit(frameWith(byte(i), byte(i>>8)))
		}
	}()

	// Frames arrive in order, some are skipped, the last one is never lost
	last := 0
	for last != count {
		frame := mb.Take()
		v := int(frame[0]) | int(frame[1])<<8
		if v <= last {
			t.Fatalf("Frame %d taken after %d", v, last)
		}
		last = v
	}
	<-done

	stats := mb.Stats()
	if stats.Takes+stats.Overwrites != count {
		t.Errorf("Every deposit should be taken or overwritten: %+v", stats)
	}
}
