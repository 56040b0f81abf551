package core

import (
	"dmxbridge/dmx"
	"sync"
	"sync/atomic"
)

// MailboxStats is a snapshot of mailbox counters
type MailboxStats struct {
	Deposits   uint32
	Takes      uint32
	Overwrites uint32 // Frames replaced before they were taken
}

// Mailbox hands the latest frame from one producer to one consumer.
// It holds at most one frame; a deposit replaces any frame not yet taken.
type Mailbox struct {
	mu    sync.Mutex
	frame dmx.Frame
	full  bool

	// wake holds a token when a deposit may be waiting
	wake chan struct{}

	deposits   uint32
	takes      uint32
	overwrites uint32
}

// NewMailbox creates an empty mailbox
func NewMailbox() *Mailbox {
	return &Mailbox{
		wake: make(chan struct{}, 1),
	}
}

// Deposit stores frame, replacing any undelivered frame. It never blocks.
func (m *Mailbox) Deposit(frame dmx.Frame) {
	m.mu.Lock()
	overwrite := m.full
	m.frame = frame
	m.full = true
	m.mu.Unlock()

	atomic.AddUint32(&m.deposits, 1)
	if overwrite {
		n := atomic.AddUint32(&m.overwrites, 1)
		RecordEvent(EvtMailboxOverwrite, n, 0)
	}

	select {
	case m.wake <- struct{}{}:
	default:
		// Consumer already signalled
	}
}

// Take waits for a frame deposited since the previous take and returns it
func (m *Mailbox) Take() dmx.Frame {
	for {
		<-m.wake
		if frame, ok := m.TryTake(); ok {
			return frame
		}
		// Stale token, the frame was taken by TryTake
	}
}

// TryTake returns the pending frame without waiting
func (m *Mailbox) TryTake() (dmx.Frame, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.full {
		return dmx.Frame{}, false
	}
	m.full = false
	atomic.AddUint32(&m.takes, 1)
	return m.frame, true
}

// Stats returns a snapshot of the mailbox counters
func (m *Mailbox) Stats() MailboxStats {
	return MailboxStats{
		Deposits:   atomic.LoadUint32(&m.deposits),
		Takes:      atomic.LoadUint32(&m.takes),
		Overwrites: atomic.LoadUint32(&m.overwrites),
	}
}
