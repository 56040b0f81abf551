package dmx

import "sync"

// Port is the serial line a Receiver reads from
type Port interface {
	// ReadToBreak fills buf with the bytes received until a line break ends
	// the chunk or buf is full, and returns the number of bytes stored.
	// After an error the port discards input up to the next break.
	// ErrPortClosed (or io.EOF) means no more data will ever arrive.
	ReadToBreak(buf []byte) (int, error)
}

type replayEvent struct {
	data []byte
	brk  bool
	err  error
}

// ReplayPort is a Port that plays back a scripted line.
// The end of the script terminates a non-empty chunk in progress like a break
// would, after which reads return ErrPortClosed.
type ReplayPort struct {
	mu     sync.Mutex
	events []replayEvent
	pos    int  // Index into events
	off    int  // Offset into events[pos].data
	closed bool
	skip   bool // Discarding up to the next break after an error
}

// NewReplayPort creates an empty script
func NewReplayPort() *ReplayPort {
	return &ReplayPort{}
}

// Break appends a line break to the script
func (p *ReplayPort) Break() *ReplayPort {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, replayEvent{brk: true})
	return p
}

// Write appends data bytes to the script
func (p *ReplayPort) Write(data ...byte) *ReplayPort {
	p.mu.Lock()
	defer p.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	p.events = append(p.events, replayEvent{data: buf})
	return p
}

// Frame appends a break followed by payload
func (p *ReplayPort) Frame(payload ...byte) *ReplayPort {
	return p.Break().Write(payload...)
}

// Fail appends a line error to the script
func (p *ReplayPort) Fail(err error) *ReplayPort {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, replayEvent{err: err})
	return p
}

// ReadToBreak implements Port
func (p *ReplayPort) ReadToBreak(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, ErrPortClosed
	}

	n := 0
	for p.pos < len(p.events) {
		ev := &p.events[p.pos]
		switch {
		case ev.err != nil:
			p.pos++
			p.skip = true
			return 0, ev.err
		case ev.brk:
			p.pos++
			if p.skip {
				p.skip = false
				continue
			}
			return n, nil
		default:
			if p.skip {
				p.pos++
				p.off = 0
				continue
			}
			c := copy(buf[n:], ev.data[p.off:])
			n += c
			p.off += c
			if p.off == len(ev.data) {
				p.pos++
				p.off = 0
			}
			if n == len(buf) {
				return n, nil
			}
		}
	}

	p.closed = true
	if p.skip || n == 0 {
		return 0, ErrPortClosed
	}
	return n, nil
}
