package dmx

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
)

// Config holds receiver options
type Config struct {
	// StartCode strips the leading start code byte of each chunk and drops
	// chunks whose start code is not NullStartCode
	StartCode bool

	// Logger receives one line per dropped chunk. Nil disables logging.
	Logger func(msg string)
}

// Stats is a snapshot of receiver counters
type Stats struct {
	Chunks        uint32 // Completed reads, including errored ones
	Frames        uint32 // Chunks delivered as frames
	Errors        uint32 // Chunks dropped because of a line error
	Discarded     uint32 // Chunks dropped because they may have started mid-frame
	AltStartCodes uint32 // Chunks dropped because of a non-null start code
}

const bufferCount = 2

type chunk struct {
	idx int
	n   int
	err error
}

// Receiver turns break-delimited chunks from a Port into frames.
// Two raw buffers alternate between a fill goroutine and the consumer, so the
// next read is already running while the previous chunk is processed.
type Receiver struct {
	port Port
	cfg  Config

	bufs  [bufferCount][RawBufferSize]byte
	free  chan int   // Buffers the fill goroutine may read into
	ready chan chunk // Completed reads, closed when the port closes

	startOnce sync.Once
	first     bool // Next chunk may have started mid-frame

	chunks        uint32
	frames        uint32
	errors        uint32
	discarded     uint32
	altStartCodes uint32
}

// NewReceiver creates a receiver reading from port
func NewReceiver(port Port, cfg Config) *Receiver {
	r := &Receiver{
		port:  port,
		cfg:   cfg,
		free:  make(chan int, bufferCount),
		ready: make(chan chunk, bufferCount),
		first: true,
	}
	for i := range r.bufs {
		r.free <- i
	}
	return r
}

// Start launches the fill goroutine. Calling it more than once has no effect.
// Next calls Start if it has not been called.
func (r *Receiver) Start() {
	r.startOnce.Do(func() {
		go r.fill()
	})
}

func (r *Receiver) fill() {
	for idx := range r.free {
		n, err := r.port.ReadToBreak(r.bufs[idx][:])
		if err != nil && (errors.Is(err, ErrPortClosed) || errors.Is(err, io.EOF)) {
			close(r.ready)
			return
		}
		r.ready <- chunk{idx: idx, n: n, err: err}
	}
}

// Next waits for the next usable chunk and copies its payload into frame,
// zero-padding the channels past it. It returns the number of payload bytes,
// 0 for an empty chunk. A line error is returned as *ReceiveError and the
// chunk is dropped. ErrPortClosed is returned once the port has closed.
func (r *Receiver) Next(frame *Frame) (int, error) {
	r.Start()
	for {
		c, ok := <-r.ready
		if !ok {
			return 0, ErrPortClosed
		}
		n, done, err := r.consume(c, frame)
		r.free <- c.idx
		if done {
			return n, err
		}
	}
}

// consume handles one completed read. done is false when the chunk was
// dropped silently and the caller should wait for another.
func (r *Receiver) consume(c chunk, frame *Frame) (n int, done bool, err error) {
	seq := atomic.AddUint32(&r.chunks, 1) - 1

	if c.err != nil {
		atomic.AddUint32(&r.errors, 1)
		if errors.Is(c.err, ErrBreakNoData) {
			// A break was seen, the next chunk starts at the start code
			r.first = false
		}
		return 0, true, &ReceiveError{Chunk: seq, Err: c.err}
	}

	buf := r.bufs[c.idx][:c.n]
	// A full buffer ended without a break, so the next chunk is the tail of
	// an oversized frame
	full := c.n == RawBufferSize

	if r.first {
		r.first = full
		atomic.AddUint32(&r.discarded, 1)
		r.log("dmx: discarded chunk " + utoa(seq))
		return 0, false, nil
	}
	r.first = full

	if r.cfg.StartCode && len(buf) > 0 {
		if buf[0] != NullStartCode {
			atomic.AddUint32(&r.altStartCodes, 1)
			r.log("dmx: start code " + utoa(uint32(buf[0])) + " ignored")
			return 0, false, nil
		}
		buf = buf[1:]
	}

	n = frame.Fill(buf)
	atomic.AddUint32(&r.frames, 1)
	return n, true, nil
}

// Run receives frames until the port closes, handing each one and its
// payload length to sink. Dropped chunks go to fail, or to the logger when
// fail is nil. The frame passed to sink is reused by the next iteration.
func (r *Receiver) Run(sink func(frame *Frame, n int), fail func(err error)) error {
	var frame Frame
	for {
		n, err := r.Next(&frame)
		if err != nil {
			if errors.Is(err, ErrPortClosed) {
				return nil
			}
			if fail != nil {
				fail(err)
			} else {
				r.log(err.Error())
			}
			continue
		}
		sink(&frame, n)
	}
}

// Stats returns a snapshot of the receiver counters
func (r *Receiver) Stats() Stats {
	return Stats{
		Chunks:        atomic.LoadUint32(&r.chunks),
		Frames:        atomic.LoadUint32(&r.frames),
		Errors:        atomic.LoadUint32(&r.errors),
		Discarded:     atomic.LoadUint32(&r.discarded),
		AltStartCodes: atomic.LoadUint32(&r.altStartCodes),
	}
}

func (r *Receiver) log(msg string) {
	if r.cfg.Logger != nil {
		r.cfg.Logger(msg)
	}
}
