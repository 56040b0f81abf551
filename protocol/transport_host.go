package protocol

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// HostStats counts what the host transport has seen on the wire
type HostStats struct {
	Blocks    uint64 // Blocks that passed length, sync and CRC checks
	Desyncs   uint64 // Times the parser lost block alignment
	Discarded uint64 // Bytes skipped while resynchronising
	Dropped   uint64 // Messages dropped because a subscriber was full
}

// MaxReadErrors is how many consecutive failed reads stop the transport.
// A port whose device has gone away keeps failing every read.
const MaxReadErrors = 10

// HostTransport decodes the topic stream on the host side
// A background reader feeds blocks to per-topic subscriber channels
type HostTransport struct {
	// Serial I/O
	port io.ReadCloser

	// Synchronization state
	isSynchronized uint32 // atomic bool (0 = false, 1 = true)

	inputBuffer *FifoBuffer

	subMutex    sync.Mutex
	subscribers map[uint16][]chan *Message

	blocks    uint64
	desyncs   uint64
	discarded uint64
	dropped   uint64

	errMutex sync.Mutex
	err      error // Read error that stopped the reader

	// Stop channel for graceful shutdown
	stopChan chan struct{}
	doneChan chan struct{}
	stopOnce sync.Once
}

// NewHostTransport creates a host-side transport and starts its reader
func NewHostTransport(port io.ReadCloser) *HostTransport {
	t := &HostTransport{
		port:        port,
		inputBuffer: NewFifoBuffer(4 * MessageMax),
		subscribers: make(map[uint16][]chan *Message),
		stopChan:    make(chan struct{}),
		doneChan:    make(chan struct{}),
	}

	atomic.StoreUint32(&t.isSynchronized, 1) // Start synchronized

	go t.readLoop()

	return t
}

// Subscribe returns a channel receiving every block published on topic
// When the channel holds depth undelivered messages the oldest is dropped.
// The channel is closed when the transport stops.
func (t *HostTransport) Subscribe(topic Topic, depth int) <-chan *Message {
	if depth < 1 {
		depth = 1
	}
	ch := make(chan *Message, depth)

	t.subMutex.Lock()
	defer t.subMutex.Unlock()

	select {
	case <-t.doneChan:
		close(ch)
		return ch
	default:
	}
	t.subscribers[topic.Key] = append(t.subscribers[topic.Key], ch)
	return ch
}

// Done is closed once the reader has stopped
func (t *HostTransport) Done() <-chan struct{} {
	return t.doneChan
}

// Err returns the read error that stopped the transport, or nil when it
// stopped at end of input or through Close
func (t *HostTransport) Err() error {
	t.errMutex.Lock()
	defer t.errMutex.Unlock()
	return t.err
}

// Stats returns a snapshot of the transport counters
func (t *HostTransport) Stats() HostStats {
	return HostStats{
		Blocks:    atomic.LoadUint64(&t.blocks),
		Desyncs:   atomic.LoadUint64(&t.desyncs),
		Discarded: atomic.LoadUint64(&t.discarded),
		Dropped:   atomic.LoadUint64(&t.dropped),
	}
}

// readLoop continuously reads from the port and processes blocks
func (t *HostTransport) readLoop() {
	defer t.closeSubscribers()

	buffer := make([]byte, 256)
	failures := 0

	for {
		select {
		case <-t.stopChan:
			return
		default:
		}

		n, err := t.port.Read(buffer)
		if n > 0 {
			t.inputBuffer.Write(buffer[:n])
			t.processBlocks()
		}
		if err == nil {
			failures = 0
			continue
		}
		if errors.Is(err, io.EOF) {
			return
		}
		failures++
		if failures >= MaxReadErrors {
			t.errMutex.Lock()
			t.err = err
			t.errMutex.Unlock()
			return
		}
		// Transient read error, back off briefly
		time.Sleep(10 * time.Millisecond)
	}
}

// processBlocks parses and dispatches whole blocks from the input buffer
func (t *HostTransport) processBlocks() {
	data := t.inputBuffer.Data()

	for len(data) > 0 {
		if !t.getSynchronized() {
			syncPos := -1
			for i, b := range data {
				if b == BlockValueSync {
					syncPos = i
					break
				}
			}

			if syncPos >= 0 {
				atomic.AddUint64(&t.discarded, uint64(syncPos+1))
				data = data[syncPos+1:]
				t.setSynchronized(true)
			} else {
				atomic.AddUint64(&t.discarded, uint64(len(data)))
				data = nil
			}
			continue
		}

		msg, n, err := ParseBlock(data)
		if err == ErrIncomplete {
			break
		}
		if err != nil {
			atomic.AddUint64(&t.desyncs, 1)
			t.setSynchronized(false)
			continue
		}

		// Payload aliases the FIFO, copy before handing it out
		payload := make([]byte, len(msg.Payload))
		copy(payload, msg.Payload)
		msg.Payload = payload
		data = data[n:]

		atomic.AddUint64(&t.blocks, 1)
		t.dispatch(&msg)
	}

	consumed := t.inputBuffer.Available() - len(data)
	if consumed > 0 {
		t.inputBuffer.Pop(consumed)
	}
}

// dispatch routes a message to the subscribers of its topic
func (t *HostTransport) dispatch(msg *Message) {
	t.subMutex.Lock()
	defer t.subMutex.Unlock()

	for _, ch := range t.subscribers[msg.Key] {
		select {
		case ch <- msg:
		default:
			// Subscriber full, drop oldest
			select {
			case <-ch:
				atomic.AddUint64(&t.dropped, 1)
			default:
			}
			ch <- msg
		}
	}
}

func (t *HostTransport) closeSubscribers() {
	t.subMutex.Lock()
	defer t.subMutex.Unlock()

	close(t.doneChan)
	for key, subs := range t.subscribers {
		for _, ch := range subs {
			close(ch)
		}
		delete(t.subscribers, key)
	}
}

// Close stops the transport and closes the port
func (t *HostTransport) Close() error {
	var err error
	t.stopOnce.Do(func() {
		close(t.stopChan)
		// Closing the port unblocks a pending Read
		if t.port != nil {
			err = t.port.Close()
		}
		<-t.doneChan
	})
	return err
}

// Helper methods for atomic operations
func (t *HostTransport) getSynchronized() bool {
	return atomic.LoadUint32(&t.isSynchronized) != 0
}

func (t *HostTransport) setSynchronized(val bool) {
	if val {
		atomic.StoreUint32(&t.isSynchronized, 1)
	} else {
		atomic.StoreUint32(&t.isSynchronized, 0)
	}
}
