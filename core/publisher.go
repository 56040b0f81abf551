package core

import (
	"dmxbridge/dmx"
	"dmxbridge/protocol"
	"errors"
	"sync"
	"sync/atomic"
)

var (
	ErrHostNotReady = errors.New("host link not ready")
	ErrShortWrite   = errors.New("short write to host link")
)

// DisconnectThreshold is the number of consecutive failed publishes after
// which the host is reported as disconnected
const DisconnectThreshold = 10

// HostLink is the byte stream to the host, USB CDC on target
type HostLink interface {
	// Ready reports whether a host is attached and can accept data
	Ready() bool
	Write(p []byte) (int, error)
}

// PublishError reports a frame that was not delivered to the host
type PublishError struct {
	Seq uint32 // Sequence number the frame would have carried
	Err error
}

func (e *PublishError) Error() string {
	return "publish seq " + utoa(e.Seq) + ": " + e.Err.Error()
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// PublisherStats is a snapshot of publisher counters
type PublisherStats struct {
	Published uint32
	Failed    uint32
	Seq       uint32 // Sequence number of the next publish
}

// Publisher sends frames to the host on the dmx/data topic.
// The sequence number advances only when a block was written in full.
type Publisher struct {
	mu     sync.Mutex
	link   HostLink
	output *protocol.ScratchOutput
	topic  protocol.Topic

	seq          uint32
	failures     uint32 // Consecutive failed publishes
	disconnected bool

	published uint32
	failed    uint32
}

// NewPublisher creates a publisher writing to link
func NewPublisher(link HostLink) *Publisher {
	return &Publisher{
		link:   link,
		output: protocol.NewScratchOutput(),
		topic:  protocol.TopicDMX,
	}
}

// Publish encodes frame with the current sequence number and writes it to the
// host. It never waits for a host to appear. Failures return *PublishError.
func (p *Publisher) Publish(frame *dmx.Frame) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	seq := p.seq
	if !p.link.Ready() {
		return p.fail(seq, ErrHostNotReady)
	}

	p.output.Reset()
	if err := protocol.EncodeBlock(p.output, p.topic.Key, seq, frame[:]); err != nil {
		return p.fail(seq, err)
	}

	block := p.output.Result()
	n, err := p.link.Write(block)
	if err != nil {
		return p.fail(seq, err)
	}
	if n < len(block) {
		return p.fail(seq, ErrShortWrite)
	}

	p.seq++
	p.failures = 0
	if p.disconnected {
		p.disconnected = false
		DebugAsync("[PUB] host reconnected at seq " + utoa(seq))
	}
	atomic.AddUint32(&p.published, 1)
	RecordEvent(EvtPublished, seq, 0)
	return nil
}

// fail records a failed publish; the caller holds p.mu
func (p *Publisher) fail(seq uint32, err error) error {
	p.failures++
	atomic.AddUint32(&p.failed, 1)
	RecordEvent(EvtPublishFailed, seq, p.failures)

	if p.failures >= DisconnectThreshold && !p.disconnected {
		p.disconnected = true
		RecordEvent(EvtHostDisconnected, seq, 0)
		DebugAsync("[PUB] host disconnected at seq " + utoa(seq))
	}
	return &PublishError{Seq: seq, Err: err}
}

// Connected reports whether the host is considered attached
func (p *Publisher) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.disconnected
}

// Stats returns a snapshot of the publisher counters
func (p *Publisher) Stats() PublisherStats {
	p.mu.Lock()
	seq := p.seq
	p.mu.Unlock()

	return PublisherStats{
		Published: atomic.LoadUint32(&p.published),
		Failed:    atomic.LoadUint32(&p.failed),
		Seq:       seq,
	}
}
