// Package monitor follows the frame stream published by a dmxbridge board
package monitor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"dmxbridge/dmx"
	"dmxbridge/host/serial"
	"dmxbridge/protocol"
)

// ErrPayloadLength is returned for blocks that do not carry a full universe
var ErrPayloadLength = errors.New("payload is not a full DMX universe")

// Report describes one observed frame
type Report struct {
	Seq       uint32
	Gap       uint32 // Frames missing between the previous frame and this one
	Reordered bool   // Sequence did not advance; Gap is zero
	Frame     dmx.Frame
}

// Stats counts what the monitor has observed
type Stats struct {
	Frames    uint64
	Missed    uint64
	Reordered uint64
	Invalid   uint64
	LastSeq   uint32
}

// Monitor tracks the frame sequence of one bridge
type Monitor struct {
	mu      sync.Mutex
	metrics *Metrics
	watch   int

	started bool
	lastSeq uint32
	stats   Stats

	// Transport counters already exported
	exported protocol.HostStats
}

// New creates a monitor. metrics may be nil. watch is the number of leading
// channels exported as gauges.
func New(metrics *Metrics, watch int) *Monitor {
	if watch < 0 {
		watch = 0
	}
	if watch > dmx.ChannelCount {
		watch = dmx.ChannelCount
	}
	return &Monitor{
		metrics: metrics,
		watch:   watch,
	}
}

// Observe checks the sequence of msg and decodes its frame.
// Sequence numbers wrap, so a jump is a gap when it is less than half the
// counter range ahead of the previous frame and a reorder otherwise.
func (m *Monitor) Observe(msg *protocol.Message) (Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(msg.Payload) != dmx.ChannelCount {
		m.stats.Invalid++
		if m.metrics != nil {
			m.metrics.BadPayloads.Inc()
		}
		return Report{Seq: msg.Seq}, fmt.Errorf("seq %d: %w (%d bytes)", msg.Seq, ErrPayloadLength, len(msg.Payload))
	}

	report := Report{Seq: msg.Seq}
	report.Frame.Fill(msg.Payload)

	if m.started {
		delta := msg.Seq - m.lastSeq
		if delta == 0 || int32(delta) < 0 {
			report.Reordered = true
		} else {
			report.Gap = delta - 1
		}
	}

	m.stats.Frames++
	if report.Reordered {
		m.stats.Reordered++
	} else {
		m.started = true
		m.lastSeq = msg.Seq
		m.stats.LastSeq = msg.Seq
		m.stats.Missed += uint64(report.Gap)
	}

	if m.metrics != nil {
		m.metrics.FramesReceived.Inc()
		if report.Reordered {
			m.metrics.FramesReorder.Inc()
		} else {
			m.metrics.FramesMissed.Add(float64(report.Gap))
			m.metrics.LastSeq.Set(float64(msg.Seq))
		}
		for ch := 1; ch <= m.watch; ch++ {
			m.metrics.Channels.WithLabelValues(strconv.Itoa(ch)).Set(float64(report.Frame.Channel(ch)))
		}
	}

	return report, nil
}

// Stats returns a snapshot of the monitor counters
func (m *Monitor) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// UpdateTransport exports the growth of the transport counters since the
// previous call
func (m *Monitor) UpdateTransport(stats protocol.HostStats) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.BlocksDecoded.Add(float64(stats.Blocks - m.exported.Blocks))
		m.metrics.Desyncs.Add(float64(stats.Desyncs - m.exported.Desyncs))
		m.metrics.BytesSkipped.Add(float64(stats.Discarded - m.exported.Discarded))
	}
	m.exported = stats
}

// Run observes messages until the channel is closed, calling report for each
// decoded frame and onError for each rejected block
func (m *Monitor) Run(messages <-chan *protocol.Message, report func(Report), onError func(error)) {
	for msg := range messages {
		r, err := m.Observe(msg)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			continue
		}
		if report != nil {
			report(r)
		}
	}
}

// FormatChannels renders the first n channels of frame as space separated
// decimal levels
func FormatChannels(frame *dmx.Frame, n int) string {
	if n > dmx.ChannelCount {
		n = dmx.ChannelCount
	}
	var sb strings.Builder
	for ch := 1; ch <= n; ch++ {
		if ch > 1 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.Itoa(int(frame.Channel(ch))))
	}
	return sb.String()
}

// Conn is an open connection to a bridge's CDC port
type Conn struct {
	port      serial.Port
	transport *protocol.HostTransport
}

// Connect opens device with the default serial configuration
func Connect(device string) (*Conn, error) {
	return ConnectWithConfig(serial.DefaultConfig(device))
}

// ConnectWithConfig opens the bridge with a custom serial config
func ConnectWithConfig(cfg *serial.Config) (*Conn, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open bridge: %w", err)
	}

	// Drop whatever the board queued before we attached
	if err := port.Flush(); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to flush %s: %w", cfg.Device, err)
	}

	return &Conn{
		port:      port,
		transport: protocol.NewHostTransport(port),
	}, nil
}

// Transport returns the block transport reading the port
func (c *Conn) Transport() *protocol.HostTransport {
	return c.transport
}

// Frames subscribes to the DMX topic
func (c *Conn) Frames(depth int) <-chan *protocol.Message {
	return c.transport.Subscribe(protocol.TopicDMX, depth)
}

// Close stops the transport and closes the port
func (c *Conn) Close() error {
	return c.transport.Close()
}
