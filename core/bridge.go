package core

import (
	"dmxbridge/dmx"
	"dmxbridge/ws2812"
	"errors"
)

// Bridge wires the receive side and the render side of the firmware.
// RunReceiver and RunRender are meant for separate cores and share only the
// mailbox and the publisher.
type Bridge struct {
	Config    *Config
	Receiver  *dmx.Receiver
	Mailbox   *Mailbox
	Publisher *Publisher
	Render    *RenderLoop
	Status    *StatusTracker // Nil when no status sink is attached
}

// NewBridge builds the pipeline from port to strip. status may be nil.
func NewBridge(config *Config, port dmx.Port, strip *ws2812.Strip, link HostLink, status func(Status)) *Bridge {
	b := &Bridge{
		Config:    config,
		Mailbox:   NewMailbox(),
		Publisher: NewPublisher(link),
	}
	b.Receiver = dmx.NewReceiver(port, dmx.Config{
		StartCode: config.StartCode,
		Logger:    DebugAsync,
	})

	var renderPublisher *Publisher
	if config.PublishFrom == PublishFromRender {
		renderPublisher = b.Publisher
	}
	b.Render = NewRenderLoop(b.Mailbox, strip, renderPublisher)

	if status != nil {
		b.Status = NewStatusTracker(config.IdleTimeoutMS*1000, status)
	}
	return b
}

// RunReceiver receives frames until the port closes. Each frame is deposited
// in the mailbox and, depending on the configuration, published to the host.
func (b *Bridge) RunReceiver() error {
	err := b.Receiver.Run(b.frameReceived, b.receiveFailed)
	if b.Status != nil {
		b.Status.Stop()
	}
	return err
}

func (b *Bridge) frameReceived(frame *dmx.Frame, n int) {
	RecordEvent(EvtFrameReceived, uint32(n), 0)
	b.Mailbox.Deposit(*frame)
	if b.Status != nil {
		b.Status.FrameReceived()
	}

	if b.Config.PublishFrom == PublishFromReceiver {
		if err := b.Publisher.Publish(frame); err != nil {
			DebugAsync("[DMX] " + err.Error())
		}
	}
}

func (b *Bridge) receiveFailed(err error) {
	var chunk uint32
	var recvErr *dmx.ReceiveError
	if errors.As(err, &recvErr) {
		chunk = recvErr.Chunk
	}
	RecordEvent(EvtReceiveError, chunk, 0)
	DebugAsync("[DMX] " + err.Error())
	if b.Status != nil {
		b.Status.ReceiveFailed()
	}
}

// RunRender renders frames forever
func (b *Bridge) RunRender() {
	b.Render.Run()
}

// Summary returns a one-line report of the pipeline counters
func (b *Bridge) Summary() string {
	rx := b.Receiver.Stats()
	mb := b.Mailbox.Stats()
	pub := b.Publisher.Stats()
	return "frames=" + utoa(rx.Frames) +
		" rx_err=" + utoa(rx.Errors) +
		" discarded=" + utoa(rx.Discarded) +
		" alt_sc=" + utoa(rx.AltStartCodes) +
		" overwrites=" + utoa(mb.Overwrites) +
		" rendered=" + utoa(b.Render.Rendered()) +
		" published=" + utoa(pub.Published) +
		" pub_fail=" + utoa(pub.Failed) +
		" seq=" + utoa(pub.Seq) +
		" host=" + hostState(b.Publisher.Connected())
}

func hostState(connected bool) string {
	if connected {
		return "up"
	}
	return "down"
}
