package core

import (
	"dmxbridge/dmx"
	"dmxbridge/ws2812"
	"sync/atomic"
)

// MapPixels fills pixels from frame. Each LED takes three consecutive
// channels in G, R, B order. Channels past the frame read as zero.
func MapPixels(frame *dmx.Frame, pixels []ws2812.Pixel) {
	channel := func(i int) uint8 {
		if i < len(frame) {
			return frame[i]
		}
		return 0
	}
	for i := range pixels {
		base := 3 * i
		pixels[i] = ws2812.Pixel{
			G: channel(base),
			R: channel(base + 1),
			B: channel(base + 2),
		}
	}
}

// RenderLoop drives the LED strip from the frames in a mailbox
type RenderLoop struct {
	mailbox   *Mailbox
	strip     *ws2812.Strip
	publisher *Publisher // Nil unless frames are published after rendering
	pixels    []ws2812.Pixel

	rendered uint32
}

// NewRenderLoop creates a render loop for strip. publisher may be nil.
func NewRenderLoop(mailbox *Mailbox, strip *ws2812.Strip, publisher *Publisher) *RenderLoop {
	return &RenderLoop{
		mailbox:   mailbox,
		strip:     strip,
		publisher: publisher,
		pixels:    make([]ws2812.Pixel, strip.Len()),
	}
}

// Render maps frame onto the strip and writes it out
func (r *RenderLoop) Render(frame *dmx.Frame) error {
	MapPixels(frame, r.pixels)
	if err := r.strip.Write(r.pixels); err != nil {
		RecordEvent(EvtRenderFailed, atomic.LoadUint32(&r.rendered), 0)
		return err
	}
	n := atomic.AddUint32(&r.rendered, 1)
	RecordEvent(EvtRendered, n, 0)

	if r.publisher != nil {
		if err := r.publisher.Publish(frame); err != nil {
			DebugAsync("[RENDER] " + err.Error())
		}
	}
	return nil
}

// Step takes the next frame and renders it
func (r *RenderLoop) Step() error {
	frame := r.mailbox.Take()
	return r.Render(&frame)
}

// Run renders frames forever. An encoder error is a hardware fault.
func (r *RenderLoop) Run() {
	for {
		if err := r.Step(); err != nil {
			Fatal("render", err)
		}
	}
}

// Rendered returns the number of frames written to the strip
func (r *RenderLoop) Rendered() uint32 {
	return atomic.LoadUint32(&r.rendered)
}
