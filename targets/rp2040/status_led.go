//go:build rp2040

package main

import (
	"dmxbridge/core"
	"image/color"
	"machine"
	"runtime/interrupt"

	"tinygo.org/x/drivers/ws2812"
)

// Onboard RGB LED of RP2040-Zero style boards
const statusLEDPin = machine.GPIO16

// Dim colours, the onboard LED is bright
var statusColors = map[core.Status]color.RGBA{
	core.StatusIdle:    {B: 0x10, A: 0xFF},
	core.StatusFlowing: {G: 0x10, A: 0xFF},
	core.StatusError:   {R: 0x20, A: 0xFF},
}

// statusLED shows the input status on a single bit-banged WS2812
type statusLED struct {
	dev    ws2812.Device
	colors [1]color.RGBA
}

func newStatusLED(pin machine.Pin) *statusLED {
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return &statusLED{dev: ws2812.New(pin)}
}

// Show writes the colour for status. Bit-banging needs interrupts off.
func (s *statusLED) Show(status core.Status) {
	s.colors[0] = statusColors[status]
	state := interrupt.Disable()
	s.dev.WriteColors(s.colors[:])
	interrupt.Restore(state)
}
