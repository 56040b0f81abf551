//go:build rp2040

package main

import (
	"dmxbridge/core"
	"dmxbridge/dmx"
	"dmxbridge/ws2812"
	_ "embed"
	"machine"
	"time"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

// Pin assignment
const (
	dmxTXPin = machine.GPIO0 // UART0 TX, unused by the receiver
	dmxRXPin = machine.GPIO1 // UART0 RX from the RS-485 transceiver
	stripPin = machine.GPIO2 // WS2812 data out
)

const (
	summaryUS  = 5000000 // Debug summary interval
	mainLoopUS = 1000
)

//go:embed config.json
var configJSON []byte

func main() {
	// Disable watchdog on boot to clear any previous state
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	// Initialize USB CDC immediately
	InitUSB()

	config, err := core.LoadConfig(configJSON)
	if err != nil {
		config = core.DefaultConfig()
	}

	// Debug output goes to UART1, USB carries only topic blocks
	if config.Debug {
		InitDebugUART()
		core.SetDebugWriter(DebugPrintln)
		core.SetDebugEnabled(true)
		core.InitAsyncDebug()
	}
	if err != nil {
		core.DebugPrintln("[CONFIG] " + err.Error() + ", using defaults")
	}

	UpdateSystemTime()

	port, err := newUARTDMXPort(machine.UART0, dmxTXPin, dmxRXPin)
	if err != nil {
		core.Fatal("dmx uart", err)
	}

	transfer, err := newPIOTransfer(rp2pio.PIO0, stripPin, ws2812.DefaultTiming)
	if err != nil {
		core.Fatal("ws2812 pio", err)
	}
	strip := ws2812.NewStrip(transfer, config.LEDCount)

	var status func(core.Status)
	if config.StatusLED {
		status = newStatusLED(statusLEDPin).Show
	}

	bridge := core.NewBridge(config, port, strip, usbLink{}, status)

	// Render side runs on core 1
	machine.Core1.Start(bridge.RunRender)

	if bridge.Status != nil {
		bridge.Status.Start()
	}

	go func() {
		// The UART never closes, returning at all is a fault
		err := bridge.RunReceiver()
		if err == nil {
			err = dmx.ErrPortClosed
		}
		core.Fatal("dmx receiver", err)
	}()

	nextSummary := core.GetTime() + summaryUS
	for {
		UpdateSystemTime()
		core.ProcessTimers()

		if core.IsDebugEnabled() && int32(core.GetTime()-nextSummary) >= 0 {
			core.DebugAsync("[STATS] " + bridge.Summary())
			nextSummary += summaryUS
		}

		// Yield to the receiver and USB goroutines
		time.Sleep(mainLoopUS * time.Microsecond)
	}
}
