//go:build rp2040

package main

import (
	"device/rp"
	"dmxbridge/dmx"
	"machine"
	"runtime"
)

// PL011 receive data register error flags
const (
	uartDRBreak   = rp.UART0_UARTDR_BE
	uartDRFraming = rp.UART0_UARTDR_FE
	uartDRParity  = rp.UART0_UARTDR_PE
	uartDROverrun = rp.UART0_UARTDR_OE
)

// uartDMXPort reads break-delimited chunks straight from the PL011 FIFO.
// A break arrives as a zero character with BE set in UARTDR.
type uartDMXPort struct {
	uart   *machine.UART
	resync bool // Discarding input up to the next break after an error
}

// newUARTDMXPort configures uart for DMX512 (250 kbaud, 8N2)
func newUARTDMXPort(uart *machine.UART, tx, rx machine.Pin) (*uartDMXPort, error) {
	err := uart.Configure(machine.UARTConfig{
		BaudRate: dmx.BaudRate,
		TX:       tx,
		RX:       rx,
	})
	if err != nil {
		return nil, err
	}
	if err := uart.SetFormat(dmx.DataBits, dmx.StopBits, machine.ParityNone); err != nil {
		return nil, err
	}

	// The machine package drains the FIFO from its RX interrupt and drops
	// the error flags; mask it so the port sees every character
	uart.Bus.UARTIMSC.ClearBits(rp.UART0_UARTIMSC_RXIM | rp.UART0_UARTIMSC_RTIM)

	// Line state is unknown at boot, start at the first break
	return &uartDMXPort{uart: uart, resync: true}, nil
}

// ReadToBreak implements dmx.Port
func (p *uartDMXPort) ReadToBreak(buf []byte) (int, error) {
	bus := p.uart.Bus
	n := 0
	for {
		if bus.UARTFR.HasBits(rp.UART0_UARTFR_RXFE) {
			// 32-entry FIFO at 44 us per character, plenty of slack to yield
			runtime.Gosched()
			continue
		}

		dr := bus.UARTDR.Get()
		if dr&uartDRBreak != 0 {
			if p.resync {
				p.resync = false
				n = 0
				continue
			}
			if n == 0 {
				return 0, dmx.ErrBreakNoData
			}
			return n, nil
		}
		if p.resync {
			continue
		}

		switch {
		case dr&uartDROverrun != 0:
			return p.lineError(dmx.ErrOverrun)
		case dr&uartDRFraming != 0:
			return p.lineError(dmx.ErrFraming)
		case dr&uartDRParity != 0:
			return p.lineError(dmx.ErrParity)
		}

		buf[n] = byte(dr)
		n++
		if n == len(buf) {
			return n, nil
		}
	}
}

// lineError clears the receive status and skips to the next break
func (p *uartDMXPort) lineError(err error) (int, error) {
	p.uart.Bus.UARTRSR.Set(0)
	p.resync = true
	return 0, err
}
