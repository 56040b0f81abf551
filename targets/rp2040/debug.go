//go:build rp2040

package main

import (
	"machine"
)

var (
	debugUART    *machine.UART
	debugEnabled bool
)

// InitDebugUART initializes UART1 on GPIO4 (TX) and GPIO5 (RX) for debugging
// Baud rate: 115200. UART0 belongs to the DMX input.
func InitDebugUART() {
	debugUART = machine.UART1

	err := debugUART.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GPIO4, // UART1 TX
		RX:       machine.GPIO5, // UART1 RX
	})

	if err != nil {
		debugEnabled = false
		return
	}

	debugEnabled = true

	DebugPrintln("=== dmxbridge debug UART ===")
	DebugPrintln("Baud: 115200, TX=GPIO4, RX=GPIO5")
}

// DebugPrintln writes a string to the debug UART with newline
func DebugPrintln(s string) {
	if !debugEnabled || debugUART == nil {
		return
	}
	debugUART.Write([]byte(s))
	debugUART.Write([]byte("\r\n"))
}
