//go:build rp2040

package main

import (
	"machine"
)

// InitUSB initializes USB serial communication
// TinyGo automatically sets up USB CDC-ACM on RP2040
func InitUSB() {
	// Configure machine.Serial (which is USB CDC on RP2040)
	err := machine.Serial.Configure(machine.UARTConfig{})
	if err != nil {
		return
	}
}

// usbLink is the host link over USB CDC
type usbLink struct{}

// Ready reports whether a host has opened the port (DTR asserted)
func (usbLink) Ready() bool {
	return machine.Serial.DTR()
}

// Write writes a block to USB
func (usbLink) Write(data []byte) (int, error) {
	return machine.Serial.Write(data)
}
