//go:build rp2040

// Mailbox handoff test for the RP2040
//
// Core 0 deposits stamped frames into a core.Mailbox while Core 1 takes them,
// the same split the bridge uses between receive and render. It reports the
// deposit-to-take latency and how many frames were overwritten.

package main

import (
	"machine"
	"sync/atomic"
	"time"

	"dmxbridge/core"
	"dmxbridge/dmx"
)

const (
	iterations  = 500
	burstLength = 4 // Deposits per burst in the overwrite test
)

var (
	mailbox = core.NewMailbox()

	// Latency samples in microseconds, written by Core 1
	samples     [iterations]uint32
	sampleCount atomic.Uint32

	lastTaken  atomic.Uint32
	core1Ready atomic.Bool
)

// Get current time in microseconds
func micros() uint32 {
	return uint32(time.Now().UnixMicro())
}

// stamp writes the iteration and send time into the first channels
func stamp(frame *dmx.Frame, n, t uint32) {
	frame[0], frame[1], frame[2], frame[3] = byte(n>>24), byte(n>>16), byte(n>>8), byte(n)
	frame[4], frame[5], frame[6], frame[7] = byte(t>>24), byte(t>>16), byte(t>>8), byte(t)
}

func unstamp(frame *dmx.Frame) (n, t uint32) {
	n = uint32(frame[0])<<24 | uint32(frame[1])<<16 | uint32(frame[2])<<8 | uint32(frame[3])
	t = uint32(frame[4])<<24 | uint32(frame[5])<<16 | uint32(frame[6])<<8 | uint32(frame[7])
	return n, t
}

// core1Main takes frames the way the render loop does
func core1Main() {
	println("Core 1: Started!")
	core1Ready.Store(true)

	for {
		frame := mailbox.Take()
		n, sent := unstamp(&frame)
		latency := micros() - sent

		idx := sampleCount.Load()
		if idx < iterations {
			samples[idx] = latency
			sampleCount.Store(idx + 1)
		}
		lastTaken.Store(n)
	}
}

func main() {
	time.Sleep(2 * time.Second) // Time to attach a terminal

	println("Core 0: Launching Core 1...")
	machine.Core1.Start(core1Main)
	for !core1Ready.Load() {
		time.Sleep(10 * time.Millisecond)
	}

	println("\n=== Test 1: Handoff Latency ===")
	testHandoffLatency()

	println("\n=== Test 2: Latest Frame Wins ===")
	testOverwrite()

	stats := mailbox.Stats()
	println("\n=== Mailbox Complete ===")
	println("Deposits:", stats.Deposits)
	println("Takes:", stats.Takes)
	println("Overwrites:", stats.Overwrites)

	for {
		time.Sleep(time.Second)
	}
}

// testHandoffLatency deposits one frame at a time and waits for Core 1
func testHandoffLatency() {
	var frame dmx.Frame
	sampleCount.Store(0)

	for i := uint32(1); i <= iterations; i++ {
		stamp(&frame, i, micros())
		mailbox.Deposit(frame)

		timeout := time.Now().Add(10 * time.Millisecond)
		for lastTaken.Load() != i {
			if time.Now().After(timeout) {
				println("  WARNING: Timeout on iteration", i)
				break
			}
		}
		time.Sleep(100 * time.Microsecond)
	}

	count := int(sampleCount.Load())
	if count == 0 {
		println("  FAIL: no frames taken")
		return
	}

	sorted := make([]uint32, count)
	copy(sorted, samples[:count])
	bubbleSort(sorted)

	var total uint64
	for _, s := range sorted {
		total += uint64(s)
	}

	println("Samples:", count)
	println("  Min latency:", sorted[0], "us")
	println("  Max latency:", sorted[count-1], "us")
	println("  Avg latency:", uint32(total/uint64(count)), "us")
	println("  P50 (median):", sorted[count*50/100], "us")
	println("  P99:", sorted[count*99/100], "us")
}

// testOverwrite deposits bursts faster than Core 1 takes them. Only the last
// frame of each burst is guaranteed to be delivered.
func testOverwrite() {
	var frame dmx.Frame
	before := mailbox.Stats()

	base := uint32(iterations + 1)
	for burst := uint32(0); burst < 50; burst++ {
		last := base + burst*burstLength + burstLength - 1
		for n := last - burstLength + 1; n <= last; n++ {
			stamp(&frame, n, micros())
			mailbox.Deposit(frame)
		}

		timeout := time.Now().Add(10 * time.Millisecond)
		for lastTaken.Load() != last {
			if time.Now().After(timeout) {
				println("  FAIL: burst", burst, "last frame not delivered, got", lastTaken.Load())
				return
			}
		}
	}

	after := mailbox.Stats()
	println("Bursts: 50 of", burstLength)
	println("  Overwrites:", after.Overwrites-before.Overwrites)
	println("  Takes:", after.Takes-before.Takes)
	println("  PASS: last frame of every burst delivered")
}

func bubbleSort(arr []uint32) {
	n := len(arr)
	for i := 0; i < n-1; i++ {
		for j := 0; j < n-i-1; j++ {
			if arr[j] > arr[j+1] {
				arr[j], arr[j+1] = arr[j+1], arr[j]
			}
		}
	}
}
