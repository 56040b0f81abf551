//go:build rp2040

package main

import (
	"dmxbridge/ws2812"
	"machine"
	"runtime"
	"time"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

// buildWS2812Program assembles the bit program for timing.
// The side-set pin carries the waveform; X holds the bit being sent.
//
//	bitloop: out x, 1        side 0 [T3-1]
//	         jmp !x, do_zero side 1 [T1-1]
//	do_one:  jmp bitloop     side 1 [T2-1]
//	do_zero: nop             side 0 [T2-1]
func buildWS2812Program(t ws2812.Timing) []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 1}
	const (
		bitloop = 0
		doZero  = 3
	)
	return []uint16{
		// .wrap_target
		asm.Out(rp2pio.OutDestX, 1).Side(0).Delay(t.T3 - 1).Encode(),        // 0: out x, 1
		asm.Jmp(doZero, rp2pio.JmpXZero).Side(1).Delay(t.T1 - 1).Encode(),   // 1: jmp !x, 3
		asm.Jmp(bitloop, rp2pio.JmpAlways).Side(1).Delay(t.T2 - 1).Encode(), // 2: jmp 0
		asm.Nop().Side(0).Delay(t.T2 - 1).Encode(),                          // 3: nop
		// .wrap
	}
}

// pioTransfer streams packed pixels into a PIO state machine through DMA
type pioTransfer struct {
	sm     rp2pio.StateMachine
	dma    *dmaChannel
	dreq   uint32
	timing ws2812.Timing
	offset uint8
}

// newPIOTransfer loads the WS2812 program into pio and drives pin with it
func newPIOTransfer(pio *rp2pio.PIO, pin machine.Pin, timing ws2812.Timing) (*pioTransfer, error) {
	whole, frac, err := timing.ClockDivider(machine.CPUFrequency())
	if err != nil {
		return nil, err
	}

	sm, err := pio.ClaimStateMachine()
	if err != nil {
		return nil, err
	}

	program := buildWS2812Program(timing)
	offset, err := pio.AddProgram(program, -1)
	if err != nil {
		return nil, err
	}

	pin.Configure(machine.PinConfig{Mode: pio.PinMode()})

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetSidesetParams(1, false, false)
	cfg.SetSidesetPins(pin)

	// Shift left, autopull after the 24 colour bits of each word
	cfg.SetOutShift(false, true, ws2812.BitsPerPixel)

	// TX only, join the FIFOs for 8 words of buffering
	cfg.SetFIFOJoin(rp2pio.FifoJoinTx)
	cfg.SetClkDivIntFrac(whole, frac)
	cfg.SetWrap(offset+uint8(len(program))-1, offset)

	sm.Init(offset, cfg)
	sm.SetPindirsConsecutive(pin, 1, true)
	sm.SetEnabled(true)

	dreq := uint32(dreqPIO0TX0)
	if pio.BlockIndex() == 1 {
		dreq = dreqPIO1TX0
	}
	dreq += uint32(sm.StateMachineIndex())

	return &pioTransfer{
		sm:     sm,
		dma:    getDMAChannel(ws2812DMAChannel),
		dreq:   dreq,
		timing: timing,
		offset: offset,
	}, nil
}

// Transfer implements ws2812.Transfer
func (p *pioTransfer) Transfer(words []uint32) error {
	if err := p.dma.push32(p.sm.TxReg(), words, p.dreq); err != nil {
		return err
	}

	// The DMA is done once the last word is in the FIFO; wait for the state
	// machine to drain it before the latch period starts
	for !p.sm.IsTxFIFOEmpty() {
		runtime.Gosched()
	}
	// Last word still shifting out of the OSR, then the latch
	time.Sleep(p.timing.FrameTime(1))
	return nil
}
