//go:build rp2040

package main

import (
	"device/rp"
	"errors"
	"runtime"
	"runtime/volatile"
	"unsafe"
)

var (
	errDMATimeout = errors.New("dma: transfer timeout")
	errDMABus     = errors.New("dma: bus error")
)

// dmaTimeoutRetries bounds the busy wait of a single transfer
const dmaTimeoutRetries = 0xFFFF * 8

// Single DMA channel. See rp.DMA_Type.
type dmaChannelHW struct {
	READ_ADDR   volatile.Register32
	WRITE_ADDR  volatile.Register32
	TRANS_COUNT volatile.Register32
	CTRL_TRIG   volatile.Register32
	_           [12]volatile.Register32 // aliases
}

// DMA channels usable on the RP2040
var dmaChannels = (*[12]dmaChannelHW)(unsafe.Pointer(rp.DMA))

// Static channel assignment, nothing else in the firmware uses DMA
const ws2812DMAChannel = 0

// DATA_SIZE value for 32-bit transfers
const dmaSizeWord = 2

// DREQ numbers of the PIO TX FIFOs
const (
	dreqPIO0TX0 = 0x0
	dreqPIO1TX0 = 0x8
)

type dmaChannel struct {
	hw      *dmaChannelHW
	channel uint8
}

func getDMAChannel(channel uint8) *dmaChannel {
	return &dmaChannel{hw: &dmaChannels[channel], channel: channel}
}

// push32 streams src into the register at dst, one word per DREQ pulse,
// yielding until the channel is idle
func (ch *dmaChannel) push32(dst *volatile.Register32, src []uint32, dreq uint32) error {
	if len(src) == 0 {
		return nil
	}
	hw := ch.hw
	hw.READ_ADDR.Set(uint32(uintptr(unsafe.Pointer(&src[0]))))
	hw.WRITE_ADDR.Set(uint32(uintptr(unsafe.Pointer(dst))))
	hw.TRANS_COUNT.Set(uint32(len(src)))

	ctrl := uint32(dmaSizeWord) << rp.DMA_CH0_CTRL_TRIG_DATA_SIZE_Pos
	ctrl |= dreq << rp.DMA_CH0_CTRL_TRIG_TREQ_SEL_Pos
	ctrl |= uint32(ch.channel) << rp.DMA_CH0_CTRL_TRIG_CHAIN_TO_Pos // Chain to self disables chaining
	ctrl |= 1 << rp.DMA_CH0_CTRL_TRIG_INCR_READ_Pos
	ctrl |= 1 << rp.DMA_CH0_CTRL_TRIG_EN_Pos
	hw.CTRL_TRIG.Set(ctrl)

	retries := dmaTimeoutRetries
	for ch.busy() && retries > 0 {
		runtime.Gosched()
		retries--
	}
	if retries == 0 {
		ch.abort()
		return errDMATimeout
	}
	if hw.CTRL_TRIG.Get()&(1<<rp.DMA_CH0_CTRL_TRIG_AHB_ERROR_Pos) != 0 {
		return errDMABus
	}
	return nil
}

func (ch *dmaChannel) busy() bool {
	return ch.hw.CTRL_TRIG.Get()&rp.DMA_CH0_CTRL_TRIG_BUSY != 0
}

// abort stops the channel and waits until in-flight transfers have drained
func (ch *dmaChannel) abort() {
	mask := uint32(1) << ch.channel
	rp.DMA.CHAN_ABORT.Set(mask)
	for retries := dmaTimeoutRetries; rp.DMA.CHAN_ABORT.Get()&mask != 0 && retries > 0; retries-- {
		runtime.Gosched()
	}
}
