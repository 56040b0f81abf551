package core

import "sync"

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// BridgeEvent captures one step of the frame pipeline for post-mortem analysis
type BridgeEvent struct {
	EventType uint8  // Event type code
	Clock     uint32 // System time at event
	Value1    uint32 // Context-dependent value
	Value2    uint32 // Context-dependent value
}

// Event type codes
const (
	EvtFrameReceived    = 1 // Frame accepted, v1=payload bytes
	EvtReceiveError     = 2 // Chunk dropped, v1=chunk index
	EvtMailboxOverwrite = 3 // Undelivered frame replaced, v1=overwrites
	EvtPublished        = 4 // Block written to host, v1=seq
	EvtPublishFailed    = 5 // Publish skipped, v1=seq v2=consecutive failures
	EvtHostDisconnected = 6 // Failure threshold reached, v1=seq
	EvtRendered         = 7 // Strip written, v1=frames rendered
	EvtRenderFailed     = 8 // Encoder error, v1=frames rendered
)

const (
	EventRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	// Event ring buffer, written from both cores
	eventMutex    sync.Mutex
	eventRing     [EventRingSize]BridgeEvent
	eventRingHead uint8
	eventsEnabled bool = true

	// Async debug output channel
	debugChan chan string
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// InitAsyncDebug starts the async debug output goroutine
// Call this from main() after SetDebugWriter
func InitAsyncDebug() {
	debugChan = make(chan string, 16) // Buffer 16 messages
	go debugOutputWorker()
}

// debugOutputWorker runs in background, drains debug channel
func debugOutputWorker() {
	for msg := range debugChan {
		if debugPrintln != nil {
			debugPrintln(msg)
		}
	}
}

// DebugPrintln writes a debug message using the platform-specific writer
// Blocks if debug is enabled (use DebugAsync for non-blocking)
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// DebugAsync queues a debug message for async output (non-blocking)
// Returns immediately even if channel is full (drops message)
func DebugAsync(msg string) {
	if debugChan != nil {
		select {
		case debugChan <- msg:
		default:
			// Channel full, drop message (non-blocking)
		}
	}
}

// RecordEvent captures a pipeline event in the ring buffer
func RecordEvent(eventType uint8, value1, value2 uint32) {
	if !eventsEnabled {
		return
	}
	clock := GetTime()

	eventMutex.Lock()
	idx := eventRingHead
	eventRing[idx] = BridgeEvent{
		EventType: eventType,
		Clock:     clock,
		Value1:    value1,
		Value2:    value2,
	}
	eventRingHead = (idx + 1) % EventRingSize
	eventMutex.Unlock()
}

// Events returns the recorded events, oldest first
func Events() []BridgeEvent {
	eventMutex.Lock()
	defer eventMutex.Unlock()

	events := make([]BridgeEvent, 0, EventRingSize)
	start := eventRingHead
	for i := uint8(0); i < EventRingSize; i++ {
		evt := eventRing[(start+i)%EventRingSize]
		if evt.EventType == 0 {
			continue // Empty slot
		}
		events = append(events, evt)
	}
	return events
}

func eventName(eventType uint8) string {
	switch eventType {
	case EvtFrameReceived:
		return "FRAME_RX"
	case EvtReceiveError:
		return "RX_ERROR!"
	case EvtMailboxOverwrite:
		return "OVERWRITE"
	case EvtPublished:
		return "PUBLISHED"
	case EvtPublishFailed:
		return "PUB_FAIL"
	case EvtHostDisconnected:
		return "HOST_DISC!"
	case EvtRendered:
		return "RENDERED"
	case EvtRenderFailed:
		return "RENDER_FAIL!"
	default:
		return "UNKNOWN"
	}
}

// DumpEventRing outputs the event ring buffer (call on shutdown/error)
// Output is unconditional, debugEnabled does not gate it
func DumpEventRing() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[EVENT] === Event Ring Dump ===")
	for _, evt := range Events() {
		debugPrintln("[EVENT] " + eventName(evt.EventType) +
			" clock=" + utoa(evt.Clock) +
			" v1=" + utoa(evt.Value1) +
			" v2=" + utoa(evt.Value2))
	}
	debugPrintln("[EVENT] === End Dump ===")
}

// Fatal reports an unrecoverable hardware fault and halts.
// The event ring is dumped before the panic so the last frames can be traced.
func Fatal(msg string, err error) {
	if err != nil {
		msg += ": " + err.Error()
	}
	if debugPrintln != nil {
		debugPrintln("[FATAL] " + msg)
	}
	DumpEventRing()
	panic(msg)
}
