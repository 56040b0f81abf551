package core

import "sync/atomic"

// TimerFreq is the rate of the system time base, one tick per microsecond
const TimerFreq = 1000000

// systemTicks is written by core 0 and read from both cores
var systemTicks uint32

// GetTime returns the current system time in timer ticks
func GetTime() uint32 {
	return atomic.LoadUint32(&systemTicks)
}

// SetTime sets the current system time (for testing/hardware integration)
func SetTime(ticks uint32) {
	atomic.StoreUint32(&systemTicks, ticks)
}

// TimerFromUS converts microseconds to timer ticks
func TimerFromUS(us uint32) uint32 {
	return uint32(uint64(us) * TimerFreq / 1000000)
}

// timeBefore reports whether a is earlier than b, allowing for wraparound
func timeBefore(a, b uint32) bool {
	return int32(a-b) < 0
}

// ProcessTimers runs every scheduled timer that is due
func ProcessTimers() {
	currentTime = GetTime()
	TimerDispatch()
}
