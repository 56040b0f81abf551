package core

import "sync"

// Status summarises the health of the DMX input
type Status uint8

const (
	StatusIdle    Status = iota // No frame within the idle timeout
	StatusFlowing               // Frames arriving
	StatusError                 // Last chunk was dropped with a line error
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusFlowing:
		return "flowing"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// StatusTracker derives a Status from receive results and reports changes
// to a sink. Idle detection runs from a scheduler timer on core 0.
type StatusTracker struct {
	mu        sync.Mutex
	status    Status
	lastFrame uint32 // System time of the last accepted frame
	idle      uint32 // Idle timeout in ticks
	sink      func(Status)

	timer Timer
}

// statusPollUS is how often idle detection runs
const statusPollUS = 100000

// NewStatusTracker creates a tracker that reports idle after idleUS
// microseconds without a frame. sink may be nil.
func NewStatusTracker(idleUS uint32, sink func(Status)) *StatusTracker {
	s := &StatusTracker{
		status: StatusIdle,
		idle:   TimerFromUS(idleUS),
		sink:   sink,
	}
	s.timer.Handler = s.poll
	return s
}

// Start schedules idle detection and reports the initial status
func (s *StatusTracker) Start() {
	s.timer.WakeTime = GetTime() + TimerFromUS(statusPollUS)
	ScheduleTimer(&s.timer)
	if s.sink != nil {
		s.sink(s.Status())
	}
}

// Stop cancels idle detection
func (s *StatusTracker) Stop() {
	CancelTimer(&s.timer)
}

// FrameReceived marks the input as flowing
func (s *StatusTracker) FrameReceived() {
	s.mu.Lock()
	s.lastFrame = GetTime()
	s.mu.Unlock()
	s.set(StatusFlowing)
}

// ReceiveFailed marks the input as errored
func (s *StatusTracker) ReceiveFailed() {
	s.set(StatusError)
}

// Status returns the current status
func (s *StatusTracker) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *StatusTracker) set(status Status) {
	s.mu.Lock()
	changed := s.status != status
	s.status = status
	s.mu.Unlock()

	if changed && s.sink != nil {
		s.sink(status)
	}
}

func (s *StatusTracker) poll(t *Timer) uint8 {
	s.mu.Lock()
	expired := s.status != StatusIdle && currentTime-s.lastFrame >= s.idle
	s.mu.Unlock()

	if expired {
		s.set(StatusIdle)
	}
	t.WakeTime += TimerFromUS(statusPollUS)
	return TimerReschedule
}
