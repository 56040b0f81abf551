package protocol

// OutputBuffer is where blocks are encoded
type OutputBuffer interface {
	// Output appends data
	Output(data []byte)

	// CurPosition returns the current write position
	CurPosition() int

	// Update overwrites the byte at pos
	Update(pos int, val byte)

	// DataSince returns everything written from pos on
	DataSince(pos int) []byte

	// Overflowed reports whether a write was truncated
	Overflowed() bool
}

// ScratchOutput is a fixed-size OutputBuffer reused for every block.
// Writes past the end are truncated and flagged.
type ScratchOutput struct {
	buf      [MessageMax]byte
	pos      int
	overflow bool
}

// NewScratchOutput creates an empty ScratchOutput
func NewScratchOutput() *ScratchOutput {
	return &ScratchOutput{}
}

func (s *ScratchOutput) Output(data []byte) {
	n := copy(s.buf[s.pos:], data)
	s.pos += n
	if n < len(data) {
		s.overflow = true
	}
}

func (s *ScratchOutput) CurPosition() int {
	return s.pos
}

func (s *ScratchOutput) Update(pos int, val byte) {
	if pos < s.pos {
		s.buf[pos] = val
	}
}

func (s *ScratchOutput) DataSince(pos int) []byte {
	if pos > s.pos {
		return nil
	}
	return s.buf[pos:s.pos]
}

// Overflowed reports whether any write since the last Reset was truncated
func (s *ScratchOutput) Overflowed() bool {
	return s.overflow
}

// Result returns the bytes written since the last Reset
func (s *ScratchOutput) Result() []byte {
	return s.buf[:s.pos]
}

// Reset empties the buffer
func (s *ScratchOutput) Reset() {
	s.pos = 0
	s.overflow = false
}

// FifoBuffer holds received bytes until whole blocks can be parsed.
// Unread bytes are kept contiguous so a block never straddles a wrap point.
type FifoBuffer struct {
	buf   []byte
	start int
	end   int
}

// NewFifoBuffer creates a FifoBuffer holding up to capacity bytes
func NewFifoBuffer(capacity int) *FifoBuffer {
	return &FifoBuffer{buf: make([]byte, capacity)}
}

// Write appends as much of data as fits and returns the number of bytes kept
func (f *FifoBuffer) Write(data []byte) int {
	if f.start > 0 && len(f.buf)-f.end < len(data) {
		f.end = copy(f.buf, f.buf[f.start:f.end])
		f.start = 0
	}
	n := copy(f.buf[f.end:], data)
	f.end += n
	return n
}

// Available returns the number of unread bytes
func (f *FifoBuffer) Available() int {
	return f.end - f.start
}

// Data returns the unread bytes. The slice is valid until the next Write.
func (f *FifoBuffer) Data() []byte {
	return f.buf[f.start:f.end]
}

// Pop drops n bytes from the front
func (f *FifoBuffer) Pop(n int) {
	f.start += min(n, f.Available())
	if f.start == f.end {
		f.start, f.end = 0, 0
	}
}
