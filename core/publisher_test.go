package core

import (
	"dmxbridge/dmx"
	"dmxbridge/protocol"
	"errors"
	"testing"
)

// mockHostLink records what the publisher writes
type mockHostLink struct {
	ready  bool
	err    error
	short  bool
	blocks [][]byte
}

func (m *mockHostLink) Ready() bool {
	return m.ready
}

func (m *mockHostLink) Write(p []byte) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	if m.short {
		return len(p) / 2, nil
	}
	m.blocks = append(m.blocks, append([]byte(nil), p...))
	return len(p), nil
}

func decodeBlock(t *testing.T, block []byte) protocol.Message {
	t.Helper()
	msg, n, err := protocol.ParseBlock(block)
	if err != nil {
		t.Fatalf("ParseBlock failed: %v", err)
	}
	if n != len(block) {
		t.Fatalf("Block has %d trailing bytes", len(block)-n)
	}
	return msg
}

func TestPublisherSequence(t *testing.T) {
	link := &mockHostLink{ready: true}
	pub := NewPublisher(link)

	frame := frameWith(0x10, 0x20, 0x30)
	for i := 0; i < 3; i++ {
		if err := pub.Publish(&frame); err != nil {
			t.Fatalf("Publish %d failed: %v", i, err)
		}
	}

	if len(link.blocks) != 3 {
		t.Fatalf("Expected 3 blocks, got %d", len(link.blocks))
	}
	for i, block := range link.blocks {
		msg := decodeBlock(t, block)
		if msg.Seq != uint32(i) {
			t.Errorf("block %d: expected seq %d, got %d", i, i, msg.Seq)
		}
		if msg.Key != protocol.TopicDMX.Key {
			t.Errorf("block %d: wrong topic key 0x%04X", i, msg.Key)
		}
		if len(msg.Payload) != dmx.ChannelCount {
			t.Errorf("block %d: expected %d byte payload, got %d", i, dmx.ChannelCount, len(msg.Payload))
		}
		if msg.Payload[0] != 0x10 || msg.Payload[2] != 0x30 || msg.Payload[3] != 0 {
			t.Errorf("block %d: unexpected payload %v", i, msg.Payload[:4])
		}
	}
}

func TestPublisherFailureKeepsSequence(t *testing.T) {
	link := &mockHostLink{ready: true}
	pub := NewPublisher(link)
	frame := frameWith(1)

	if err := pub.Publish(&frame); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	writeErr := errors.New("endpoint stalled")
	testCases := []struct {
		name   string
		setup  func()
		target error
	}{
		{"not ready", func() { link.ready = false }, ErrHostNotReady},
		{"write error", func() { link.ready = true; link.err = writeErr }, writeErr},
		{"short write", func() { link.err = nil; link.short = true }, ErrShortWrite},
	}

	for _, tc := range testCases {
		tc.setup()
		err := pub.Publish(&frame)
		var pubErr *PublishError
		if !errors.As(err, &pubErr) {
			t.Errorf("%s: expected *PublishError, got %v", tc.name, err)
			continue
		}
		if !errors.Is(err, tc.target) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.target, err)
		}
		if pubErr.Seq != 1 {
			t.Errorf("%s: expected failed seq 1, got %d", tc.name, pubErr.Seq)
		}
	}

	link.short = false
	if err := pub.Publish(&frame); err != nil {
		t.Fatalf("Publish failed after recovery: %v", err)
	}
	last := decodeBlock(t, link.blocks[len(link.blocks)-1])
	if last.Seq != 1 {
		t.Errorf("Expected seq 1 after failures, got %d", last.Seq)
	}

	stats := pub.Stats()
	if stats.Published != 2 || stats.Failed != 3 || stats.Seq != 2 {
		t.Errorf("Unexpected stats %+v", stats)
	}
}

func TestPublisherSequenceWraps(t *testing.T) {
	link := &mockHostLink{ready: true}
	pub := NewPublisher(link)
	pub.seq = 0xFFFFFFFF
	frame := frameWith(1)

	for i := 0; i < 2; i++ {
		if err := pub.Publish(&frame); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
	}

	if seq := decodeBlock(t, link.blocks[0]).Seq; seq != 0xFFFFFFFF {
		t.Errorf("Expected seq 0xFFFFFFFF, got %d", seq)
	}
	if seq := decodeBlock(t, link.blocks[1]).Seq; seq != 0 {
		t.Errorf("Expected seq to wrap to 0, got %d", seq)
	}
}

func TestPublisherDisconnect(t *testing.T) {
	link := &mockHostLink{}
	pub := NewPublisher(link)
	frame := frameWith(1)

	for i := 0; i < DisconnectThreshold-1; i++ {
		pub.Publish(&frame)
	}
	if !pub.Connected() {
		t.Errorf("Host reported disconnected after %d failures", DisconnectThreshold-1)
	}

	pub.Publish(&frame)
	if pub.Connected() {
		t.Errorf("Host should be disconnected after %d failures", DisconnectThreshold)
	}

	link.ready = true
	if err := pub.Publish(&frame); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if !pub.Connected() {
		t.Error("Host should be connected after a successful publish")
	}
	if seq := decodeBlock(t, link.blocks[0]).Seq; seq != 0 {
		t.Errorf("Expected first delivered seq 0, got %d", seq)
	}
}
