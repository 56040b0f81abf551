package monitor

import (
	"errors"
	"testing"

	"dmxbridge/dmx"
	"dmxbridge/protocol"

	"github.com/prometheus/client_golang/prometheus"
)

func frameMessage(seq uint32, levels ...byte) *protocol.Message {
	payload := make([]byte, dmx.ChannelCount)
	copy(payload, levels)
	return &protocol.Message{Key: protocol.TopicDMX.Key, Seq: seq, Payload: payload}
}

func TestObserveSequence(t *testing.T) {
	m := New(nil, 0)

	testCases := []struct {
		seq       uint32
		gap       uint32
		reordered bool
	}{
		{10, 0, false}, // first frame never reports a gap
		{11, 0, false},
		{14, 2, false},
		{14, 0, true},
		{12, 0, true},
		{15, 0, false},
	}

	for _, tc := range testCases {
		r, err := m.Observe(frameMessage(tc.seq))
		if err != nil {
			t.Fatalf("seq %d: unexpected error %v", tc.seq, err)
		}
		if r.Gap != tc.gap || r.Reordered != tc.reordered {
			t.Errorf("seq %d: got gap=%d reordered=%v, expected gap=%d reordered=%v",
				tc.seq, r.Gap, r.Reordered, tc.gap, tc.reordered)
		}
	}

	stats := m.Stats()
	if stats.Frames != 6 || stats.Missed != 2 || stats.Reordered != 2 || stats.LastSeq != 15 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestObserveSequenceWrap(t *testing.T) {
	m := New(nil, 0)

	m.Observe(frameMessage(0xFFFFFFFE))
	r, _ := m.Observe(frameMessage(0xFFFFFFFF))
	if r.Gap != 0 || r.Reordered {
		t.Errorf("expected contiguous frame, got %+v", r)
	}
	r, _ = m.Observe(frameMessage(1))
	if r.Gap != 1 || r.Reordered {
		t.Errorf("expected one missed frame across the wrap, got gap=%d reordered=%v", r.Gap, r.Reordered)
	}
}

func TestObserveBadPayload(t *testing.T) {
	m := New(nil, 0)

	_, err := m.Observe(&protocol.Message{Seq: 3, Payload: []byte{1, 2, 3}})
	if !errors.Is(err, ErrPayloadLength) {
		t.Fatalf("expected ErrPayloadLength, got %v", err)
	}
	if stats := m.Stats(); stats.Invalid != 1 || stats.Frames != 0 {
		t.Errorf("unexpected stats %+v", stats)
	}

	// A rejected block does not start the sequence
	r, err := m.Observe(frameMessage(9, 0xFF))
	if err != nil || r.Gap != 0 || r.Frame.Channel(1) != 0xFF {
		t.Errorf("unexpected report %+v err=%v", r.Seq, err)
	}
}

func TestFormatChannels(t *testing.T) {
	var frame dmx.Frame
	frame.Fill([]byte{0, 128, 255, 7})

	if got := FormatChannels(&frame, 4); got != "0 128 255 7" {
		t.Errorf("got %q", got)
	}
	if got := FormatChannels(&frame, 0); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestRun(t *testing.T) {
	m := New(nil, 0)
	messages := make(chan *protocol.Message, 4)
	messages <- frameMessage(1, 10)
	messages <- &protocol.Message{Seq: 2}
	messages <- frameMessage(4, 40)
	close(messages)

	var reports []Report
	var errs []error
	m.Run(messages, func(r Report) {
		reports = append(reports, r)
	}, func(err error) {
		errs = append(errs, err)
	})

	if len(reports) != 2 || len(errs) != 1 {
		t.Fatalf("expected 2 reports and 1 error, got %d and %d", len(reports), len(errs))
	}
	if reports[1].Gap != 2 || reports[1].Frame.Channel(1) != 40 {
		t.Errorf("unexpected second report: gap=%d ch1=%d", reports[1].Gap, reports[1].Frame.Channel(1))
	}
}

func gatheredValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		total := 0.0
		for _, metric := range mf.GetMetric() {
			if c := metric.GetCounter(); c != nil {
				total += c.GetValue()
			}
			if g := metric.GetGauge(); g != nil {
				total += g.GetValue()
			}
		}
		return total
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(NewMetrics(reg), 2)

	m.Observe(frameMessage(1, 3, 4))
	m.Observe(frameMessage(5, 1, 2))
	m.Observe(&protocol.Message{Seq: 6, Payload: nil})
	m.UpdateTransport(protocol.HostStats{Blocks: 3, Desyncs: 1, Discarded: 9})
	m.UpdateTransport(protocol.HostStats{Blocks: 4, Desyncs: 1, Discarded: 9})

	checks := map[string]float64{
		"dmxbridge_frames_received_total": 2,
		"dmxbridge_frames_missed_total":   3,
		"dmxbridge_bad_payloads_total":    1,
		"dmxbridge_last_sequence":         5,
		"dmxbridge_channel_level":         3, // channel 1 = 1, channel 2 = 2
		"dmxbridge_blocks_decoded_total":  4,
		"dmxbridge_desyncs_total":         1,
		"dmxbridge_bytes_skipped_total":   9,
	}
	for name, expected := range checks {
		if got := gatheredValue(t, reg, name); got != expected {
			t.Errorf("%s: got %v, expected %v", name, got, expected)
		}
	}
}
