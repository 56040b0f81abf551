package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics exported by the monitor
type Metrics struct {
	// Frame metrics
	FramesReceived prometheus.Counter
	FramesMissed   prometheus.Counter
	FramesReorder  prometheus.Counter
	BadPayloads    prometheus.Counter
	LastSeq        prometheus.Gauge

	// Channel levels of the latest frame
	Channels *prometheus.GaugeVec

	// Transport metrics
	BlocksDecoded prometheus.Counter
	Desyncs       prometheus.Counter
	BytesSkipped  prometheus.Counter
}

// NewMetrics creates the monitor metrics and registers them with reg.
// A nil reg registers with the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		FramesReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "dmxbridge_frames_received_total",
			Help: "DMX frames received from the bridge",
		}),
		FramesMissed: factory.NewCounter(prometheus.CounterOpts{
			Name: "dmxbridge_frames_missed_total",
			Help: "Frames missing from the sequence",
		}),
		FramesReorder: factory.NewCounter(prometheus.CounterOpts{
			Name: "dmxbridge_frames_reordered_total",
			Help: "Frames that arrived with a stale or repeated sequence number",
		}),
		BadPayloads: factory.NewCounter(prometheus.CounterOpts{
			Name: "dmxbridge_bad_payloads_total",
			Help: "Blocks whose payload is not a full DMX universe",
		}),
		LastSeq: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dmxbridge_last_sequence",
			Help: "Sequence number of the latest frame",
		}),
		Channels: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dmxbridge_channel_level",
			Help: "Level of the watched DMX channels in the latest frame",
		}, []string{"channel"}),
		BlocksDecoded: factory.NewCounter(prometheus.CounterOpts{
			Name: "dmxbridge_blocks_decoded_total",
			Help: "Blocks that passed length, sync and CRC checks",
		}),
		Desyncs: factory.NewCounter(prometheus.CounterOpts{
			Name: "dmxbridge_desyncs_total",
			Help: "Times the block parser lost alignment",
		}),
		BytesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "dmxbridge_bytes_skipped_total",
			Help: "Bytes skipped while resynchronising",
		}),
	}
}
