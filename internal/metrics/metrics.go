// Package metrics holds the Prometheus collectors shared by chains, mixers and
// buffers. A nil *Metrics is valid and records nothing, so components can be
// used without a registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Chain metrics
	Iterations        *prometheus.CounterVec
	IterationDuration *prometheus.HistogramVec
	MessagesForwarded *prometheus.CounterVec
	MessagesFiltered  *prometheus.CounterVec
	WorkerExits       *prometheus.CounterVec
	RunningChains     prometheus.Gauge

	// Mixer metrics
	MixerBlocksEmitted *prometheus.CounterVec
	MixerSilentBlocks  *prometheus.CounterVec
	MixerDropped       *prometheus.CounterVec
	MixerPendingBlocks *prometheus.GaugeVec

	// Buffer metrics
	BufferDropped  *prometheus.CounterVec
	BufferReleased *prometheus.CounterVec
	BufferPending  *prometheus.GaugeVec
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Iterations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mediachain_iterations_total",
				Help: "Total number of completed chain iterations",
			},
			[]string{"chain"},
		),
		IterationDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mediachain_iteration_duration_seconds",
				Help:    "Wall time spent in one iteration, forward and feedback pass",
				Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12), // 100us to ~200ms
			},
			[]string{"chain"},
		),
		MessagesForwarded: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mediachain_messages_forwarded_total",
				Help: "Messages pushed along a connection",
			},
			[]string{"chain"},
		),
		MessagesFiltered: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mediachain_messages_filtered_total",
				Help: "Messages pulled but rejected by a connection mask",
			},
			[]string{"chain"},
		),
		WorkerExits: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mediachain_worker_exits_total",
				Help: "Chain worker terminations",
			},
			[]string{"chain", "result"}, // result: clean or error
		),
		RunningChains: f.NewGauge(prometheus.GaugeOpts{
			Name: "mediachain_running_chains",
			Help: "Number of chains whose worker is running",
		}),

		MixerBlocksEmitted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mediachain_mixer_blocks_emitted_total",
				Help: "Output blocks produced by a mixer",
			},
			[]string{"component"},
		),
		MixerSilentBlocks: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mediachain_mixer_silent_blocks_total",
				Help: "Output blocks for which no input had arrived",
			},
			[]string{"component"},
		),
		MixerDropped: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mediachain_mixer_dropped_messages_total",
				Help: "Input messages discarded by a mixer",
			},
			[]string{"component", "reason"}, // reason: late or future
		),
		MixerPendingBlocks: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "mediachain_mixer_pending_blocks",
				Help: "Blocks waiting to be emitted",
			},
			[]string{"component"},
		),

		BufferDropped: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mediachain_buffer_dropped_messages_total",
				Help: "Messages discarded by a media buffer",
			},
			[]string{"component", "reason"},
		),
		BufferReleased: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mediachain_buffer_released_messages_total",
				Help: "Messages moved from pending to ready",
			},
			[]string{"component"},
		),
		BufferPending: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "mediachain_buffer_pending_messages",
				Help: "Messages held until playback time allows release",
			},
			[]string{"component"},
		),
	}
}

// RecordIteration records a completed iteration
func (m *Metrics) RecordIteration(chain string, d time.Duration) {
	if m == nil {
		return
	}
	m.Iterations.WithLabelValues(chain).Inc()
	m.IterationDuration.WithLabelValues(chain).Observe(d.Seconds())
}

// RecordForwarded records messages that passed a connection filter
func (m *Metrics) RecordForwarded(chain string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.MessagesForwarded.WithLabelValues(chain).Add(float64(n))
}

// RecordFiltered records messages a connection mask rejected
func (m *Metrics) RecordFiltered(chain string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.MessagesFiltered.WithLabelValues(chain).Add(float64(n))
}

// RecordWorkerStart records a chain worker starting
func (m *Metrics) RecordWorkerStart() {
	if m == nil {
		return
	}
	m.RunningChains.Inc()
}

// RecordWorkerExit records a chain worker stopping
func (m *Metrics) RecordWorkerExit(chain string, hadError bool) {
	if m == nil {
		return
	}
	result := "clean"
	if hadError {
		result = "error"
	}
	m.RunningChains.Dec()
	m.WorkerExits.WithLabelValues(chain, result).Inc()
}

// RecordMixerBlock records a block emitted by a mixer
func (m *Metrics) RecordMixerBlock(component string, silent bool, pending int) {
	if m == nil {
		return
	}
	m.MixerBlocksEmitted.WithLabelValues(component).Inc()
	if silent {
		m.MixerSilentBlocks.WithLabelValues(component).Inc()
	}
	m.MixerPendingBlocks.WithLabelValues(component).Set(float64(pending))
}

// RecordMixerDrop records an input message a mixer ignored
func (m *Metrics) RecordMixerDrop(component, reason string) {
	if m == nil {
		return
	}
	m.MixerDropped.WithLabelValues(component, reason).Inc()
}

// RecordBufferDrop records a message a buffer ignored
func (m *Metrics) RecordBufferDrop(component, reason string) {
	if m == nil {
		return
	}
	m.BufferDropped.WithLabelValues(component, reason).Inc()
}

// RecordBufferRelease records messages released for playback
func (m *Metrics) RecordBufferRelease(component string, released, pending int) {
	if m == nil {
		return
	}
	if released > 0 {
		m.BufferReleased.WithLabelValues(component).Add(float64(released))
	}
	m.BufferPending.WithLabelValues(component).Set(float64(pending))
}
