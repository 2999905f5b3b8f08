package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoOp(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordIteration("c", time.Millisecond)
		m.RecordForwarded("c", 3)
		m.RecordFiltered("c", 1)
		m.RecordWorkerStart()
		m.RecordWorkerExit("c", true)
		m.RecordMixerBlock("mix", true, 2)
		m.RecordMixerDrop("mix", "late")
		m.RecordBufferDrop("buf", "no_playback_time")
		m.RecordBufferRelease("buf", 2, 1)
	})
}

func TestChainMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordWorkerStart()
	m.RecordIteration("voice", 2*time.Millisecond)
	m.RecordIteration("voice", 3*time.Millisecond)
	m.RecordForwarded("voice", 4)
	m.RecordForwarded("voice", 0)
	m.RecordFiltered("voice", 2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Iterations.WithLabelValues("voice")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.MessagesForwarded.WithLabelValues("voice")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.MessagesFiltered.WithLabelValues("voice")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunningChains))

	m.RecordWorkerExit("voice", true)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.RunningChains))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WorkerExits.WithLabelValues("voice", "error")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.WorkerExits.WithLabelValues("voice", "clean")))

	n, err := testutil.GatherAndCount(reg, "mediachain_iteration_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestComponentMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordMixerBlock("mix", false, 3)
	m.RecordMixerBlock("mix", true, 2)
	m.RecordMixerDrop("mix", "late")
	m.RecordBufferRelease("buf", 5, 1)
	m.RecordBufferDrop("buf", "no_playback_time")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.MixerBlocksEmitted.WithLabelValues("mix")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MixerSilentBlocks.WithLabelValues("mix")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.MixerPendingBlocks.WithLabelValues("mix")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MixerDropped.WithLabelValues("mix", "late")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.BufferReleased.WithLabelValues("buf")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BufferPending.WithLabelValues("buf")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BufferDropped.WithLabelValues("buf", "no_playback_time")))
}
