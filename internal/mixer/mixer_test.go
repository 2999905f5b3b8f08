package mixer

import (
	"math"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/mediachain/internal/chain"
	"github.com/vk/mediachain/internal/component"
	"github.com/vk/mediachain/internal/media"
	"github.com/vk/mediachain/internal/metrics"
	"github.com/vk/mediachain/internal/testutil"
)

const (
	rate     = 8000
	blockDur = 20 * time.Millisecond
	// frames in one 20ms block at 8kHz
	frames   = 160
)

func newMixer(t *testing.T, cfg Config, optFns ...func(o *Options)) *AudioMixer {
	t.Helper()
	m := New("mix", optFns...)
	require.NoError(t, m.Init(cfg))
	return m
}

func floatConfig() Config {
	return Config{SampleRate: rate, Channels: 1, BlockDuration: blockDur, UseTimeInfo: true, Float: true}
}

func impulse(at int, v float32) []float32 {
	s := make([]float32, frames)
	s[at] = v
	return s
}

func pullAudio(t *testing.T, m *AudioMixer, iteration int64) *media.RawAudio {
	t.Helper()
	msg, err := m.Pull(nil, iteration)
	require.NoError(t, err)
	require.NotNil(t, msg)
	audio, ok := msg.(*media.RawAudio)
	require.True(t, ok)
	return audio
}

func TestInit(t *testing.T) {
	m := New("mix")
	_, err := m.Pull(nil, 1)
	require.ErrorIs(t, err, ErrNotInitialized)
	require.ErrorIs(t, m.Push(nil, 1, media.NewRawAudioFloat32(rate, 1, nil, 1, 0)), ErrNotInitialized)
	require.ErrorIs(t, m.SetExtraDelay(0), ErrNotInitialized)

	require.ErrorIs(t, m.Init(Config{SampleRate: 0, Channels: 1, BlockDuration: blockDur}), ErrInvalidConfig)
	require.ErrorIs(t, m.Init(Config{SampleRate: rate, Channels: 1, BlockDuration: time.Microsecond}), ErrInvalidConfig)

	require.NoError(t, m.Init(floatConfig()))
	require.Equal(t, frames, m.framesPerBlock)
	require.ErrorIs(t, m.Init(floatConfig()), ErrAlreadyInitialized)
	require.Contains(t, m.LastError(), "already initialized")
}

func TestPush_SumsOverlappingMessages(t *testing.T) {
	m := newMixer(t, floatConfig())
	require.NoError(t, m.Push(nil, 1, media.NewRawAudioFloat32(rate, 1, impulse(5, 0.25), 1, 0)))
	require.NoError(t, m.Push(nil, 1, media.NewRawAudioFloat32(rate, 1, impulse(5, 0.5), 2, 0)))
	require.Len(t, m.blocks, 1)

	out := pullAudio(t, m, 1)
	assert.Equal(t, float32(0.75), out.Float32[5])
	assert.Equal(t, time.Duration(0), out.Timestamp())
	assert.Len(t, out.Float32, frames)
}

func TestPush_FractionalOffsetSpansBlocks(t *testing.T) {
	m := newMixer(t, floatConfig())
	samples := make([]float32, frames)
	for i := range samples {
		samples[i] = 1
	}
	// Half a block late relative to playback time 0.
	require.NoError(t, m.Push(nil, 1, media.NewRawAudioFloat32(rate, 1, samples, 1, blockDur/2)))
	require.Len(t, m.blocks, 2)
	assert.Equal(t, []int64{0, 1}, []int64{m.blocks[0].interval, m.blocks[1].interval})

	first := pullAudio(t, m, 1)
	assert.Equal(t, float32(0), first.Float32[frames/2-1])
	assert.Equal(t, float32(1), first.Float32[frames/2])
	second := pullAudio(t, m, 2)
	assert.Equal(t, float32(1), second.Float32[frames/2-1])
	assert.Equal(t, float32(0), second.Float32[frames/2])
	assert.Equal(t, blockDur, second.Timestamp())
}

func TestPush_BlocksStayOrdered(t *testing.T) {
	m := newMixer(t, floatConfig())
	for _, ts := range []time.Duration{3 * blockDur, blockDur, 2 * blockDur, 0, blockDur} {
		require.NoError(t, m.Push(nil, 1, media.NewRawAudioFloat32(rate, 1, impulse(0, 1), 1, ts)))
	}
	var intervals []int64
	for _, b := range m.blocks {
		intervals = append(intervals, b.interval)
	}
	require.Equal(t, []int64{0, 1, 2, 3}, intervals)
	assert.Equal(t, float32(2), m.blocks[1].f[0])
}

func TestPush_DropsOutOfRangeTimestamps(t *testing.T) {
	reg := prometheus.NewRegistry()
	met := metrics.New(reg)
	m := newMixer(t, floatConfig(), func(o *Options) { o.Metrics = met })

	require.NoError(t, m.Push(nil, 1, media.NewRawAudioFloat32(rate, 1, impulse(1, 1), 1, 2*blockDur)))
	pullAudio(t, m, 1)
	require.Equal(t, blockDur, m.PlaybackTime())
	before := len(m.blocks)
	snapshot := append([]float32(nil), m.blocks[0].f...)

	// Strictly before playback time.
	require.NoError(t, m.Push(nil, 2, media.NewRawAudioFloat32(rate, 1, impulse(1, 1), 1, blockDur-time.Millisecond)))
	// Too far ahead.
	require.NoError(t, m.Push(nil, 2, media.NewRawAudioFloat32(rate, 1, impulse(1, 1), 1, blockDur+MaxAhead+time.Millisecond)))

	require.Len(t, m.blocks, before)
	assert.Equal(t, snapshot, m.blocks[0].f)
	assert.Equal(t, float64(1), promtest.ToFloat64(met.MixerDropped.WithLabelValues("mix", "late")))
	assert.Equal(t, float64(1), promtest.ToFloat64(met.MixerDropped.WithLabelValues("mix", "future")))
}

func TestPush_WithoutTimeInfo(t *testing.T) {
	cfg := floatConfig()
	cfg.UseTimeInfo = false
	m := newMixer(t, cfg)

	// The timestamps are ignored.
	require.NoError(t, m.Push(nil, 1, media.NewRawAudioFloat32(rate, 1, impulse(3, 0.25), 1, 7*time.Second)))
	require.NoError(t, m.Push(nil, 1, media.NewRawAudioFloat32(rate, 1, impulse(3, 0.25), 2, 0)))

	out := pullAudio(t, m, 1)
	assert.Equal(t, float32(0.5), out.Float32[3])

	// The next message lands in the next emitted block.
	require.NoError(t, m.Push(nil, 2, media.NewRawAudioFloat32(rate, 1, impulse(9, 1), 1, 0)))
	out = pullAudio(t, m, 2)
	assert.Equal(t, float32(1), out.Float32[9])
	assert.Equal(t, float32(0), out.Float32[3])

	require.ErrorIs(t, m.SetExtraDelay(blockDur), ErrExtraDelay)
}

func TestPull_OneBlockPerIteration(t *testing.T) {
	m := newMixer(t, floatConfig())
	first := pullAudio(t, m, 1)
	assert.Equal(t, make([]float32, frames), first.Float32, "nothing pushed yields silence")

	again, err := m.Pull(nil, 1)
	require.NoError(t, err)
	require.Nil(t, again)

	second := pullAudio(t, m, 2)
	assert.Equal(t, blockDur, second.Timestamp())
	assert.Equal(t, 2*blockDur, m.PlaybackTime())

	// Silence handed out is not shared.
	first.Float32[0] = 1
	assert.Equal(t, float32(0), pullAudio(t, m, 3).Float32[0])
}

func TestPull_EmitsBlocksInOrderAfterAdvancing(t *testing.T) {
	m := newMixer(t, floatConfig())
	pullAudio(t, m, 1)
	pullAudio(t, m, 2)

	for _, ts := range []time.Duration{3 * blockDur, blockDur, 2 * blockDur} {
		require.NoError(t, m.Push(nil, 3, media.NewRawAudioFloat32(rate, 1, impulse(0, 1), 1, ts)))
	}
	require.Len(t, m.blocks, 2, "the late message never becomes a block")
	assert.Equal(t, m.curInterval, m.blocks[0].interval)

	third := pullAudio(t, m, 3)
	assert.Equal(t, 2*blockDur, third.Timestamp())
	assert.Equal(t, float32(1), third.Float32[0])
	fourth := pullAudio(t, m, 4)
	assert.Equal(t, 3*blockDur, fourth.Timestamp())
	assert.Equal(t, float32(1), fourth.Float32[0])
	assert.Empty(t, m.blocks)
}

func TestS16Saturates(t *testing.T) {
	m := newMixer(t, Config{SampleRate: rate, Channels: 2, BlockDuration: blockDur, UseTimeInfo: true})
	loud := make([]int16, frames*2)
	quiet := make([]int16, frames*2)
	loud[0], loud[1] = 30000, -30000
	quiet[0], quiet[1] = 30000, -30000
	require.NoError(t, m.Push(nil, 1, media.NewRawAudioS16(rate, 2, loud, 1, 0)))
	require.NoError(t, m.Push(nil, 1, media.NewRawAudioS16(rate, 2, quiet, 2, 0)))

	out := pullAudio(t, m, 1)
	assert.Equal(t, int16(math.MaxInt16), out.S16[0])
	assert.Equal(t, int16(math.MinInt16), out.S16[1])
	assert.Equal(t, frames, out.Frames)
}

func TestPush_RejectsIncompatibleMessages(t *testing.T) {
	m := newMixer(t, floatConfig())
	cases := map[string]media.Message{
		"video":       media.NewRawVideo(media.SubtypeVideoRGB24, 1, 1, []byte{0, 0, 0}, 1, 0),
		"sample rate": media.NewRawAudioFloat32(16000, 1, impulse(0, 1), 1, 0),
		"channels":    media.NewRawAudioFloat32(rate, 2, make([]float32, frames*2), 1, 0),
		"format":      media.NewRawAudioS16(rate, 1, make([]int16, frames), 1, 0),
		"system":      media.IterationBegin,
	}
	for name, msg := range cases {
		t.Run(name, func(t *testing.T) {
			err := m.Push(nil, 1, msg)
			require.ErrorIs(t, err, ErrBadMessage)
			require.Equal(t, err.Error(), m.LastError())
		})
	}
	require.Empty(t, m.blocks)
}

func TestSetExtraDelay(t *testing.T) {
	m := newMixer(t, floatConfig())
	require.ErrorIs(t, m.SetExtraDelay(-time.Millisecond), ErrExtraDelay)
	require.ErrorIs(t, m.SetExtraDelay(MaxAhead+time.Millisecond), ErrExtraDelay)
	require.NoError(t, m.SetExtraDelay(MaxAhead))
	require.NoError(t, m.SetExtraDelay(blockDur))
	require.Equal(t, blockDur, m.ExtraDelay())

	// The delay moves placement one block later.
	require.NoError(t, m.Push(nil, 1, media.NewRawAudioFloat32(rate, 1, impulse(0, 1), 1, 0)))
	require.Len(t, m.blocks, 1)
	require.Equal(t, int64(1), m.blocks[0].interval)
}

func TestProcessFeedback(t *testing.T) {
	m := newMixer(t, floatConfig())
	require.NoError(t, m.SetExtraDelay(40*time.Millisecond))
	pullAudio(t, m, 1)

	var fb component.Feedback
	require.NoError(t, m.ProcessFeedback(nil, 1, &fb))
	pt, ok := fb.PlaybackTime()
	require.True(t, ok)
	assert.Equal(t, blockDur, pt)
	assert.Equal(t, 40*time.Millisecond, fb.PlaybackDelay())

	other := newMixer(t, floatConfig())
	err := other.ProcessFeedback(nil, 1, &fb)
	require.ErrorIs(t, err, component.ErrPlaybackTimeSet)
	require.NotEmpty(t, other.LastError())
}

func TestMixerInChain(t *testing.T) {
	m := newMixer(t, floatConfig())
	// Two producers, identified by source id, timed to the same interval.
	src := testutil.NewSource("src",
		media.NewRawAudioFloat32(rate, 1, impulse(80, 0.3), 1, 0),
		media.NewRawAudioFloat32(rate, 1, impulse(80, 0.4), 2, 0),
	)
	sink := testutil.NewRelay("sink", nil)

	c := chain.New("mixing")
	require.NoError(t, c.Connect(src, m, false, media.TypeAudioRaw, media.SubtypeAll))
	require.NoError(t, c.Connect(m, sink, false, media.TypeAll, media.SubtypeAll))
	require.NoError(t, c.SetStart(src))
	require.NoError(t, c.Start())
	t.Cleanup(func() { _ = c.Stop() })

	require.Eventually(t, func() bool { return len(sink.Received()) >= 2 }, 2*time.Second, time.Millisecond)
	require.NoError(t, c.Stop())

	got := sink.Received()
	first := got[0].(*media.RawAudio)
	assert.InDelta(t, 0.7, first.Float32[80], 1e-6)
	assert.Equal(t, time.Duration(0), first.Timestamp())
	assert.Equal(t, float32(0), got[1].(*media.RawAudio).Float32[80])
}
