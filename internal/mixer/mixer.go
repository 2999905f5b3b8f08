package mixer

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/vk/mediachain/internal/component"
	"github.com/vk/mediachain/internal/media"
	"github.com/vk/mediachain/internal/metrics"
)

// MaxAhead is how far in the future a timestamp or the extra delay may lie.
const MaxAhead = 300 * time.Second

var (
	ErrAlreadyInitialized = errors.New("mixer already initialized")
	ErrNotInitialized     = errors.New("mixer not initialized")
	ErrInvalidConfig      = errors.New("invalid mixer configuration")
	ErrBadMessage         = errors.New("incompatible message")
	ErrExtraDelay         = errors.New("invalid extra delay")
)

// Config fixes the output format of a mixer.
type Config struct {
	SampleRate    int
	Channels      int
	BlockDuration time.Duration
	// UseTimeInfo places samples according to their timestamps. Without it
	// every message goes into the next block to be emitted.
	UseTimeInfo bool
	// Float selects float32 samples; otherwise signed 16 bit.
	Float bool
}

// Options configures the ambient behavior of a mixer.
type Options struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	// SourceID is stamped on every emitted block.
	SourceID uint64
	// PlaybackStart is the playback time of the first emitted block.
	PlaybackStart time.Duration
}

// block accumulates the samples of one output interval.
type block struct {
	interval int64
	f        []float32
	s        []int16
}

// AudioMixer is a component. Create it with New and call Init before adding
// it to a chain.
type AudioMixer struct {
	*component.Base
	opts Options

	initialized     bool
	cfg             Config
	framesPerBlock  int
	samplesPerBlock int
	silenceF        []float32
	silenceS        []int16

	blocks        []*block
	curInterval   int64
	playbackTime  time.Duration
	extraDelay    time.Duration
	lastIteration int64
}

// New creates an uninitialized mixer called name.
func New(name string, optFns ...func(o *Options)) *AudioMixer {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	opts.Logger = opts.Logger.With("component", name)
	return &AudioMixer{
		Base: component.NewBase(name),
		opts: opts,
	}
}

// Init fixes the output format and precomputes the block geometry.
func (m *AudioMixer) Init(cfg Config) error {
	m.Lock()
	defer m.Unlock()

	if m.initialized {
		return m.Fail(ErrAlreadyInitialized)
	}
	if cfg.SampleRate <= 0 || cfg.Channels <= 0 || cfg.BlockDuration <= 0 {
		return m.Failf("%w: sample rate, channels and block duration must be positive", ErrInvalidConfig)
	}
	frames := int(math.Round(float64(cfg.SampleRate) * cfg.BlockDuration.Seconds()))
	if frames < 1 {
		return m.Failf("%w: block of %s holds no frames at %d Hz", ErrInvalidConfig, cfg.BlockDuration, cfg.SampleRate)
	}

	m.cfg = cfg
	m.framesPerBlock = frames
	m.samplesPerBlock = frames * cfg.Channels
	if cfg.Float {
		m.silenceF = make([]float32, m.samplesPerBlock)
	} else {
		m.silenceS = make([]int16, m.samplesPerBlock)
	}
	m.blocks = nil
	m.curInterval = 0
	m.playbackTime = m.opts.PlaybackStart
	m.lastIteration = 0
	m.initialized = true

	m.opts.Logger.Debug("Mixer initialized.",
		"sample_rate", cfg.SampleRate, "channels", cfg.Channels, "block", cfg.BlockDuration,
		"frames_per_block", frames, "use_time_info", cfg.UseTimeInfo, "float", cfg.Float)
	return nil
}

// SetExtraDelay adds d to the placement of every timestamped message and to
// the delay reported during feedback.
func (m *AudioMixer) SetExtraDelay(d time.Duration) error {
	m.Lock()
	defer m.Unlock()

	if !m.initialized {
		return m.Fail(ErrNotInitialized)
	}
	if !m.cfg.UseTimeInfo {
		return m.Failf("%w: timing information is not used", ErrExtraDelay)
	}
	if d < 0 {
		return m.Failf("%w: %s is negative", ErrExtraDelay, d)
	}
	if d > MaxAhead {
		return m.Failf("%w: %s exceeds %s", ErrExtraDelay, d, MaxAhead)
	}
	m.extraDelay = d
	return nil
}

// ExtraDelay returns the configured extra delay.
func (m *AudioMixer) ExtraDelay() time.Duration {
	m.Lock()
	defer m.Unlock()
	return m.extraDelay
}

// PlaybackTime returns the playback time of the next block to be emitted.
func (m *AudioMixer) PlaybackTime() time.Duration {
	m.Lock()
	defer m.Unlock()
	return m.playbackTime
}

// BlockDuration returns the configured block duration.
func (m *AudioMixer) BlockDuration() time.Duration {
	m.Lock()
	defer m.Unlock()
	return m.cfg.BlockDuration
}

// Push sums a raw audio message into the pending blocks.
func (m *AudioMixer) Push(_ component.Chain, _ int64, msg media.Message) error {
	if !m.initialized {
		return m.Fail(ErrNotInitialized)
	}
	audio, err := m.checkMessage(msg)
	if err != nil {
		return m.Fail(err)
	}

	startInterval := m.curInterval
	offset := 0
	if m.cfg.UseTimeInfo {
		ts := audio.Timestamp()
		if ts < m.playbackTime {
			m.drop("late", ts)
			return nil
		}
		if ts > m.playbackTime+MaxAhead {
			m.drop("future", ts)
			return nil
		}
		intervals := float64(ts-m.playbackTime+m.extraDelay) / float64(m.cfg.BlockDuration)
		whole := math.Floor(intervals)
		startInterval += int64(whole)
		offset = int((intervals-whole)*float64(m.framesPerBlock)) * m.cfg.Channels
	}

	if m.cfg.Float {
		m.accumulate(startInterval, offset, len(audio.Float32), func(b *block, dst, src, n int) {
			addFloat32(b.f[dst:dst+n], audio.Float32[src:src+n])
		})
	} else {
		m.accumulate(startInterval, offset, len(audio.S16), func(b *block, dst, src, n int) {
			addS16(b.s[dst:dst+n], audio.S16[src:src+n])
		})
	}
	return nil
}

func (m *AudioMixer) checkMessage(msg media.Message) (*media.RawAudio, error) {
	audio, ok := msg.(*media.RawAudio)
	if !ok || msg.Type() != media.TypeAudioRaw {
		return nil, fmt.Errorf("%w: expected raw audio, got %s", ErrBadMessage, msg.Type())
	}
	want := media.SubtypeAudioS16
	if m.cfg.Float {
		want = media.SubtypeAudioFloat32
	}
	if audio.Subtype() != want {
		return nil, fmt.Errorf("%w: sample format does not match the mixer", ErrBadMessage)
	}
	if audio.SampleRate != m.cfg.SampleRate {
		return nil, fmt.Errorf("%w: sample rate %d, mixer uses %d", ErrBadMessage, audio.SampleRate, m.cfg.SampleRate)
	}
	if audio.Channels != m.cfg.Channels {
		return nil, fmt.Errorf("%w: %d channels, mixer uses %d", ErrBadMessage, audio.Channels, m.cfg.Channels)
	}
	return audio, nil
}

// accumulate walks total samples across consecutive blocks starting at
// interval first, sample offset offset. The block search restarts from the
// head of the list on every call.
func (m *AudioMixer) accumulate(first int64, offset, total int, add func(b *block, dst, src, n int)) {
	cursor := 0
	interval := first
	for done := 0; done < total; interval++ {
		var b *block
		b, cursor = m.blockAt(interval, cursor)
		n := min(m.samplesPerBlock-offset, total-done)
		add(b, offset, done, n)
		done += n
		offset = 0
	}
}

// blockAt returns the block for interval, inserting a silent one if needed.
// The search starts at index from; the returned index is where the next,
// higher interval search can resume.
func (m *AudioMixer) blockAt(interval int64, from int) (*block, int) {
	i := from
	for i < len(m.blocks) && m.blocks[i].interval < interval {
		i++
	}
	if i < len(m.blocks) && m.blocks[i].interval == interval {
		return m.blocks[i], i + 1
	}
	b := &block{interval: interval}
	if m.cfg.Float {
		b.f = slices.Clone(m.silenceF)
	} else {
		b.s = slices.Clone(m.silenceS)
	}
	m.blocks = slices.Insert(m.blocks, i, b)
	return b, i + 1
}

// Pull emits one block per iteration. Further pulls in the same iteration
// return nil.
func (m *AudioMixer) Pull(_ component.Chain, iteration int64) (media.Message, error) {
	if !m.initialized {
		return nil, m.Fail(ErrNotInitialized)
	}
	if iteration == m.lastIteration {
		return nil, nil
	}
	m.lastIteration = iteration

	// Push drops anything before playbackTime, so blocks[0] is never
	// behind curInterval.
	var out *block
	silent := true
	if len(m.blocks) > 0 && m.blocks[0].interval == m.curInterval {
		out = m.blocks[0]
		m.blocks[0] = nil
		m.blocks = m.blocks[1:]
		silent = false
	}

	var msg *media.RawAudio
	switch {
	case m.cfg.Float && out != nil:
		msg = media.NewRawAudioFloat32(m.cfg.SampleRate, m.cfg.Channels, out.f, m.opts.SourceID, m.playbackTime)
	case m.cfg.Float:
		msg = media.NewRawAudioFloat32(m.cfg.SampleRate, m.cfg.Channels, slices.Clone(m.silenceF), m.opts.SourceID, m.playbackTime)
	case out != nil:
		msg = media.NewRawAudioS16(m.cfg.SampleRate, m.cfg.Channels, out.s, m.opts.SourceID, m.playbackTime)
	default:
		msg = media.NewRawAudioS16(m.cfg.SampleRate, m.cfg.Channels, slices.Clone(m.silenceS), m.opts.SourceID, m.playbackTime)
	}

	m.curInterval++
	m.playbackTime += m.cfg.BlockDuration
	m.opts.Metrics.RecordMixerBlock(m.Name(), silent, len(m.blocks))
	return msg, nil
}

// ProcessFeedback publishes the playback time and the extra delay.
func (m *AudioMixer) ProcessFeedback(_ component.Chain, _ int64, fb *component.Feedback) error {
	if !m.initialized {
		return m.Fail(ErrNotInitialized)
	}
	if err := fb.SetPlaybackTime(m.playbackTime); err != nil {
		return m.Fail(err)
	}
	fb.AddPlaybackDelay(m.extraDelay)
	return nil
}

func (m *AudioMixer) drop(reason string, ts time.Duration) {
	m.opts.Metrics.RecordMixerDrop(m.Name(), reason)
	m.opts.Logger.Debug("Dropping audio.", "reason", reason, "timestamp", ts, "playback_time", m.playbackTime)
}

func addFloat32(dst, src []float32) {
	for i, v := range src {
		dst[i] += v
	}
}

// addS16 sums with saturation.
func addS16(dst, src []int16) {
	for i, v := range src {
		sum := int32(dst[i]) + int32(v)
		switch {
		case sum > math.MaxInt16:
			sum = math.MaxInt16
		case sum < math.MinInt16:
			sum = math.MinInt16
		}
		dst[i] = int16(sum)
	}
}
