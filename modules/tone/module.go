// Package tone provides the "tone" component kind: a synthetic raw audio
// source producing a sine wave, one block per time signal it receives.
package tone

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/vk/mediachain/internal/component"
	"github.com/vk/mediachain/internal/media"
	"github.com/vk/mediachain/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Args defines the arguments of a `component "tone"` block.
type Args struct {
	SampleRate int     `cty:"sample_rate"`
	Channels   int     `cty:"channels"`
	Frequency  float64 `cty:"frequency"`
	Amplitude  float64 `cty:"amplitude"`
	BlockMS    int     `cty:"block_ms"`
	StartMS    int     `cty:"start_ms"`
	Float      bool    `cty:"float"`
	SourceID   int     `cty:"source_id"`
}

// Config describes the generated signal.
type Config struct {
	SampleRate    int
	Channels      int
	Frequency     float64
	Amplitude     float64 // relative to full scale, between 0 and 1
	BlockDuration time.Duration
	Start         time.Duration // timestamp of the first block
	Float         bool
	SourceID      uint64 // zero picks a random one
}

// Tone is a component generating one block per received time signal.
type Tone struct {
	*component.Base
	cfg    Config
	frames int

	produced    int64
	pending     *media.RawAudio
	pendingIter int64
	handed      bool
}

// NewTone validates cfg and creates a tone source.
func NewTone(name string, cfg Config) (*Tone, error) {
	if cfg.SampleRate <= 0 || cfg.Channels <= 0 || cfg.BlockDuration <= 0 {
		return nil, fmt.Errorf("tone: sample rate, channels and block duration must be positive")
	}
	if cfg.Amplitude < 0 || cfg.Amplitude > 1 {
		return nil, fmt.Errorf("tone: amplitude %v out of range [0, 1]", cfg.Amplitude)
	}
	frames := int(math.Round(float64(cfg.SampleRate) * cfg.BlockDuration.Seconds()))
	if frames < 1 {
		return nil, fmt.Errorf("tone: block of %s holds no frames", cfg.BlockDuration)
	}
	if cfg.SourceID == 0 {
		id := uuid.New()
		cfg.SourceID = binary.BigEndian.Uint64(id[:8])
	}
	return &Tone{Base: component.NewBase(name), cfg: cfg, frames: frames}, nil
}

// SourceID returns the stream identifier stamped on every block.
func (t *Tone) SourceID() uint64 { return t.cfg.SourceID }

// Push generates the next block when it receives a time signal.
func (t *Tone) Push(_ component.Chain, iteration int64, msg media.Message) error {
	if msg.Type() != media.TypeSystem || msg.Subtype() != media.SubtypeSystemIsTime {
		return t.Failf("tone only accepts the time signal, got %s", msg.Type())
	}
	t.pending = t.generate()
	t.pendingIter = iteration
	t.handed = false
	return nil
}

// Pull alternates between a copy of this iteration's block and nil, so each
// outgoing connection receives its own copy once.
func (t *Tone) Pull(_ component.Chain, iteration int64) (media.Message, error) {
	if t.pending == nil || iteration != t.pendingIter {
		return nil, nil
	}
	t.handed = !t.handed
	if !t.handed {
		return nil, nil
	}
	dup, err := t.pending.Duplicate()
	if err != nil {
		return nil, t.Fail(err)
	}
	return dup, nil
}

// ProcessFeedback accepts the pass; a tone has no timing of its own to adjust.
func (t *Tone) ProcessFeedback(component.Chain, int64, *component.Feedback) error { return nil }

func (t *Tone) generate() *media.RawAudio {
	first := t.produced * int64(t.frames)
	ts := t.cfg.Start + time.Duration(t.produced)*t.cfg.BlockDuration
	t.produced++

	step := 2 * math.Pi * t.cfg.Frequency / float64(t.cfg.SampleRate)
	n := t.frames * t.cfg.Channels
	if t.cfg.Float {
		samples := make([]float32, n)
		for f := 0; f < t.frames; f++ {
			v := float32(t.cfg.Amplitude * math.Sin(step*float64(first+int64(f))))
			for ch := 0; ch < t.cfg.Channels; ch++ {
				samples[f*t.cfg.Channels+ch] = v
			}
		}
		return media.NewRawAudioFloat32(t.cfg.SampleRate, t.cfg.Channels, samples, t.cfg.SourceID, ts)
	}
	samples := make([]int16, n)
	for f := 0; f < t.frames; f++ {
		v := int16(math.Round(t.cfg.Amplitude * math.MaxInt16 * math.Sin(step*float64(first+int64(f)))))
		for ch := 0; ch < t.cfg.Channels; ch++ {
			samples[f*t.cfg.Channels+ch] = v
		}
	}
	return media.NewRawAudioS16(t.cfg.SampleRate, t.cfg.Channels, samples, t.cfg.SourceID, ts)
}

// New creates a tone source from its arguments.
func New(_ context.Context, name string, raw any, _ registry.Deps) (component.Component, error) {
	args := raw.(*Args)
	return NewTone(name, Config{
		SampleRate:    args.SampleRate,
		Channels:      args.Channels,
		Frequency:     args.Frequency,
		Amplitude:     args.Amplitude,
		BlockDuration: time.Duration(args.BlockMS) * time.Millisecond,
		Start:         time.Duration(args.StartMS) * time.Millisecond,
		Float:         args.Float,
		SourceID:      uint64(args.SourceID),
	})
}

// Register registers the tone kind with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterComponent("tone", &registry.RegisteredComponent{
		NewArgs: func() any {
			return &Args{SampleRate: 8000, Channels: 1, Frequency: 440, Amplitude: 0.5, BlockMS: 20, Float: true}
		},
		New:         New,
		Description: "generates a sine wave, one block per time signal",
	})
}
