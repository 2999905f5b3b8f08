package mixer

import (
	"context"
	"time"

	"github.com/vk/mediachain/internal/component"
	"github.com/vk/mediachain/internal/mixer"
	"github.com/vk/mediachain/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Args defines the arguments of a `component "mixer"` block.
type Args struct {
	SampleRate   int  `cty:"sample_rate"`
	Channels     int  `cty:"channels"`
	BlockMS      int  `cty:"block_ms"`
	UseTimeInfo  bool `cty:"use_time_info"`
	Float        bool `cty:"float"`
	ExtraDelayMS int  `cty:"extra_delay_ms"`
	SourceID     int  `cty:"source_id"`
}

func defaultArgs() any {
	return &Args{
		SampleRate:  8000,
		Channels:    1,
		BlockMS:     20,
		UseTimeInfo: true,
		Float:       true,
	}
}

// New creates an initialized mixer.
func New(_ context.Context, name string, raw any, deps registry.Deps) (component.Component, error) {
	args := raw.(*Args)
	m := mixer.New(name, func(o *mixer.Options) {
		o.Logger = deps.Logger
		o.Metrics = deps.Metrics
		o.SourceID = uint64(args.SourceID)
	})
	err := m.Init(mixer.Config{
		SampleRate:    args.SampleRate,
		Channels:      args.Channels,
		BlockDuration: time.Duration(args.BlockMS) * time.Millisecond,
		UseTimeInfo:   args.UseTimeInfo,
		Float:         args.Float,
	})
	if err != nil {
		return nil, err
	}
	if args.ExtraDelayMS != 0 {
		if err := m.SetExtraDelay(time.Duration(args.ExtraDelayMS) * time.Millisecond); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Register registers the mixer kind with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterComponent("mixer", &registry.RegisteredComponent{
		NewArgs:     defaultArgs,
		New:         New,
		Description: "sums timestamped raw audio streams into fixed-duration blocks",
	})
}
