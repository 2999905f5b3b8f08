package buffer

import (
	"context"
	"time"

	"github.com/vk/mediachain/internal/component"
	"github.com/vk/mediachain/internal/mediabuffer"
	"github.com/vk/mediachain/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Args defines the arguments of a `component "buffer"` block.
type Args struct {
	IntervalMS int `cty:"interval_ms"`
}

// New creates an initialized reorder buffer.
func New(_ context.Context, name string, raw any, deps registry.Deps) (component.Component, error) {
	args := raw.(*Args)
	b := mediabuffer.New(name, func(o *mediabuffer.Options) {
		o.Logger = deps.Logger
		o.Metrics = deps.Metrics
	})
	if err := b.Init(time.Duration(args.IntervalMS) * time.Millisecond); err != nil {
		return nil, err
	}
	return b, nil
}

// Register registers the buffer kind with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterComponent("buffer", &registry.RegisteredComponent{
		NewArgs:     func() any { return &Args{IntervalMS: 20} },
		New:         New,
		Description: "releases media in timestamp order once the playback time allows it",
	})
}
