package builder

import (
	"context"
	"fmt"

	"github.com/vk/mediachain/internal/chain"
	"github.com/vk/mediachain/internal/component"
	"github.com/vk/mediachain/internal/config"
	"github.com/vk/mediachain/internal/ctxlog"
	"github.com/vk/mediachain/internal/media"
	"github.com/vk/mediachain/internal/metrics"
	"github.com/vk/mediachain/internal/registry"
)

// Builder creates chains from definitions using the registered component
// kinds.
type Builder struct {
	registry  *registry.Registry
	converter config.Converter
	metrics   *metrics.Metrics
}

// Result is a built chain together with its components, by name.
type Result struct {
	Chain      *chain.Chain
	Components map[string]component.Component
}

// New creates a Builder. m may be nil.
func New(reg *registry.Registry, conv config.Converter, m *metrics.Metrics) *Builder {
	return &Builder{registry: reg, converter: conv, metrics: m}
}

// Build creates, connects and validates the chain described by def. The
// chain is returned stopped. optFns are applied after the builder's own
// defaults (logger and metrics).
func (b *Builder) Build(ctx context.Context, def *config.Chain, optFns ...func(o *chain.Options)) (*Result, error) {
	logger := ctxlog.FromContext(ctx).With("chain", def.Name)

	if err := def.Validate(); err != nil {
		return nil, err
	}

	deps := registry.Deps{Logger: logger, Metrics: b.metrics}
	components := make(map[string]component.Component, len(def.Components))
	for _, cd := range def.Components {
		comp, err := b.createComponent(ctx, cd, deps)
		if err != nil {
			return nil, fmt.Errorf("chain '%s', component '%s': %w", def.Name, cd.Name, err)
		}
		components[cd.Name] = comp
		logger.Debug("Component created.", "kind", cd.Kind, "component", cd.Name)
	}

	fns := append([]func(o *chain.Options){func(o *chain.Options) {
		o.Logger = ctxlog.FromContext(ctx)
		o.Metrics = b.metrics
	}}, optFns...)
	c := chain.New(def.Name, fns...)

	for i, conn := range def.Connections {
		typeMask, err := media.ParseTypeMask(conn.Types)
		if err != nil {
			return nil, fmt.Errorf("chain '%s', connection %d (%s -> %s): %w", def.Name, i, conn.From, conn.To, err)
		}
		subtypeMask, err := media.ParseSubtypeMask(conn.Subtypes)
		if err != nil {
			return nil, fmt.Errorf("chain '%s', connection %d (%s -> %s): %w", def.Name, i, conn.From, conn.To, err)
		}
		if err := c.Connect(components[conn.From], components[conn.To], conn.Feedback, typeMask, subtypeMask); err != nil {
			return nil, fmt.Errorf("chain '%s': %w", def.Name, err)
		}
	}
	if err := c.SetStart(components[def.Start]); err != nil {
		return nil, fmt.Errorf("chain '%s': %w", def.Name, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("chain '%s': %w", def.Name, err)
	}

	logger.Info("Chain assembled.", "components", len(components), "connections", len(def.Connections), "source", def.Source)
	return &Result{Chain: c, Components: components}, nil
}

func (b *Builder) createComponent(ctx context.Context, cd *config.Component, deps registry.Deps) (component.Component, error) {
	rc, ok := b.registry.Component(cd.Kind)
	if !ok {
		return nil, fmt.Errorf("unknown component kind '%s' (registered: %v)", cd.Kind, b.registry.Kinds())
	}
	args := rc.NewArgs()
	if err := b.converter.DecodeArguments(ctx, args, cd.Arguments); err != nil {
		return nil, err
	}
	comp, err := rc.New(ctx, cd.Name, args, deps)
	if err != nil {
		return nil, err
	}
	if comp == nil {
		return nil, fmt.Errorf("factory for kind '%s' returned no component", cd.Kind)
	}
	return comp, nil
}
