package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vk/mediachain/internal/builder"
	"github.com/vk/mediachain/internal/config"
	"github.com/vk/mediachain/internal/ctxlog"
	"github.com/vk/mediachain/internal/metrics"
	"github.com/vk/mediachain/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	registry *registry.Registry
	model    *config.Model
	builder  *builder.Builder

	promRegistry *prometheus.Registry
	metrics      *metrics.Metrics
}

// NewApp is the constructor for the main application. It loads every chain
// definition under cfg.ConfigPath and checks the registered component kinds.
// With no modules given the core modules are registered.
func NewApp(outW io.Writer, cfg *Config, modules ...registry.Module) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, converter, err := loadModel(ctx, cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules), "kinds", reg.Kinds())

	if err := reg.Validate(ctx); err != nil {
		return nil, err
	}

	promRegistry := prometheus.NewRegistry()
	m := metrics.New(promRegistry)

	return &App{
		outW:         outW,
		logger:       logger,
		config:       cfg,
		registry:     reg,
		model:        model,
		builder:      builder.New(reg, converter, m),
		promRegistry: promRegistry,
		metrics:      m,
	}, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Model returns the loaded chain definitions.
func (a *App) Model() *config.Model {
	return a.model
}

// Gatherer exposes the app's metrics registry.
func (a *App) Gatherer() prometheus.Gatherer {
	return a.promRegistry
}
