package app

import (
	"context"
	"fmt"

	"github.com/vk/mediachain/internal/config"
	"github.com/vk/mediachain/internal/ctxlog"
	"github.com/vk/mediachain/internal/hcl"
	"github.com/vk/mediachain/internal/yamlconfig"
)

// loaders lists the definition formats the app understands.
func loaders() []config.Loader {
	return []config.Loader{hcl.NewLoader(), yamlconfig.NewLoader()}
}

// loadModel runs every loader over paths and merges what they found. Chain
// names must be unique across formats.
func loadModel(ctx context.Context, paths ...string) (*config.Model, config.Converter, error) {
	logger := ctxlog.FromContext(ctx)

	model := &config.Model{}
	var converter config.Converter
	for _, l := range loaders() {
		m, conv, err := l.Load(ctx, paths...)
		if err != nil {
			return nil, nil, err
		}
		if err := model.Merge(m); err != nil {
			return nil, nil, err
		}
		if converter == nil {
			converter = conv
		}
	}
	if len(model.Chains) == 0 {
		return nil, nil, fmt.Errorf("no chain definitions found in %v", paths)
	}

	logger.Debug("Configuration loaded and translated into unified model.", "chains", len(model.Chains))
	return model, converter, nil
}
