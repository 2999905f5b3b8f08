package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/mediachain/internal/builder"
	"github.com/vk/mediachain/internal/chain"
	"github.com/vk/mediachain/internal/ctxlog"
	"golang.org/x/sync/errgroup"
)

// Run builds and starts every loaded chain and keeps them running until ctx
// is canceled, the configured run duration elapses, or a worker exits with a
// component failure. All chains are stopped before Run returns.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if a.config.RunDuration > 0 {
		runCtx, cancel = context.WithTimeout(runCtx, a.config.RunDuration)
		defer cancel()
	}

	failures := make(chan chain.ExitInfo, len(a.model.Chains))
	onExit := func(info chain.ExitInfo) {
		if !info.HadError {
			return
		}
		select {
		case failures <- info:
		default:
		}
	}

	chains, err := a.buildChains(ctx, onExit)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(runCtx)
	if a.config.HealthcheckPort > 0 {
		srv := a.newHealthcheckServer(a.config.HealthcheckPort)
		g.Go(func() error { return a.serveHealthcheck(gctx, srv) })
	} else {
		a.logger.Debug("Health check server not started: disabled")
	}

	started, err := a.startChains(chains)
	if err != nil {
		cancel()
		_ = g.Wait()
		return errors.Join(err, a.stopChains(started))
	}

	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case info := <-failures:
			return fmt.Errorf("chain '%s' stopped: component '%s' failed: %w", info.Chain, info.Component, info.Err)
		}
	})

	runErr := g.Wait()
	stopErr := a.stopChains(started)

	a.logger.Info("🏁 All chains stopped.", "chains", len(started))
	return errors.Join(runErr, stopErr)
}

func (a *App) buildChains(ctx context.Context, onExit func(chain.ExitInfo)) ([]*builder.Result, error) {
	results := make([]*builder.Result, 0, len(a.model.Chains))
	for _, def := range a.model.Chains {
		res, err := a.builder.Build(ctx, def, func(o *chain.Options) {
			o.OnWorkerExit = onExit
			if a.config.StopTimeout > 0 {
				o.StopTimeout = a.config.StopTimeout
			}
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build chain: %w", err)
		}
		results = append(results, res)
	}
	return results, nil
}

func (a *App) startChains(chains []*builder.Result) ([]*chain.Chain, error) {
	started := make([]*chain.Chain, 0, len(chains))
	for _, res := range chains {
		if err := res.Chain.Start(); err != nil {
			return started, fmt.Errorf("failed to start chain '%s': %w", res.Chain.Name(), err)
		}
		started = append(started, res.Chain)
	}
	a.logger.Info("🚀 Chains running.", "count", len(started))
	return started, nil
}

// stopChains stops every chain. A chain whose worker already exited is not
// an error.
func (a *App) stopChains(chains []*chain.Chain) error {
	var errs []error
	for _, c := range chains {
		if err := c.Stop(); err != nil && !errors.Is(err, chain.ErrNotRunning) {
			errs = append(errs, fmt.Errorf("failed to stop chain '%s': %w", c.Name(), err))
		}
	}
	return errors.Join(errs...)
}
