package chain

import (
	"context"
	"errors"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/vk/mediachain/internal/component"
	"github.com/vk/mediachain/internal/media"
)

// Start builds the graph and launches the worker.
func (c *Chain) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.run != nil {
		return ErrAlreadyRunning
	}
	p, err := c.build()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(c.opts.Context)
	r := &run{
		chain:  c,
		id:     uuid.NewString(),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		plan:   p,
	}

	c.run = r
	c.opts.Metrics.RecordWorkerStart()
	c.opts.Logger.Info("Chain started.", "run_id", r.id, "connections", len(p.order), "feedback_subchains", len(p.feedback))

	go c.work(r)
	return nil
}

// Stop asks the worker to finish after the current iteration and waits for
// it. If the worker does not exit within the stop timeout its context is
// canceled, the worker is abandoned and ErrStopTimeout is returned. The exit
// handler still fires once the abandoned worker returns.
func (c *Chain) Stop() error {
	c.mu.Lock()
	r := c.run
	if r == nil {
		c.mu.Unlock()
		return ErrNotRunning
	}
	r.stop.Store(true)
	c.mu.Unlock()

	timer := time.NewTimer(c.opts.StopTimeout)
	defer timer.Stop()

	select {
	case <-r.done:
		r.cancel()
		return nil
	case <-timer.C:
	}

	r.cancel()
	c.mu.Lock()
	if c.run == r {
		c.run = nil
	}
	c.mu.Unlock()
	c.opts.Logger.Warn("Worker did not stop in time, abandoning it.", "run_id", r.id, "timeout", c.opts.StopTimeout)
	return ErrStopTimeout
}

// Rebuild rebuilds the graph from the current connections and swaps it in
// between two iterations. On error the running plan is left untouched. The
// swap waits for the current iteration to finish, without holding the chain
// lock, so Stop stays bounded by its timeout meanwhile.
func (c *Chain) Rebuild() error {
	c.mu.Lock()
	r := c.run
	if r == nil {
		c.mu.Unlock()
		return ErrNotRunning
	}
	p, err := c.build()
	c.mu.Unlock()
	if err != nil {
		return err
	}

	r.loopMu.Lock()
	defer r.loopMu.Unlock()

	c.mu.Lock()
	current := c.run == r
	c.mu.Unlock()
	if !current {
		return ErrNotRunning
	}
	if p.gen > r.plan.gen {
		r.plan = p
	}

	c.opts.Logger.Info("Chain rebuilt.", "run_id", r.id, "connections", len(p.order), "feedback_subchains", len(p.feedback))
	return nil
}

// Wait blocks until the current worker, if any, has exited.
func (c *Chain) Wait() {
	c.mu.Lock()
	r := c.run
	c.mu.Unlock()
	if r != nil {
		<-r.done
	}
}

func (c *Chain) work(r *run) {
	logger := c.opts.Logger.With("run_id", r.id)
	first := c.iteration.Load()

	var runErr error
	for {
		if err := c.iterate(r); err != nil {
			runErr = err
			break
		}
		c.iteration.Add(1)
		if r.stop.Load() || r.ctx.Err() != nil {
			break
		}
		runtime.Gosched()
	}

	info := ExitInfo{
		Chain:      c.name,
		RunID:      r.id,
		Iterations: c.iteration.Load() - first,
	}
	// A failure caused by the run being canceled is a stop, not an error.
	if runErr != nil && r.ctx.Err() == nil {
		info.HadError = true
		info.Err = runErr
		info.Description = runErr.Error()
		var ce *ComponentError
		if errors.As(runErr, &ce) {
			info.Component = ce.Component
			info.Description = ce.Err.Error()
		}
	}

	c.mu.Lock()
	if c.run == r {
		c.run = nil
	}
	c.mu.Unlock()
	r.cancel()
	defer close(r.done)

	c.opts.Metrics.RecordWorkerExit(c.name, info.HadError)
	if info.HadError {
		logger.Error("Worker terminated.", "component", info.Component, "iterations", info.Iterations, "error", info.Err)
	} else {
		logger.Info("Worker stopped.", "iterations", info.Iterations)
	}
	if c.opts.OnWorkerExit != nil {
		c.opts.OnWorkerExit(info)
	}
}

// iterate runs one full iteration with the structural lock held.
func (c *Chain) iterate(r *run) error {
	r.loopMu.Lock()
	defer r.loopMu.Unlock()

	p := r.plan
	iteration := c.iteration.Load()
	began := time.Now()

	startComp := p.components[p.start]
	startComp.Lock()
	err := startComp.Push(r, iteration, media.IterationBegin)
	startComp.Unlock()
	if err != nil {
		return &ComponentError{Component: startComp.Name(), Op: OpPush, Iteration: iteration, Err: err}
	}

	var forwarded, filtered int
	for _, conn := range p.order {
		if err := r.ctx.Err(); err != nil {
			return err
		}
		f, d, err := transfer(r, iteration, p.components[conn.pull], p.components[conn.push], conn)
		forwarded += f
		filtered += d
		if err != nil {
			return err
		}
	}

	var fb component.Feedback
	for i, sub := range p.feedback {
		id := int64(i + 1)
		fb.Reset()
		for _, idx := range sub {
			comp := p.components[idx]
			comp.Lock()
			err := comp.ProcessFeedback(r, id, &fb)
			comp.Unlock()
			if err != nil {
				return &ComponentError{Component: comp.Name(), Op: OpFeedback, Iteration: iteration, Err: err}
			}
		}
	}

	c.opts.Metrics.RecordIteration(c.name, time.Since(began))
	c.opts.Metrics.RecordForwarded(c.name, forwarded)
	c.opts.Metrics.RecordFiltered(c.name, filtered)
	return nil
}

// transfer drains pull into push for one connection. Both components stay
// locked for the whole step; a self connection is locked once.
func transfer(r *run, iteration int64, pull, push component.Component, conn connection) (forwarded, filtered int, err error) {
	pull.Lock()
	defer pull.Unlock()
	if push != pull {
		push.Lock()
		defer push.Unlock()
	}

	for {
		msg, err := pull.Pull(r, iteration)
		if err != nil {
			return forwarded, filtered, &ComponentError{Component: pull.Name(), Op: OpPull, Iteration: iteration, Err: err}
		}
		if msg == nil {
			return forwarded, filtered, nil
		}
		if !media.Matches(msg, conn.typeMask, conn.subtypeMask) {
			filtered++
			continue
		}
		if err := push.Push(r, iteration, msg); err != nil {
			return forwarded, filtered, &ComponentError{Component: push.Name(), Op: OpPush, Iteration: iteration, Err: err}
		}
		forwarded++
	}
}
