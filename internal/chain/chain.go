package chain

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vk/mediachain/internal/component"
	"github.com/vk/mediachain/internal/media"
)

// New creates an empty, stopped chain.
func New(name string, optFns ...func(o *Options)) *Chain {
	opts := Options{
		StopTimeout: DefaultStopTimeout,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = DefaultStopTimeout
	}
	opts.Logger = opts.Logger.With("chain", name)

	c := &Chain{
		name:  name,
		opts:  opts,
		index: make(map[component.Component]int),
		start: -1,
	}
	c.iteration.Store(1)
	return c
}

// Name returns the chain name.
func (c *Chain) Name() string { return c.name }

// Iteration returns the number of the iteration that runs next. Numbering
// starts at 1 and continues across restarts.
func (c *Chain) Iteration() int64 { return c.iteration.Load() }

// IsRunning reports whether a worker is active.
func (c *Chain) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.run != nil
}

// Context returns the context of the current run, or the parent context
// when the chain is stopped.
func (c *Chain) Context() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.run != nil {
		return c.run.ctx
	}
	return c.opts.Context
}

// SetStart declares the component that receives media.IterationBegin.
func (c *Chain) SetStart(comp component.Component) error {
	if comp == nil {
		return ErrNilComponent
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.start = c.register(comp)
	return nil
}

// Connect adds a directed edge from pull to push. Only messages matching
// both masks are forwarded. Feedback edges also take part in the feedback
// pass. The change takes effect on the next Start or Rebuild.
func (c *Chain) Connect(pull, push component.Component, feedback bool, typeMask media.Type, subtypeMask media.Subtype) error {
	if pull == nil || push == nil {
		return ErrNilComponent
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	conn := connection{
		pull:        c.register(pull),
		push:        c.register(push),
		feedback:    feedback,
		typeMask:    typeMask,
		subtypeMask: subtypeMask,
	}
	if c.find(conn) >= 0 {
		return fmt.Errorf("%w: %s", ErrConnectionExists, c.describe(conn))
	}
	c.connections = append(c.connections, conn)
	return nil
}

// Disconnect removes the edge matching all five arguments.
func (c *Chain) Disconnect(pull, push component.Component, feedback bool, typeMask media.Type, subtypeMask media.Subtype) error {
	if pull == nil || push == nil {
		return ErrNilComponent
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	pi, ok := c.index[pull]
	if !ok {
		return ErrConnectionNotFound
	}
	qi, ok := c.index[push]
	if !ok {
		return ErrConnectionNotFound
	}
	i := c.find(connection{pull: pi, push: qi, feedback: feedback, typeMask: typeMask, subtypeMask: subtypeMask})
	if i < 0 {
		return ErrConnectionNotFound
	}
	c.connections = append(c.connections[:i], c.connections[i+1:]...)
	return nil
}

// ClearChain drops every connection, the start component and the component
// registry. It is only allowed while the chain is stopped.
func (c *Chain) ClearChain() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.run != nil {
		return ErrAlreadyRunning
	}
	c.components = nil
	c.index = make(map[component.Component]int)
	c.connections = nil
	c.start = -1
	return nil
}

// Validate builds the current graph without running it.
func (c *Chain) Validate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.build()
	return err
}

// register returns the arena index of comp, adding it if needed.
// Callers hold c.mu.
func (c *Chain) register(comp component.Component) int {
	if i, ok := c.index[comp]; ok {
		return i
	}
	c.components = append(c.components, comp)
	i := len(c.components) - 1
	c.index[comp] = i
	return i
}

func (c *Chain) find(conn connection) int {
	for i, existing := range c.connections {
		if existing == conn {
			return i
		}
	}
	return -1
}

func (c *Chain) describe(conn connection) string {
	arrow := "->"
	if conn.feedback {
		arrow = "=>"
	}
	return fmt.Sprintf("%s %s %s", c.components[conn.pull].Name(), arrow, c.components[conn.push].Name())
}
