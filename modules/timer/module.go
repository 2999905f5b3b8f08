// Package timer provides the "timer" component kind, the usual start
// component of a chain. It paces iterations to a fixed interval and forwards
// one time signal per iteration to each component it is connected to.
package timer

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/mediachain/internal/component"
	"github.com/vk/mediachain/internal/media"
	"github.com/vk/mediachain/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Args defines the arguments of a `component "timer"` block.
type Args struct {
	IntervalMS int `cty:"interval_ms"`
}

// Timer blocks in Push until the next interval boundary.
type Timer struct {
	*component.Base
	interval time.Duration
	now      func() time.Time

	next          time.Time
	pending       bool
	handed        bool
	lastIteration int64
}

// NewTimer creates a timer firing every interval.
func NewTimer(name string, interval time.Duration) (*Timer, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("timer interval must be positive, got %s", interval)
	}
	return &Timer{Base: component.NewBase(name), interval: interval, now: time.Now}, nil
}

// Push waits for the next tick. The first iteration runs immediately. A timer
// that falls more than one interval behind restarts from the current time
// instead of firing a burst of iterations.
func (t *Timer) Push(c component.Chain, iteration int64, msg media.Message) error {
	if msg.Type() != media.TypeSystem || msg.Subtype() != media.SubtypeSystemIsTime {
		return t.Failf("timer only accepts the iteration signal, got %s", msg.Type())
	}

	now := t.now()
	if t.next.IsZero() || now.Sub(t.next) > t.interval {
		t.next = now
	}
	if wait := t.next.Sub(now); wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-c.Context().Done():
			timer.Stop()
			return c.Context().Err()
		}
	}
	t.next = t.next.Add(t.interval)
	t.pending = true
	t.handed = false
	t.lastIteration = iteration
	return nil
}

// Pull alternates between the time signal and nil within an iteration, so
// every outgoing connection, drained until nil, receives the signal once.
func (t *Timer) Pull(_ component.Chain, iteration int64) (media.Message, error) {
	if !t.pending || iteration != t.lastIteration {
		return nil, nil
	}
	t.handed = !t.handed
	if !t.handed {
		return nil, nil
	}
	return media.IterationBegin, nil
}

// New creates a timer from its arguments.
func New(_ context.Context, name string, raw any, _ registry.Deps) (component.Component, error) {
	args := raw.(*Args)
	return NewTimer(name, time.Duration(args.IntervalMS)*time.Millisecond)
}

// Register registers the timer kind with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterComponent("timer", &registry.RegisteredComponent{
		NewArgs:     func() any { return &Args{IntervalMS: 20} },
		New:         New,
		Description: "paces the chain and emits one time signal per iteration",
	})
}
