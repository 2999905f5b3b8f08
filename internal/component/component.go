package component

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vk/mediachain/internal/media"
)

// ErrNotImplemented is returned by the Base defaults for operations a
// component does not support.
var ErrNotImplemented = errors.New("operation not implemented")

// Chain is the view of the running chain a component receives on every call.
type Chain interface {
	Name() string
	// Context is canceled when the chain is force-stopped. Components that
	// block inside Push or Pull should give up when it is done.
	Context() context.Context
}

// Component is a processing node. The scheduler locks a component around
// every Push, Pull and ProcessFeedback call; implementations therefore need
// no locking of their own for state touched only by those calls.
type Component interface {
	Name() string
	LastError() string

	Lock()
	Unlock()

	// Push hands a message to the component.
	Push(c Chain, iteration int64, msg media.Message) error
	// Pull returns the next message for this iteration, or nil once there
	// are no more.
	Pull(c Chain, iteration int64) (media.Message, error)
	// ProcessFeedback is called once per feedback subchain pass the
	// component belongs to.
	ProcessFeedback(c Chain, subchainID int64, fb *Feedback) error
}

// Base implements the identity, locking and error bookkeeping of a
// Component. Embed a *Base and override the operations you need.
type Base struct {
	name string
	mu   sync.Mutex

	errMu   sync.Mutex
	lastErr string
}

// NewBase creates the shared state for a component called name.
func NewBase(name string) *Base {
	return &Base{name: name}
}

func (b *Base) Name() string { return b.name }

func (b *Base) Lock()   { b.mu.Lock() }
func (b *Base) Unlock() { b.mu.Unlock() }

// LastError returns the description of the most recent failure.
func (b *Base) LastError() string {
	b.errMu.Lock()
	defer b.errMu.Unlock()
	return b.lastErr
}

// Fail records err as the last error and returns it unchanged so it can be
// used in a return statement.
func (b *Base) Fail(err error) error {
	if err == nil {
		return nil
	}
	b.errMu.Lock()
	b.lastErr = err.Error()
	b.errMu.Unlock()
	return err
}

// Failf is Fail with fmt.Errorf semantics.
func (b *Base) Failf(format string, args ...any) error {
	return b.Fail(fmt.Errorf(format, args...))
}

func (b *Base) Push(Chain, int64, media.Message) error {
	return b.Fail(fmt.Errorf("push: %w", ErrNotImplemented))
}

func (b *Base) Pull(Chain, int64) (media.Message, error) {
	return nil, b.Fail(fmt.Errorf("pull: %w", ErrNotImplemented))
}

func (b *Base) ProcessFeedback(Chain, int64, *Feedback) error {
	return b.Fail(fmt.Errorf("feedback: %w", ErrNotImplemented))
}
