package chain

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vk/mediachain/internal/component"
	"github.com/vk/mediachain/internal/media"
	"github.com/vk/mediachain/internal/metrics"
)

// DefaultStopTimeout bounds how long Stop waits for the worker.
const DefaultStopTimeout = 5 * time.Second

// Options configures a Chain.
type Options struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	// StopTimeout is how long Stop waits before abandoning the worker.
	StopTimeout time.Duration
	// OnWorkerExit is called once when a worker terminates, cleanly or not.
	// It runs on the worker goroutine without any chain lock held.
	OnWorkerExit func(ExitInfo)
	// Context is the parent of every run context. Canceling it stops the
	// worker after the current step.
	Context context.Context
}

// Chain is a directed graph of components together with the worker that
// executes it. Components are referenced by index into an arena that only
// grows, so connections never hold a stale reference.
type Chain struct {
	name string
	opts Options

	// mu guards the registration state and the current run.
	mu          sync.Mutex
	components  []component.Component
	index       map[component.Component]int
	connections []connection
	start       int
	run         *run
	// builds numbers plans so that an older rebuild never replaces a newer one.
	builds int64

	iteration atomic.Int64
}

// connection is an edge stored as arena indices.
type connection struct {
	pull        int
	push        int
	feedback    bool
	typeMask    media.Type
	subtypeMask media.Subtype
}

// plan is the result of a build: the ordered connections and the feedback
// subchains, each listed from its most downstream component to its head.
type plan struct {
	gen        int64
	start      int
	order      []connection
	feedback   [][]int
	components []component.Component
}

// run is the state of one worker lifetime. It is also the component.Chain
// view handed to components.
type run struct {
	chain  *Chain
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	stop   atomic.Bool

	// loopMu is the structural lock held for the duration of an iteration.
	// It belongs to the run so that an abandoned worker cannot block the
	// next one.
	loopMu sync.Mutex
	plan   *plan
}

func (r *run) Name() string             { return r.chain.name }
func (r *run) Context() context.Context { return r.ctx }
