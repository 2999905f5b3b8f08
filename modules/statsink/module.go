// Package statsink provides the "statsink" component kind: a terminal
// component that counts what reaches it and logs a summary every so often.
// It can also act as the playback clock of a feedback subchain, consuming
// stream time at a fixed rate the way a playback device would.
package statsink

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/vk/mediachain/internal/component"
	"github.com/vk/mediachain/internal/media"
	"github.com/vk/mediachain/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Args defines the arguments of a `component "statsink"` block.
type Args struct {
	// LogEvery is the number of iterations between summaries; 0 disables them.
	LogEvery int `cty:"log_every"`
	// ClockMS, when positive, makes the sink publish a playback time in its
	// feedback subchain that starts at zero and advances by ClockMS on every
	// pass.
	ClockMS  int `cty:"clock_ms"`
}

// Stats is a snapshot of what a sink has received.
type Stats struct {
	Messages int64
	// ByType counts messages per type name.
	ByType   map[string]int64
	// Sources lists the source ids seen, ascending.
	Sources  []uint64
	Newest   time.Duration
	HasMedia bool
}

// Sink counts every message pushed into it. It never produces output.
type Sink struct {
	*component.Base
	logger   *slog.Logger
	logEvery int64
	clock    time.Duration
	passes   int64

	mu        sync.Mutex
	messages  int64
	byType    map[string]int64
	sources   map[uint64]struct{}
	newest    time.Duration
	hasMedia  bool
	lastIter  int64
	lastLogAt int64
}

// NewSink creates a sink. A nil logger means slog.Default(); a zero clock
// disables the playback clock.
func NewSink(name string, logger *slog.Logger, logEvery int, clock time.Duration) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{
		Base:     component.NewBase(name),
		logger:   logger.With("component", name),
		logEvery: int64(logEvery),
		clock:    clock,
		byType:   make(map[string]int64),
		sources:  make(map[uint64]struct{}),
	}
}

// Push records msg.
func (s *Sink) Push(c component.Chain, iteration int64, msg media.Message) error {
	s.mu.Lock()
	s.messages++
	s.byType[msg.Type().String()]++
	if mm, ok := msg.(media.MediaMessage); ok {
		s.sources[mm.SourceID()] = struct{}{}
		if !s.hasMedia || mm.Timestamp() > s.newest {
			s.newest = mm.Timestamp()
		}
		s.hasMedia = true
	}
	s.lastIter = iteration
	due := s.logEvery > 0 && iteration-s.lastLogAt >= s.logEvery
	if due {
		s.lastLogAt = iteration
	}
	s.mu.Unlock()

	if due {
		st := s.Stats()
		s.logger.Info("Sink summary", "chain", chainName(c), "iteration", iteration,
			"messages", st.Messages, "sources", len(st.Sources), "newest", st.Newest)
	}
	return nil
}

// Pull never yields anything.
func (s *Sink) Pull(component.Chain, int64) (media.Message, error) { return nil, nil }

// ProcessFeedback publishes the playback time when the sink is a clock.
func (s *Sink) ProcessFeedback(_ component.Chain, _ int64, fb *component.Feedback) error {
	if s.clock <= 0 {
		return nil
	}
	if err := fb.SetPlaybackTime(time.Duration(s.passes) * s.clock); err != nil {
		return s.Fail(err)
	}
	s.passes++
	return nil
}

// Stats returns a snapshot of the counters. It is safe to call while the
// chain is running.
func (s *Sink) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Stats{
		Messages: s.messages,
		ByType:   make(map[string]int64, len(s.byType)),
		Newest:   s.newest,
		HasMedia: s.hasMedia,
	}
	for k, v := range s.byType {
		st.ByType[k] = v
	}
	for id := range s.sources {
		st.Sources = append(st.Sources, id)
	}
	sort.Slice(st.Sources, func(i, j int) bool { return st.Sources[i] < st.Sources[j] })
	return st
}

func chainName(c component.Chain) string {
	if c == nil {
		return ""
	}
	return c.Name()
}

// New creates a sink from its arguments.
func New(_ context.Context, name string, raw any, deps registry.Deps) (component.Component, error) {
	args := raw.(*Args)
	return NewSink(name, deps.Logger, args.LogEvery, time.Duration(args.ClockMS)*time.Millisecond), nil
}

// Register registers the statsink kind with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterComponent("statsink", &registry.RegisteredComponent{
		NewArgs:     func() any { return &Args{LogEvery: 50} },
		New:         New,
		Description: "counts received messages and logs a periodic summary",
	})
}
