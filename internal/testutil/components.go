package testutil

import (
	"sync"
	"time"

	"github.com/vk/mediachain/internal/component"
	"github.com/vk/mediachain/internal/media"
)

// Event is one call observed by a Recorder.
type Event struct {
	Component string
	Op        string
	Iteration int64
	Subchain  int64
	Message   media.Message
}

// Journal collects events from several components in call order.
type Journal struct {
	mu     sync.Mutex
	events []Event
}

func (j *Journal) add(e Event) {
	if j == nil {
		return
	}
	j.mu.Lock()
	j.events = append(j.events, e)
	j.mu.Unlock()
}

// Events returns a copy of everything recorded so far.
func (j *Journal) Events() []Event {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]Event(nil), j.events...)
}

// Ops returns "name:op" for every recorded event, optionally only those of
// the given op.
func (j *Journal) Ops(only string) []string {
	var out []string
	for _, e := range j.Events() {
		if only != "" && e.Op != only {
			continue
		}
		out = append(out, e.Component+":"+e.Op)
	}
	return out
}

// Source emits a fixed list of messages in the first iteration and nothing
// afterwards. Set Repeat to emit them every iteration.
type Source struct {
	*component.Base
	Messages []media.Message
	Repeat   bool
	Journal  *Journal

	pending []media.Message
	emitted bool
}

// NewSource creates a Source named name.
func NewSource(name string, msgs ...media.Message) *Source {
	return &Source{Base: component.NewBase(name), Messages: msgs}
}

func (s *Source) Push(_ component.Chain, iteration int64, msg media.Message) error {
	s.Journal.add(Event{Component: s.Name(), Op: "push", Iteration: iteration, Message: msg})
	if msg != media.IterationBegin {
		return s.Failf("unexpected message %v", msg.Type())
	}
	if s.emitted && !s.Repeat {
		return nil
	}
	s.emitted = true
	s.pending = append([]media.Message(nil), s.Messages...)
	return nil
}

func (s *Source) Pull(_ component.Chain, iteration int64) (media.Message, error) {
	if len(s.pending) == 0 {
		return nil, nil
	}
	msg := s.pending[0]
	s.pending = s.pending[1:]
	s.Journal.add(Event{Component: s.Name(), Op: "pull", Iteration: iteration, Message: msg})
	return msg, nil
}

func (s *Source) ProcessFeedback(_ component.Chain, id int64, _ *component.Feedback) error {
	s.Journal.add(Event{Component: s.Name(), Op: "feedback", Subchain: id})
	return nil
}

// Relay forwards everything it receives in the same iteration and records
// it. It can be used as a middle or a terminal component.
type Relay struct {
	*component.Base
	Journal *Journal
	// PlaybackTime, when set, is published during feedback.
	PlaybackTime *time.Duration

	mu       sync.Mutex
	received []media.Message
	queue    []media.Message
	feedback []FeedbackCall
}

// FeedbackCall is one ProcessFeedback invocation seen by a Relay.
type FeedbackCall struct {
	Subchain     int64
	PlaybackTime time.Duration
	HasPlayback  bool
	Delay        time.Duration
}

// NewRelay creates a Relay named name.
func NewRelay(name string, j *Journal) *Relay {
	return &Relay{Base: component.NewBase(name), Journal: j}
}

func (r *Relay) Push(_ component.Chain, iteration int64, msg media.Message) error {
	r.Journal.add(Event{Component: r.Name(), Op: "push", Iteration: iteration, Message: msg})
	r.mu.Lock()
	r.received = append(r.received, msg)
	r.mu.Unlock()
	r.queue = append(r.queue, msg)
	return nil
}

func (r *Relay) Pull(_ component.Chain, iteration int64) (media.Message, error) {
	if len(r.queue) == 0 {
		return nil, nil
	}
	msg := r.queue[0]
	r.queue = r.queue[1:]
	r.Journal.add(Event{Component: r.Name(), Op: "pull", Iteration: iteration, Message: msg})
	return msg, nil
}

func (r *Relay) ProcessFeedback(_ component.Chain, id int64, fb *component.Feedback) error {
	r.Journal.add(Event{Component: r.Name(), Op: "feedback", Subchain: id})
	if r.PlaybackTime != nil {
		if err := fb.SetPlaybackTime(*r.PlaybackTime); err != nil {
			return r.Fail(err)
		}
	}
	t, ok := fb.PlaybackTime()
	r.mu.Lock()
	r.feedback = append(r.feedback, FeedbackCall{Subchain: id, PlaybackTime: t, HasPlayback: ok, Delay: fb.PlaybackDelay()})
	r.mu.Unlock()
	return nil
}

// Received returns every message pushed so far.
func (r *Relay) Received() []media.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]media.Message(nil), r.received...)
}

// FeedbackCalls returns every ProcessFeedback call seen so far.
func (r *Relay) FeedbackCalls() []FeedbackCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]FeedbackCall(nil), r.feedback...)
}

// Failing returns Err from the operation named by FailOn ("push", "pull" or
// "feedback"). Push and pull only fail from Iteration on. Other operations
// succeed and produce nothing.
type Failing struct {
	*component.Base
	FailOn    string
	Iteration int64
	Err       error
}

// NewFailing creates a Failing component.
func NewFailing(name, op string, iteration int64, err error) *Failing {
	return &Failing{Base: component.NewBase(name), FailOn: op, Iteration: iteration, Err: err}
}

func (f *Failing) fail(op string, iteration int64) error {
	if op == f.FailOn && iteration >= f.Iteration {
		return f.Fail(f.Err)
	}
	return nil
}

func (f *Failing) Push(_ component.Chain, iteration int64, _ media.Message) error {
	return f.fail("push", iteration)
}

func (f *Failing) Pull(_ component.Chain, iteration int64) (media.Message, error) {
	return nil, f.fail("pull", iteration)
}

func (f *Failing) ProcessFeedback(component.Chain, int64, *component.Feedback) error {
	if f.FailOn == "feedback" {
		return f.Fail(f.Err)
	}
	return nil
}

// Blocking never returns from Push until Release is closed. It ignores the
// chain context on purpose so that stop timeouts can be exercised.
type Blocking struct {
	*component.Base
	Entered chan struct{}
	Release chan struct{}
	once    sync.Once
}

// NewBlocking creates a Blocking component.
func NewBlocking(name string) *Blocking {
	return &Blocking{
		Base:    component.NewBase(name),
		Entered: make(chan struct{}),
		Release: make(chan struct{}),
	}
}

func (b *Blocking) Push(component.Chain, int64, media.Message) error {
	b.once.Do(func() { close(b.Entered) })
	<-b.Release
	return nil
}

func (b *Blocking) Pull(component.Chain, int64) (media.Message, error) {
	return nil, nil
}
