// Package mediabuffer provides a reorder buffer that holds media messages
// until the playback time published by a downstream mixer says they are due,
// then releases them in timestamp order.
package mediabuffer

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/vk/mediachain/internal/component"
	"github.com/vk/mediachain/internal/media"
	"github.com/vk/mediachain/internal/metrics"
)

var (
	ErrAlreadyInitialized = errors.New("buffer already initialized")
	ErrNotInitialized     = errors.New("buffer not initialized")
	ErrInvalidInterval    = errors.New("buffer interval must not be negative")
	ErrUnsupportedMessage = errors.New("unsupported message")
)

const acceptedTypes = media.TypeAudioRaw | media.TypeAudioEncoded | media.TypeVideoRaw | media.TypeVideoEncoded

// Options configures the ambient behavior of a buffer.
type Options struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Buffer is a component. It adds no delay of its own: a message is released
// as soon as its timestamp falls before the last known playback time plus
// the buffer interval.
type Buffer struct {
	*component.Base
	opts Options

	initialized bool
	interval    time.Duration

	pending []media.MediaMessage
	ready   []media.MediaMessage
	next    int

	playbackTime    time.Duration
	hasPlaybackTime bool
	lastIteration   int64
}

// New creates an uninitialized buffer called name.
func New(name string, optFns ...func(o *Options)) *Buffer {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	opts.Logger = opts.Logger.With("component", name)
	return &Buffer{Base: component.NewBase(name), opts: opts}
}

// Init sets the release window ahead of the playback time.
func (b *Buffer) Init(interval time.Duration) error {
	b.Lock()
	defer b.Unlock()

	if b.initialized {
		return b.Fail(ErrAlreadyInitialized)
	}
	if interval < 0 {
		return b.Fail(ErrInvalidInterval)
	}
	b.interval = interval
	b.initialized = true
	return nil
}

// Pending returns the number of stored messages not yet released.
func (b *Buffer) Pending() int {
	b.Lock()
	defer b.Unlock()
	return len(b.pending)
}

// Push stores a copy of msg. Until a playback time has been received through
// feedback, messages are dropped.
func (b *Buffer) Push(_ component.Chain, _ int64, msg media.Message) error {
	if !b.initialized {
		return b.Fail(ErrNotInitialized)
	}
	mm, ok := msg.(media.MediaMessage)
	if !ok || msg.Type()&acceptedTypes == 0 {
		return b.Failf("%w: %s", ErrUnsupportedMessage, msg.Type())
	}
	if !b.hasPlaybackTime {
		b.opts.Metrics.RecordBufferDrop(b.Name(), "no_playback_time")
		b.opts.Logger.Debug("Dropping message, no playback time yet.", "type", msg.Type(), "timestamp", mm.Timestamp())
		return nil
	}

	dup, err := mm.Duplicate()
	if err != nil {
		return b.Fail(fmt.Errorf("duplicating %s message: %w", msg.Type(), err))
	}
	b.pending = append(b.pending, dup)
	return nil
}

// Pull hands out the messages due in this iteration, oldest first.
func (b *Buffer) Pull(_ component.Chain, iteration int64) (media.Message, error) {
	if !b.initialized {
		return nil, b.Fail(ErrNotInitialized)
	}
	if iteration != b.lastIteration {
		b.lastIteration = iteration
		b.release()
	}
	if b.next >= len(b.ready) {
		return nil, nil
	}
	msg := b.ready[b.next]
	b.ready[b.next] = nil
	b.next++
	return msg, nil
}

// release drops what was handed out and moves every due pending message
// into the ready list at its sorted position.
func (b *Buffer) release() {
	b.ready = b.ready[b.next:]
	b.next = 0
	if !b.hasPlaybackTime {
		return
	}

	limit := b.playbackTime + b.interval
	kept := b.pending[:0]
	released := 0
	for _, msg := range b.pending {
		if msg.Timestamp() >= limit {
			kept = append(kept, msg)
			continue
		}
		ts := msg.Timestamp()
		i := sort.Search(len(b.ready), func(i int) bool { return b.ready[i].Timestamp() > ts })
		b.ready = append(b.ready, nil)
		copy(b.ready[i+1:], b.ready[i:])
		b.ready[i] = msg
		released++
	}
	clear(b.pending[len(kept):])
	b.pending = kept
	b.opts.Metrics.RecordBufferRelease(b.Name(), released, len(b.pending))
}

// ProcessFeedback records the playback time published in this subchain, if
// any.
func (b *Buffer) ProcessFeedback(_ component.Chain, _ int64, fb *component.Feedback) error {
	if !b.initialized {
		return b.Fail(ErrNotInitialized)
	}
	if t, ok := fb.PlaybackTime(); ok {
		b.playbackTime = t
		b.hasPlaybackTime = true
	}
	return nil
}
