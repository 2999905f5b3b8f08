package component

import (
	"errors"
	"time"
)

// ErrPlaybackTimeSet is returned when a second component tries to publish a
// playback time during one feedback subchain pass.
var ErrPlaybackTimeSet = errors.New("playback time already set in this feedback subchain")

// Feedback is the scratch record passed along one feedback subchain. It is
// reset at every subchain boundary.
type Feedback struct {
	playbackTime    time.Duration
	hasPlaybackTime bool
	playbackDelay   time.Duration
}

// Reset clears the record for a new subchain pass.
func (f *Feedback) Reset() {
	*f = Feedback{}
}

// PlaybackTime returns the published playback time, if any.
func (f *Feedback) PlaybackTime() (time.Duration, bool) {
	return f.playbackTime, f.hasPlaybackTime
}

// SetPlaybackTime publishes t. Only one publication is allowed per pass.
func (f *Feedback) SetPlaybackTime(t time.Duration) error {
	if f.hasPlaybackTime {
		return ErrPlaybackTimeSet
	}
	f.playbackTime = t
	f.hasPlaybackTime = true
	return nil
}

// AddPlaybackDelay accumulates delay introduced along the subchain.
func (f *Feedback) AddPlaybackDelay(d time.Duration) {
	f.playbackDelay += d
}

// PlaybackDelay is the cumulative delay reported so far.
func (f *Feedback) PlaybackDelay() time.Duration {
	return f.playbackDelay
}
