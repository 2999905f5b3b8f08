// Package mixer provides AudioMixer, a component that merges any number of
// independently timed raw audio streams into one stream of fixed-duration
// blocks.
//
// Incoming samples are summed into the block, or blocks, that their
// timestamp maps to relative to the mixer's playback time. Every iteration
// the mixer emits exactly one block: the pending block for the current
// interval, or silence when nothing arrived for it. During the feedback pass
// it publishes its playback time so that upstream buffers know what "now"
// means for the output.
package mixer
