package media

import (
	"fmt"
	"time"
)

// RawAudio carries uncompressed interleaved samples. Exactly one of the sample
// slices is in use, selected by the subtype.
type RawAudio struct {
	Header
	subtype    Subtype
	SampleRate int
	Channels   int
	Frames     int
	Float32    []float32
	S16        []int16
}

// NewRawAudioFloat32 wraps float samples. The frame count is derived from the
// sample count and channel count.
func NewRawAudioFloat32(sampleRate, channels int, samples []float32, source uint64, ts time.Duration) *RawAudio {
	return &RawAudio{
		Header:     Header{Source: source, Time: ts},
		subtype:    SubtypeAudioFloat32,
		SampleRate: sampleRate,
		Channels:   channels,
		Frames:     frames(len(samples), channels),
		Float32:    samples,
	}
}

// NewRawAudioS16 wraps signed 16-bit samples.
func NewRawAudioS16(sampleRate, channels int, samples []int16, source uint64, ts time.Duration) *RawAudio {
	return &RawAudio{
		Header:     Header{Source: source, Time: ts},
		subtype:    SubtypeAudioS16,
		SampleRate: sampleRate,
		Channels:   channels,
		Frames:     frames(len(samples), channels),
		S16:        samples,
	}
}

func frames(samples, channels int) int {
	if channels <= 0 {
		return 0
	}
	return samples / channels
}

func (a *RawAudio) Type() Type       { return TypeAudioRaw }
func (a *RawAudio) Subtype() Subtype { return a.subtype }

// Samples returns the number of interleaved samples held.
func (a *RawAudio) Samples() int {
	if a.subtype == SubtypeAudioFloat32 {
		return len(a.Float32)
	}
	return len(a.S16)
}

// Duration is the stream time covered by the message.
func (a *RawAudio) Duration() time.Duration {
	if a.SampleRate <= 0 {
		return 0
	}
	return time.Duration(a.Frames) * time.Second / time.Duration(a.SampleRate)
}

func (a *RawAudio) Duplicate() (MediaMessage, error) {
	cp := *a
	if a.Float32 != nil {
		cp.Float32 = append([]float32(nil), a.Float32...)
	}
	if a.S16 != nil {
		cp.S16 = append([]int16(nil), a.S16...)
	}
	return &cp, nil
}

func (a *RawAudio) String() string {
	return fmt.Sprintf("raw audio %s %dHz x%d, %d frames @%s", subtypeLabel(a.subtype), a.SampleRate, a.Channels, a.Frames, a.Time)
}

func subtypeLabel(s Subtype) string {
	if s == SubtypeAudioFloat32 {
		return "float32"
	}
	return "s16"
}

// EncodedAudio is a compressed audio frame. The payload is opaque to the chain.
type EncodedAudio struct {
	Header
	subtype    Subtype
	SampleRate int
	Frames     int
	Data       []byte
}

// NewEncodedAudio wraps a codec frame.
func NewEncodedAudio(codec Subtype, sampleRate, frames int, data []byte, source uint64, ts time.Duration) *EncodedAudio {
	return &EncodedAudio{
		Header:     Header{Source: source, Time: ts},
		subtype:    codec,
		SampleRate: sampleRate,
		Frames:     frames,
		Data:       data,
	}
}

func (e *EncodedAudio) Type() Type       { return TypeAudioEncoded }
func (e *EncodedAudio) Subtype() Subtype { return e.subtype }

func (e *EncodedAudio) Duplicate() (MediaMessage, error) {
	cp := *e
	cp.Data = append([]byte(nil), e.Data...)
	return &cp, nil
}
