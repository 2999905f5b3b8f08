package media

import (
	"errors"
	"time"
)

// ErrDuplicateUnsupported is returned by Duplicate for message kinds that
// cannot be copied.
var ErrDuplicateUnsupported = errors.New("message duplication not supported")

// Message is anything a component can push or pull.
type Message interface {
	Type() Type
	Subtype() Subtype
}

// MediaMessage is a Message that belongs to a stream: it knows which source
// produced it and the stream time it refers to.
type MediaMessage interface {
	Message
	SourceID() uint64
	Timestamp() time.Duration
	SetTimestamp(t time.Duration)
	// Duplicate returns an independent deep copy.
	Duplicate() (MediaMessage, error)
}

// Matches reports whether m passes a connection filter.
func Matches(m Message, typeMask Type, subtypeMask Subtype) bool {
	return m.Type()&typeMask != 0 && m.Subtype()&subtypeMask != 0
}

// System is a control message generated by the chain itself.
type System struct {
	subtype Subtype
}

// IterationBegin is pushed into the start component once per iteration.
var IterationBegin = &System{subtype: SubtypeSystemIsTime}

// NewSystem creates a system message of the given subtype.
func NewSystem(subtype Subtype) *System {
	return &System{subtype: subtype}
}

func (s *System) Type() Type       { return TypeSystem }
func (s *System) Subtype() Subtype { return s.subtype }

// Header holds the fields shared by every media message. It is embedded by
// the concrete kinds.
type Header struct {
	Source uint64
	Time   time.Duration
}

func (h *Header) SourceID() uint64             { return h.Source }
func (h *Header) Timestamp() time.Duration     { return h.Time }
func (h *Header) SetTimestamp(t time.Duration) { h.Time = t }
