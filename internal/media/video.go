package media

import "time"

// RawVideo is an uncompressed picture.
type RawVideo struct {
	Header
	subtype Subtype
	Width   int
	Height  int
	Data    []byte
}

// NewRawVideo wraps pixel data in the given format.
func NewRawVideo(format Subtype, width, height int, data []byte, source uint64, ts time.Duration) *RawVideo {
	return &RawVideo{
		Header:  Header{Source: source, Time: ts},
		subtype: format,
		Width:   width,
		Height:  height,
		Data:    data,
	}
}

func (v *RawVideo) Type() Type       { return TypeVideoRaw }
func (v *RawVideo) Subtype() Subtype { return v.subtype }

func (v *RawVideo) Duplicate() (MediaMessage, error) {
	cp := *v
	cp.Data = append([]byte(nil), v.Data...)
	return &cp, nil
}

// EncodedVideo is a compressed video frame.
type EncodedVideo struct {
	Header
	subtype  Subtype
	Width    int
	Height   int
	KeyFrame bool
	Data     []byte
}

// NewEncodedVideo wraps a codec frame.
func NewEncodedVideo(codec Subtype, width, height int, keyFrame bool, data []byte, source uint64, ts time.Duration) *EncodedVideo {
	return &EncodedVideo{
		Header:   Header{Source: source, Time: ts},
		subtype:  codec,
		Width:    width,
		Height:   height,
		KeyFrame: keyFrame,
		Data:     data,
	}
}

func (v *EncodedVideo) Type() Type       { return TypeVideoEncoded }
func (v *EncodedVideo) Subtype() Subtype { return v.subtype }

func (v *EncodedVideo) Duplicate() (MediaMessage, error) {
	cp := *v
	cp.Data = append([]byte(nil), v.Data...)
	return &cp, nil
}
