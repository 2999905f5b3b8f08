package media

import (
	"fmt"
	"sort"
	"strings"
)

// Type is the coarse message kind. Values are single bits so they can be
// combined into connection masks.
type Type uint32

// Subtype refines a Type. Subtype values are bits as well; their meaning
// depends on the Type they accompany.
type Subtype uint32

const (
	TypeSystem       Type = 1 << 0
	TypeAudioRaw     Type = 1 << 1
	TypeAudioEncoded Type = 1 << 2
	TypeVideoRaw     Type = 1 << 3
	TypeVideoEncoded Type = 1 << 4

	TypeAll Type = 0xffffffff
)

// System subtypes.
const (
	SubtypeSystemIsTime   Subtype = 1 << 0
	SubtypeSystemWaitTime Subtype = 1 << 1
)

// Raw audio sample formats.
const (
	SubtypeAudioFloat32 Subtype = 1 << 0
	SubtypeAudioS16     Subtype = 1 << 1
)

// Audio codecs.
const (
	SubtypeAudioULaw  Subtype = 1 << 0
	SubtypeAudioALaw  Subtype = 1 << 1
	SubtypeAudioOpus  Subtype = 1 << 2
	SubtypeAudioSpeex Subtype = 1 << 3
	SubtypeAudioGSM   Subtype = 1 << 4
)

// Raw video pixel formats.
const (
	SubtypeVideoYUV420P Subtype = 1 << 0
	SubtypeVideoRGB24   Subtype = 1 << 1
)

// Video codecs.
const (
	SubtypeVideoH263 Subtype = 1 << 0
	SubtypeVideoH264 Subtype = 1 << 1
)

const SubtypeAll Subtype = 0xffffffff

var typeNames = map[string]Type{
	"system":        TypeSystem,
	"audio_raw":     TypeAudioRaw,
	"audio_encoded": TypeAudioEncoded,
	"video_raw":     TypeVideoRaw,
	"video_encoded": TypeVideoEncoded,
	"all":           TypeAll,
}

// Subtype names are looked up without regard to the type they belong to; the
// resulting bits are only meaningful inside a mask.
var subtypeNames = map[string]Subtype{
	"is_time":   SubtypeSystemIsTime,
	"wait_time": SubtypeSystemWaitTime,
	"float32":   SubtypeAudioFloat32,
	"s16":       SubtypeAudioS16,
	"ulaw":      SubtypeAudioULaw,
	"alaw":      SubtypeAudioALaw,
	"opus":      SubtypeAudioOpus,
	"speex":     SubtypeAudioSpeex,
	"gsm":       SubtypeAudioGSM,
	"yuv420p":   SubtypeVideoYUV420P,
	"rgb24":     SubtypeVideoRGB24,
	"h263":      SubtypeVideoH263,
	"h264":      SubtypeVideoH264,
	"all":       SubtypeAll,
}

// String returns the configuration name of a single-bit type.
func (t Type) String() string {
	for name, v := range typeNames {
		if v == t {
			return name
		}
	}
	return fmt.Sprintf("type(0x%x)", uint32(t))
}

// ParseTypeMask ORs the named types together. An empty list yields TypeAll.
func ParseTypeMask(names []string) (Type, error) {
	if len(names) == 0 {
		return TypeAll, nil
	}
	var mask Type
	for _, n := range names {
		v, ok := typeNames[strings.ToLower(strings.TrimSpace(n))]
		if !ok {
			return 0, fmt.Errorf("unknown message type %q (known: %s)", n, knownNames(typeNames))
		}
		mask |= v
	}
	return mask, nil
}

// ParseSubtypeMask ORs the named subtypes together. An empty list yields SubtypeAll.
func ParseSubtypeMask(names []string) (Subtype, error) {
	if len(names) == 0 {
		return SubtypeAll, nil
	}
	var mask Subtype
	for _, n := range names {
		v, ok := subtypeNames[strings.ToLower(strings.TrimSpace(n))]
		if !ok {
			return 0, fmt.Errorf("unknown message subtype %q (known: %s)", n, knownNames(subtypeNames))
		}
		mask |= v
	}
	return mask, nil
}

func knownNames[T any](m map[string]T) string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
