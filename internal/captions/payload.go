package captions

// PayloadKind tags which shape a Payload carries.
type PayloadKind int

const (
	// PayloadEmpty is the zero Payload; it builds an empty track.
	PayloadEmpty PayloadKind = iota
	// PayloadText carries WebVTT or SRT-style timed text.
	PayloadText
	// PayloadSegments carries numeric segment records.
	PayloadSegments
)

func (k PayloadKind) String() string {
	switch k {
	case PayloadText:
		return "text"
	case PayloadSegments:
		return "segments"
	default:
		return "empty"
	}
}

// Segment is one structured transcription record with times in seconds.
type Segment struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
	Text  string  `json:"text" yaml:"text"`
}

// Payload is the builder input: exactly one of timed text or segments.
type Payload struct {
	kind     PayloadKind
	text     string
	segments []Segment
}

// TextPayload wraps a raw timed-text document.
func TextPayload(raw string) Payload {
	return Payload{kind: PayloadText, text: raw}
}

// SegmentPayload wraps already-numeric segment records.
func SegmentPayload(segments []Segment) Payload {
	cp := make([]Segment, len(segments))
	copy(cp, segments)
	return Payload{kind: PayloadSegments, segments: cp}
}

// Kind returns the payload shape.
func (p Payload) Kind() PayloadKind {
	return p.kind
}

// Text returns the raw document when the payload is text.
func (p Payload) Text() (string, bool) {
	return p.text, p.kind == PayloadText
}

// Segments returns the records when the payload is a segment list.
func (p Payload) Segments() ([]Segment, bool) {
	return p.segments, p.kind == PayloadSegments
}
