package captions

import "fmt"

// Cue is one timed caption entry. Times are seconds from the start of the video.
type Cue struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Duration returns End - Start.
func (c Cue) Duration() float64 {
	return c.End - c.Start
}

// Contains reports whether t falls inside the cue. The end bound is inclusive.
func (c Cue) Contains(t float64) bool {
	return t >= c.Start && t <= c.End
}

// Track is a sorted, non-overlapping sequence of cues. The zero value is an
// empty track.
type Track struct {
	cues []Cue
}

// Len returns the number of cues.
func (t Track) Len() int {
	return len(t.cues)
}

// IsEmpty reports whether the track has no cues.
func (t Track) IsEmpty() bool {
	return len(t.cues) == 0
}

// Cue returns the i-th cue. It panics when i is out of range, like a slice index.
func (t Track) Cue(i int) Cue {
	return t.cues[i]
}

// Cues returns a copy of the cues so callers cannot break the ordering.
func (t Track) Cues() []Cue {
	out := make([]Cue, len(t.cues))
	copy(out, t.cues)
	return out
}

// Duration returns the end time of the last cue, or zero for an empty track.
func (t Track) Duration() float64 {
	if len(t.cues) == 0 {
		return 0
	}
	return t.cues[len(t.cues)-1].End
}

// Validate checks the track invariants and returns the first violation found.
func (t Track) Validate() error {
	for i, cue := range t.cues {
		if cue.Start < 0 {
			return fmt.Errorf("cue %d: negative start %.3f", i, cue.Start)
		}
		if cue.End <= cue.Start {
			return fmt.Errorf("cue %d: end %.3f not after start %.3f", i, cue.End, cue.Start)
		}
		if cue.Text == "" {
			return fmt.Errorf("cue %d: empty text", i)
		}
		if i == 0 {
			continue
		}
		prev := t.cues[i-1]
		if cue.Start < prev.Start {
			return fmt.Errorf("cue %d: start %.3f before previous start %.3f", i, cue.Start, prev.Start)
		}
		if prev.End > cue.Start {
			return fmt.Errorf("cue %d: overlaps previous cue (%.3f > %.3f)", i, prev.End, cue.Start)
		}
	}
	return nil
}
