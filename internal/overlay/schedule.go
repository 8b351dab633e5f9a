package overlay

import (
	"math"

	"captionsync/internal/captions"
)

// Span is the inclusive frame range during which a cue is on screen.
type Span struct {
	Cue   captions.Cue `json:"cue"`
	First int          `json:"first_frame"`
	Last  int          `json:"last_frame"`
}

// Frames returns the number of frames covered by the span.
func (s Span) Frames() int {
	return s.Last - s.First + 1
}

// Schedule converts a track into frame spans that agree with Resolve for every
// frame. A frame on a shared boundary belongs to the earlier cue, and cues too
// short to cover any frame are omitted.
func Schedule(track captions.Track, fps int) []Span {
	if fps <= 0 || track.IsEmpty() {
		return nil
	}
	spans := make([]Span, 0, track.Len())
	claimed := -1
	for i := 0; i < track.Len(); i++ {
		cue := track.Cue(i)
		first := max(firstFrameAtOrAfter(cue.Start, fps), claimed+1)
		last := lastFrameAtOrBefore(cue.End, fps)
		if first > last {
			continue
		}
		spans = append(spans, Span{Cue: cue, First: first, Last: last})
		claimed = last
	}
	return spans
}

// firstFrameAtOrAfter finds the smallest frame whose time is >= seconds,
// correcting float error with the same FrameTime comparison Resolve uses.
func firstFrameAtOrAfter(seconds float64, fps int) int {
	f := max(int(math.Ceil(seconds*float64(fps))), 0)
	for f > 0 && captions.FrameTime(f-1, fps) >= seconds {
		f--
	}
	for captions.FrameTime(f, fps) < seconds {
		f++
	}
	return f
}

// lastFrameAtOrBefore finds the largest frame whose time is <= seconds.
func lastFrameAtOrBefore(seconds float64, fps int) int {
	f := int(math.Floor(seconds * float64(fps)))
	for captions.FrameTime(f+1, fps) <= seconds {
		f++
	}
	for f >= 0 && captions.FrameTime(f, fps) > seconds {
		f--
	}
	return f
}
