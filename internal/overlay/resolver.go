package overlay

import (
	"sort"

	"captionsync/internal/captions"
)

// Resolve returns the cue active at frame/fps. A cue's end is inclusive, so
// at a shared boundary the earlier cue wins. A negative frame or non-positive
// fps never matches.
func Resolve(track captions.Track, frame, fps int) (captions.Cue, bool) {
	if frame < 0 || fps <= 0 || track.IsEmpty() {
		return captions.Cue{}, false
	}
	t := captions.FrameTime(frame, fps)
	return at(track, search(track, t), t)
}

// search returns the index of the first cue whose end is not before t.
// Ends are non-decreasing because the track is sorted and non-overlapping.
func search(track captions.Track, t float64) int {
	return sort.Search(track.Len(), func(i int) bool {
		return track.Cue(i).End >= t
	})
}

func at(track captions.Track, i int, t float64) (captions.Cue, bool) {
	if i >= track.Len() {
		return captions.Cue{}, false
	}
	cue := track.Cue(i)
	if cue.Start > t {
		return captions.Cue{}, false
	}
	return cue, true
}
