package overlay

import "captionsync/internal/captions"

// maxLinearSteps bounds the forward scan before falling back to binary search.
const maxLinearSteps = 4

// Cursor resolves frames for one playback or export session. Successive calls
// with non-decreasing frames cost O(1) amortized; a backward seek repositions
// with a binary search. A Cursor is not safe for concurrent use.
type Cursor struct {
	track     captions.Track
	fps       int
	pos       int
	lastFrame int
	primed    bool
}

// NewCursor returns a cursor over track at the given frame rate.
func NewCursor(track captions.Track, fps int) *Cursor {
	return &Cursor{track: track, fps: fps}
}

// FPS returns the frame rate the cursor was created with.
func (c *Cursor) FPS() int {
	return c.fps
}

// Reset forgets the current position.
func (c *Cursor) Reset() {
	c.pos = 0
	c.lastFrame = 0
	c.primed = false
}

// Resolve returns the cue active at frame. Results match the package-level Resolve.
func (c *Cursor) Resolve(frame int) (captions.Cue, bool) {
	if frame < 0 || c.fps <= 0 || c.track.IsEmpty() {
		return captions.Cue{}, false
	}
	t := captions.FrameTime(frame, c.fps)

	if !c.primed || frame < c.lastFrame {
		c.pos = search(c.track, t)
	} else {
		steps := 0
		for c.pos < c.track.Len() && c.track.Cue(c.pos).End < t {
			if steps == maxLinearSteps {
				c.pos = search(c.track, t)
				break
			}
			c.pos++
			steps++
		}
	}
	c.lastFrame = frame
	c.primed = true
	return at(c.track, c.pos, t)
}
