package overlay

import "captionsync/internal/captions"

// Frame is what the renderer needs for one frame.
type Frame struct {
	Index  int           `json:"frame"`
	Time   float64       `json:"time"`
	Active bool          `json:"active"`
	Cue    *captions.Cue `json:"cue,omitempty"`
	Style  Style         `json:"style"`
}

// Session pairs a track with a style and a private cursor. Create one per
// rendering worker.
type Session struct {
	cursor *Cursor
	style  Style
}

// NewSession returns a session rendering track at fps in the given style.
func NewSession(track captions.Track, fps int, style Style) *Session {
	if style == "" {
		style = DefaultStyle
	}
	return &Session{cursor: NewCursor(track, fps), style: style}
}

// Style returns the session's presentation style.
func (s *Session) Style() Style {
	return s.style
}

// At resolves a single frame.
func (s *Session) At(frame int) Frame {
	out := Frame{Index: frame, Time: captions.FrameTime(frame, s.cursor.FPS()), Style: s.style}
	if cue, ok := s.cursor.Resolve(frame); ok {
		out.Active = true
		out.Cue = &cue
	}
	return out
}

// MaxRangeFrames bounds how many frames one resolve request or command may ask for.
const MaxRangeFrames = 100_000

// Range resolves every frame in [from, to]. Callers cap the span at MaxRangeFrames.
func (s *Session) Range(from, to int) []Frame {
	if to < from {
		return nil
	}
	out := make([]Frame, 0, to-from+1)
	for frame := from; frame <= to; frame++ {
		out = append(out, s.At(frame))
	}
	return out
}
