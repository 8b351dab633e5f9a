package captions

import (
	"errors"
	"fmt"
)

// ErrMalformedTrack matches every MalformedTrackError via errors.Is.
var ErrMalformedTrack = errors.New("malformed caption track")

// MalformedTrackError reports a payload that cannot produce a track at all.
type MalformedTrackError struct {
	// Reason is a short machine-friendly cause such as "missing_signature".
	Reason string
	// Index is the 1-based cue position that triggered the failure, or 0.
	Index int
	Err   error
}

func (e *MalformedTrackError) Error() string {
	msg := ErrMalformedTrack.Error() + ": " + e.Reason
	if e.Index > 0 {
		msg += fmt.Sprintf(" (cue %d)", e.Index)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedTrackError) Unwrap() error {
	return e.Err
}

func (e *MalformedTrackError) Is(target error) bool {
	return target == ErrMalformedTrack
}
