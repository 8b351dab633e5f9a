// Package captions turns raw timed-text payloads into validated caption tracks.
//
// A Track is an immutable, start-ordered sequence of non-overlapping cues. The
// only way to obtain a non-empty Track is through the Builder (or Normalize),
// so any Track value can be handed to the frame resolver without re-checking.
//
// Two payload shapes are accepted: WebVTT/SRT-style timed text and structured
// segment lists ({start, end, text} in seconds) such as whisper-style JSON.
// Per-cue problems never fail a build; they are dropped or clipped and reported
// through Diagnostics. Only a payload with no usable structure in strict mode
// yields a MalformedTrackError.
package captions
