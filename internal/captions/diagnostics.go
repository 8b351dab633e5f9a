package captions

import "sort"

// Reason names why a cue was dropped or altered during a build.
type Reason string

const (
	ReasonInvalidTimestamp    Reason = "invalid_timestamp"
	ReasonMissingText         Reason = "missing_text"
	ReasonNonPositiveDuration Reason = "non_positive_duration"
	ReasonOverlapClipped      Reason = "overlap_clipped"
	ReasonClippedToEmpty      Reason = "clipped_to_empty"
	ReasonMissingSignature    Reason = "missing_signature"
)

// Dropping reports whether the reason removes the cue from the track.
func (r Reason) Dropping() bool {
	switch r {
	case ReasonOverlapClipped, ReasonMissingSignature:
		return false
	default:
		return true
	}
}

// Entry describes one recovered problem. Index is the 1-based position of the
// cue in the source payload (0 for payload-level entries).
type Entry struct {
	Index  int     `json:"index"`
	Reason Reason  `json:"reason"`
	Start  float64 `json:"start"`
	End    float64 `json:"end"`
	Text   string  `json:"text,omitempty"`
	Detail string  `json:"detail,omitempty"`
}

// Diagnostics lists the entries recorded by one build, in the order they occurred.
type Diagnostics struct {
	Entries []Entry `json:"entries"`
}

func (d *Diagnostics) add(entry Entry) {
	d.Entries = append(d.Entries, entry)
}

// Empty reports whether nothing was recorded.
func (d Diagnostics) Empty() bool {
	return len(d.Entries) == 0
}

// Count returns how many entries carry the given reason.
func (d Diagnostics) Count(reason Reason) int {
	n := 0
	for _, e := range d.Entries {
		if e.Reason == reason {
			n++
		}
	}
	return n
}

// Dropped returns the number of cues removed from the track.
func (d Diagnostics) Dropped() int {
	n := 0
	for _, e := range d.Entries {
		if e.Reason.Dropping() {
			n++
		}
	}
	return n
}

// Clipped returns the number of cues whose end was shortened and kept.
func (d Diagnostics) Clipped() int {
	return d.Count(ReasonOverlapClipped)
}

// Summary returns entry counts keyed by reason.
func (d Diagnostics) Summary() map[string]int {
	out := make(map[string]int)
	for _, e := range d.Entries {
		out[string(e.Reason)]++
	}
	return out
}

// reasons returns the distinct reasons in lexical order.
func (d Diagnostics) reasons() []string {
	summary := d.Summary()
	keys := make([]string, 0, len(summary))
	for k := range summary {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
