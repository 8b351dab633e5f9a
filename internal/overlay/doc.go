// Package overlay decides which caption is on screen for a given video frame.
//
// Resolve is a stateless binary search. Cursor serves the common rendering
// pattern of non-decreasing frame queries in amortized constant time and must
// be owned by a single session. Schedule expands a track into per-cue frame
// spans for exporters that burn captions frame by frame.
package overlay
