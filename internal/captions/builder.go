package captions

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"captionsync/internal/logging"
)

// Options controls how strictly payloads are parsed.
type Options struct {
	// Strict fails the whole build on a bad timestamp or missing signature
	// instead of dropping the cue.
	Strict bool
	// RequireSignature expects text payloads to open with a WEBVTT line.
	RequireSignature bool
	// StripMarkup removes WebVTT cue tags and decodes character references.
	StripMarkup bool
	// SplitMaxWords and SplitWords cut long segment payload entries into
	// shorter cues (see SplitLongSegments). Zero leaves segments whole.
	SplitMaxWords int
	SplitWords    int
}

// DefaultOptions returns lenient parsing with signature checks and markup stripping.
func DefaultOptions() Options {
	return Options{RequireSignature: true, StripMarkup: true}
}

// Builder converts payloads into tracks. It holds no per-build state and is
// safe for concurrent use.
type Builder struct {
	opts   Options
	logger *slog.Logger
}

// NewBuilder returns a Builder. A nil logger disables build logging.
func NewBuilder(opts Options, logger *slog.Logger) *Builder {
	return &Builder{opts: opts, logger: logger}
}

// Options returns the builder configuration.
func (b *Builder) Options() Options {
	return b.opts
}

// BuildText is shorthand for Build(TextPayload(raw)).
func (b *Builder) BuildText(raw string) (Track, Diagnostics, error) {
	return b.Build(TextPayload(raw))
}

// BuildSegments is shorthand for Build(SegmentPayload(segments)).
func (b *Builder) BuildSegments(segments []Segment) (Track, Diagnostics, error) {
	return b.Build(SegmentPayload(segments))
}

// Build parses the payload and returns a track satisfying the ordering and
// overlap invariants. Per-cue problems are recorded in the diagnostics; the
// only error is *MalformedTrackError.
func (b *Builder) Build(payload Payload) (Track, Diagnostics, error) {
	var diags Diagnostics
	var candidates []candidate
	var err error

	switch payload.Kind() {
	case PayloadText:
		raw, _ := payload.Text()
		candidates, err = parseText(raw, b.opts, &diags)
	case PayloadSegments:
		segments, _ := payload.Segments()
		candidates, err = fromSegments(segments, b.opts, &diags)
	default:
		return Track{}, diags, nil
	}
	if err != nil {
		b.logFailure(payload.Kind(), err)
		return Track{}, diags, err
	}

	track := normalize(candidates, &diags)
	b.logSummary(payload.Kind(), track, diags)
	return track, diags, nil
}

// Normalize builds a track from already-parsed cues: empty text is dropped,
// then the cues are sorted, non-positive durations removed and overlaps clipped.
func Normalize(cues []Cue) (Track, Diagnostics) {
	var diags Diagnostics
	candidates := make([]candidate, 0, len(cues))
	for i, cue := range cues {
		index := i + 1
		text := strings.TrimSpace(cue.Text)
		if text == "" {
			diags.add(Entry{Index: index, Reason: ReasonMissingText, Start: cue.Start, End: cue.End})
			continue
		}
		if !validSeconds(cue.Start) || !validSeconds(cue.End) {
			diags.add(Entry{Index: index, Reason: ReasonInvalidTimestamp, Start: cue.Start, End: cue.End, Text: text, Detail: "start and end must be finite and non-negative"})
			continue
		}
		candidates = append(candidates, candidate{index: index, cue: Cue{Start: cue.Start, End: cue.End, Text: text}})
	}
	return normalize(candidates, &diags), diags
}

// candidate is a parsed cue still tagged with its source position.
type candidate struct {
	index int
	cue   Cue
}

func fromSegments(segments []Segment, opts Options, diags *Diagnostics) ([]candidate, error) {
	candidates := make([]candidate, 0, len(segments))
	for i, seg := range segments {
		index := i + 1
		if !validSeconds(seg.Start) || !validSeconds(seg.End) {
			detail := fmt.Sprintf("start=%v end=%v", seg.Start, seg.End)
			if opts.Strict {
				return nil, &MalformedTrackError{
					Reason: string(ReasonInvalidTimestamp),
					Index:  index,
					Err:    fmt.Errorf("segment times must be finite and non-negative: %s", detail),
				}
			}
			diags.add(Entry{Index: index, Reason: ReasonInvalidTimestamp, Text: seg.Text, Detail: detail})
			continue
		}
		text := cleanText(strings.Split(strings.ReplaceAll(seg.Text, "\r\n", "\n"), "\n"), opts.StripMarkup)
		if text == "" {
			diags.add(Entry{Index: index, Reason: ReasonMissingText, Start: seg.Start, End: seg.End})
			continue
		}
		// Pieces keep the source index so diagnostics point at the original segment.
		cleaned := Segment{Start: seg.Start, End: seg.End, Text: text}
		for _, piece := range splitSegment(cleaned, opts.SplitMaxWords, opts.SplitWords) {
			candidates = append(candidates, candidate{index: index, cue: Cue{Start: piece.Start, End: piece.End, Text: piece.Text}})
		}
	}
	return candidates, nil
}

func validSeconds(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// normalize applies ordering, duration and overlap rules in that order.
func normalize(candidates []candidate, diags *Diagnostics) Track {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].cue.Start < candidates[j].cue.Start
	})

	kept := make([]candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.cue.End <= c.cue.Start {
			diags.add(Entry{Index: c.index, Reason: ReasonNonPositiveDuration, Start: c.cue.Start, End: c.cue.End, Text: c.cue.Text})
			continue
		}
		kept = append(kept, c)
	}

	out := make([]candidate, 0, len(kept))
	for _, next := range kept {
		for len(out) > 0 {
			last := &out[len(out)-1]
			if last.cue.End <= next.cue.Start {
				break
			}
			originalEnd := last.cue.End
			last.cue.End = next.cue.Start
			if last.cue.End > last.cue.Start {
				diags.add(Entry{
					Index:  last.index,
					Reason: ReasonOverlapClipped,
					Start:  last.cue.Start,
					End:    last.cue.End,
					Text:   last.cue.Text,
					Detail: fmt.Sprintf("end %.3f clipped to %.3f", originalEnd, last.cue.End),
				})
				break
			}
			diags.add(Entry{
				Index:  last.index,
				Reason: ReasonClippedToEmpty,
				Start:  last.cue.Start,
				End:    originalEnd,
				Text:   last.cue.Text,
				Detail: fmt.Sprintf("starts together with cue %d", next.index),
			})
			out = out[:len(out)-1]
		}
		out = append(out, next)
	}

	cues := make([]Cue, len(out))
	for i, c := range out {
		cues[i] = c.cue
	}
	return Track{cues: cues}
}

// logSummary logs the build result at INFO and every diagnostic at DEBUG.
func (b *Builder) logSummary(kind PayloadKind, track Track, diags Diagnostics) {
	if b.logger == nil {
		return
	}
	attrs := []slog.Attr{
		logging.String(logging.FieldEventType, "caption_track_built"),
		logging.String("payload", kind.String()),
		logging.Int("cue_count", track.Len()),
		logging.Int("cues_dropped", diags.Dropped()),
		logging.Int("cues_clipped", diags.Clipped()),
	}
	summary := diags.Summary()
	for _, reason := range diags.reasons() {
		attrs = append(attrs, logging.Int("diag_"+reason, summary[reason]))
	}
	b.logger.LogAttrs(context.Background(), slog.LevelInfo, "caption track built", attrs...)

	for _, e := range diags.Entries {
		b.logger.Debug("caption cue adjusted",
			logging.Int("cue_index", e.Index),
			logging.String("reason", string(e.Reason)),
			logging.Seconds("start", e.Start),
			logging.Seconds("end", e.End),
			logging.String("cue_text", e.Text),
			logging.String("detail", e.Detail),
		)
	}
}

func (b *Builder) logFailure(kind PayloadKind, err error) {
	if b.logger == nil {
		return
	}
	logging.WarnWithContext(b.logger, "caption track rejected", "caption_track_malformed",
		logging.String("payload", kind.String()),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "disable strict mode or fix the payload timing lines"),
		logging.String(logging.FieldImpact, "no captions for this video"),
	)
}
