package captions

import "strings"

// Readable segment defaults: segments longer than DefaultSplitMaxWords words
// are cut into pieces of DefaultSplitWords words.
const (
	DefaultSplitMaxWords = 8
	DefaultSplitWords    = 6
)

// SplitLongSegments cuts every segment holding more than maxWords words into
// consecutive pieces of wordsPerSegment words. Each piece gets the share of
// the parent's time span proportional to its word offset, so the pieces tile
// the parent exactly. A non-positive maxWords or wordsPerSegment returns the
// segments unchanged.
func SplitLongSegments(segments []Segment, maxWords, wordsPerSegment int) []Segment {
	out := make([]Segment, 0, len(segments))
	for _, seg := range segments {
		out = append(out, splitSegment(seg, maxWords, wordsPerSegment)...)
	}
	return out
}

func splitSegment(seg Segment, maxWords, wordsPerSegment int) []Segment {
	if maxWords <= 0 || wordsPerSegment <= 0 || !validSeconds(seg.Start) || !validSeconds(seg.End) {
		return []Segment{seg}
	}
	words := strings.Fields(seg.Text)
	if len(words) <= maxWords {
		return []Segment{seg}
	}
	total := float64(len(words))
	span := seg.End - seg.Start
	pieces := make([]Segment, 0, (len(words)+wordsPerSegment-1)/wordsPerSegment)
	for i := 0; i < len(words); i += wordsPerSegment {
		j := min(i+wordsPerSegment, len(words))
		end := seg.End
		if j < len(words) {
			end = seg.Start + float64(j)/total*span
		}
		pieces = append(pieces, Segment{
			Start: seg.Start + float64(i)/total*span,
			End:   end,
			Text:  strings.Join(words[i:j], " "),
		})
	}
	return pieces
}
