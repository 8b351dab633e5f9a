package captions

import (
	"bufio"
	"io"
	"strings"
)

// WriteVTT serializes the track as a WebVTT document. Text is escaped so the
// output parses back to the same cues with markup stripping enabled.
func (t Track) WriteVTT(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(signature + "\n\n"); err != nil {
		return err
	}
	for _, cue := range t.cues {
		if _, err := bw.WriteString(FormatTimestamp(cue.Start) + " " + rangeSeparator + " " + FormatTimestamp(cue.End) + "\n"); err != nil {
			return err
		}
		if _, err := bw.WriteString(entityEncoder.Replace(cue.Text) + "\n\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// FormatVTT returns the track as a WebVTT document.
func FormatVTT(track Track) string {
	var sb strings.Builder
	_ = track.WriteVTT(&sb)
	return sb.String()
}
