package captions

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// timestampPattern matches [HH:]MM:SS with an optional .fff or ,fff fraction.
var timestampPattern = regexp.MustCompile(`^(?:(\d+):)?(\d{1,2}):(\d{1,2})(?:[.,](\d{1,9}))?$`)

// maxTimestampHours keeps the nanosecond total exactly representable in a float64.
const maxTimestampHours = 2_500

// ParseTimestamp converts a WebVTT or SRT timestamp into seconds.
func ParseTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	match := timestampPattern.FindStringSubmatch(value)
	if match == nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours := int64(0)
	if match[1] != "" {
		h, err := strconv.ParseInt(match[1], 10, 64)
		if err != nil || h > maxTimestampHours {
			return 0, fmt.Errorf("invalid hours in %q", value)
		}
		hours = h
	}
	minutes, _ := strconv.ParseInt(match[2], 10, 64)
	seconds, _ := strconv.ParseInt(match[3], 10, 64)
	if minutes >= 60 || seconds >= 60 {
		return 0, fmt.Errorf("invalid timestamp %q: minutes and seconds must be below 60", value)
	}
	// Whole nanoseconds divided once, so "01.360" yields the same float64 as 1.36.
	nanos := (hours*3600 + minutes*60 + seconds) * int64(time.Second)
	if frac := match[4]; frac != "" {
		n, _ := strconv.ParseInt(frac+strings.Repeat("0", 9-len(frac)), 10, 64)
		nanos += n
	}
	return float64(nanos) / float64(time.Second), nil
}

// FormatTimestamp renders seconds as HH:MM:SS.mmm, rounding to the nearest
// millisecond. Negative values clamp to zero.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	millis := int64(math.Round(seconds * 1000))
	hours := millis / 3_600_000
	millis -= hours * 3_600_000
	minutes := millis / 60_000
	millis -= minutes * 60_000
	secs := millis / 1000
	millis -= secs * 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, secs, millis)
}

// FrameTime converts a frame index into seconds. It returns 0 when fps is not positive.
func FrameTime(frame, fps int) float64 {
	if fps <= 0 {
		return 0
	}
	return float64(frame) / float64(fps)
}

// FramesForDuration returns round(seconds*fps), the frame count covering a
// duration. Non-positive inputs yield 0.
func FramesForDuration(seconds float64, fps int) int {
	if fps <= 0 || seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0
	}
	return int(math.Round(seconds * float64(fps)))
}
