package captions

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// tagPattern matches WebVTT cue tags: <i>, </b>, <c.loud>, <v Speaker>, <00:00:01.000>.
var tagPattern = regexp.MustCompile(`<[^<>]*>`)

var entityDecoder = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&nbsp;", "\u00a0",
	"&lrm;", "\u200e",
	"&rlm;", "\u200f",
)

var entityEncoder = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

// StripMarkup removes cue tags and decodes the character references WebVTT defines.
func StripMarkup(text string) string {
	return entityDecoder.Replace(tagPattern.ReplaceAllString(text, ""))
}

// cleanText trims each line, drops blank ones, and NFC-normalizes the result.
// Markup is stripped first when strip is set.
func cleanText(lines []string, strip bool) string {
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if strip {
			line = StripMarkup(line)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		kept = append(kept, line)
	}
	if len(kept) == 0 {
		return ""
	}
	return norm.NFC.String(strings.Join(kept, "\n"))
}
