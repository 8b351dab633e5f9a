package captions

import (
	"fmt"
	"strings"
)

const (
	signature      = "WEBVTT"
	rangeSeparator = "-->"
)

// parseText splits a timed-text document into cue candidates.
func parseText(raw string, opts Options, diags *Diagnostics) ([]candidate, error) {
	content := strings.TrimPrefix(raw, "\ufeff")
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}

	lines := strings.Split(content, "\n")
	if opts.RequireSignature && !hasSignature(lines) {
		if opts.Strict {
			return nil, &MalformedTrackError{
				Reason: string(ReasonMissingSignature),
				Err:    fmt.Errorf("first line must start with %s", signature),
			}
		}
		diags.add(Entry{Reason: ReasonMissingSignature, Detail: "payload does not start with " + signature})
	}

	var candidates []candidate
	index := 0
	for _, block := range splitBlocks(lines) {
		timing := timingLineIndex(block)
		if timing < 0 {
			continue
		}
		index++

		start, end, err := parseTimingLine(block[timing])
		if err != nil {
			if opts.Strict {
				return nil, &MalformedTrackError{Reason: string(ReasonInvalidTimestamp), Index: index, Err: err}
			}
			diags.add(Entry{
				Index:  index,
				Reason: ReasonInvalidTimestamp,
				Text:   cleanText(block[timing+1:], opts.StripMarkup),
				Detail: err.Error(),
			})
			continue
		}

		text := cleanText(block[timing+1:], opts.StripMarkup)
		if text == "" {
			diags.add(Entry{Index: index, Reason: ReasonMissingText, Start: start, End: end})
			continue
		}
		candidates = append(candidates, candidate{index: index, cue: Cue{Start: start, End: end, Text: text}})
	}
	return candidates, nil
}

func hasSignature(lines []string) bool {
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if trimmed == signature {
			return true
		}
		rest, ok := strings.CutPrefix(trimmed, signature)
		return ok && (rest[0] == ' ' || rest[0] == '\t')
	}
	return false
}

// splitBlocks groups consecutive non-blank lines.
func splitBlocks(lines []string) [][]string {
	var blocks [][]string
	var current []string
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				blocks = append(blocks, current)
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}
	return blocks
}

// timingLineIndex returns 0 or 1 when that line holds the time range, else -1.
// Line 1 is only considered when line 0 is a cue identifier, never for
// comment or style blocks.
func timingLineIndex(block []string) int {
	if len(block) == 0 {
		return -1
	}
	if strings.Contains(block[0], rangeSeparator) {
		return 0
	}
	if isMetadataBlock(block[0]) {
		return -1
	}
	if len(block) > 1 && strings.Contains(block[1], rangeSeparator) {
		return 1
	}
	return -1
}

func isMetadataBlock(first string) bool {
	trimmed := strings.TrimSpace(first)
	for _, keyword := range []string{"NOTE", "STYLE", "REGION"} {
		if trimmed == keyword || strings.HasPrefix(trimmed, keyword+" ") || strings.HasPrefix(trimmed, keyword+"\t") {
			return true
		}
	}
	return false
}

// parseTimingLine reads "start --> end [settings]". Cue settings are ignored.
func parseTimingLine(line string) (float64, float64, error) {
	left, right, ok := strings.Cut(line, rangeSeparator)
	if !ok {
		return 0, 0, fmt.Errorf("missing %q in timing line %q", rangeSeparator, line)
	}
	start, err := ParseTimestamp(left)
	if err != nil {
		return 0, 0, fmt.Errorf("start: %w", err)
	}
	fields := strings.Fields(right)
	if len(fields) == 0 {
		return 0, 0, fmt.Errorf("end: empty timestamp")
	}
	end, err := ParseTimestamp(fields[0])
	if err != nil {
		return 0, 0, fmt.Errorf("end: %w", err)
	}
	return start, end, nil
}
