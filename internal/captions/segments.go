package captions

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// SegmentFormat selects the decoder for segment documents.
type SegmentFormat string

const (
	SegmentFormatAuto SegmentFormat = ""
	SegmentFormatJSON SegmentFormat = "json"
	SegmentFormatYAML SegmentFormat = "yaml"
)

// ParseSegmentFormat accepts "", "auto", "json", "yaml" or "yml".
func ParseSegmentFormat(value string) (SegmentFormat, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "auto":
		return SegmentFormatAuto, nil
	case "json":
		return SegmentFormatJSON, nil
	case "yaml", "yml":
		return SegmentFormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported segment format %q", value)
	}
}

type segmentDocument struct {
	Segments []Segment `json:"segments" yaml:"segments"`
	// Transcription is whisper.cpp's --output-json shape, timed in milliseconds.
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from" yaml:"from"`
			To   int64 `json:"to" yaml:"to"`
		} `json:"offsets" yaml:"offsets"`
		Text string `json:"text" yaml:"text"`
	} `json:"transcription" yaml:"transcription"`
}

func (d segmentDocument) segments() []Segment {
	if len(d.Segments) > 0 || len(d.Transcription) == 0 {
		return d.Segments
	}
	out := make([]Segment, len(d.Transcription))
	for i, entry := range d.Transcription {
		out[i] = Segment{
			Start: float64(entry.Offsets.From) / 1000,
			End:   float64(entry.Offsets.To) / 1000,
			Text:  entry.Text,
		}
	}
	return out
}

// DecodeSegments reads a list of segments, either bare, under a "segments"
// key as whisper-style engines emit them, or as whisper.cpp's "transcription"
// list. Auto detection picks JSON when the
// document starts with '[' or '{'.
func DecodeSegments(data []byte, format SegmentFormat) ([]Segment, error) {
	trimmed := bytes.TrimSpace(bytes.TrimPrefix(data, []byte("\ufeff")))
	if len(trimmed) == 0 {
		return nil, nil
	}
	if format == SegmentFormatAuto {
		format = SegmentFormatYAML
		if trimmed[0] == '[' || trimmed[0] == '{' {
			format = SegmentFormatJSON
		}
	}

	switch format {
	case SegmentFormatJSON:
		if trimmed[0] == '[' {
			var segments []Segment
			if err := json.Unmarshal(trimmed, &segments); err != nil {
				return nil, fmt.Errorf("decode json segments: %w", err)
			}
			return segments, nil
		}
		var doc segmentDocument
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("decode json segments: %w", err)
		}
		return doc.segments(), nil
	case SegmentFormatYAML:
		var root yaml.Node
		if err := yaml.Unmarshal(trimmed, &root); err != nil {
			return nil, fmt.Errorf("decode yaml segments: %w", err)
		}
		if len(root.Content) > 0 && root.Content[0].Kind == yaml.SequenceNode {
			var segments []Segment
			if err := root.Content[0].Decode(&segments); err != nil {
				return nil, fmt.Errorf("decode yaml segments: %w", err)
			}
			return segments, nil
		}
		var doc segmentDocument
		if err := root.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode yaml segments: %w", err)
		}
		return doc.segments(), nil
	default:
		return nil, fmt.Errorf("unsupported segment format %q", format)
	}
}
