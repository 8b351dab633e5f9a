package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"captionsync/internal/captions"
	"captionsync/internal/config"
	"captionsync/internal/pipeline"
)

// trackFlags are shared by commands that read a caption file.
type trackFlags struct {
	segments      bool
	segmentFormat string
	strict        bool
	noStrip       bool
}

func (f *trackFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.segments, "segments", false, "Treat the input as a JSON or YAML segment document instead of WebVTT text")
	cmd.Flags().StringVar(&f.segmentFormat, "format", "auto", "Segment document format (auto, json, yaml)")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "Fail on the first malformed timestamp instead of dropping the cue")
	cmd.Flags().BoolVar(&f.noStrip, "keep-markup", false, "Keep WebVTT tags and entities in cue text")
}

func (f *trackFlags) options(cfg *config.Config) captions.Options {
	opts := pipeline.CaptionOptions(cfg)
	if f.strict {
		opts.Strict = true
	}
	if f.noStrip {
		opts.StripMarkup = false
	}
	return opts
}

// loadTrack reads path ("-" for stdin) and builds a track from it.
func (f *trackFlags) loadTrack(cmd *cobra.Command, path string, cfg *config.Config, logger *slog.Logger) (captions.Track, captions.Diagnostics, error) {
	data, err := readInput(cmd, path)
	if err != nil {
		return captions.Track{}, captions.Diagnostics{}, err
	}

	payload := captions.TextPayload(string(data))
	if f.segments {
		format, err := captions.ParseSegmentFormat(f.segmentFormat)
		if err != nil {
			return captions.Track{}, captions.Diagnostics{}, err
		}
		segments, err := captions.DecodeSegments(data, format)
		if err != nil {
			return captions.Track{}, captions.Diagnostics{}, fmt.Errorf("decode segments: %w", err)
		}
		payload = captions.SegmentPayload(segments)
	}
	return captions.NewBuilder(f.options(cfg), logger).Build(payload)
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	path = strings.TrimSpace(path)
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
