package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"captionsync/internal/captions"
	"captionsync/internal/overlay"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var flags trackFlags
	var fps int
	var frames []int
	var from, to int
	var style string
	var output string

	cmd := &cobra.Command{
		Use:   "resolve <file|->",
		Short: "Show the active cue for video frames",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			format, err := parseOutputFormat(output, outputTable, outputJSON)
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("fps") {
				fps = cfg.Captions.DefaultFPS
			}
			if fps <= 0 {
				return errors.New("--fps must be positive")
			}
			if !cmd.Flags().Changed("style") {
				style = cfg.Captions.DefaultStyle
			}
			parsedStyle, err := overlay.ParseStyle(style)
			if err != nil {
				return err
			}

			rangeSet := cmd.Flags().Changed("from") || cmd.Flags().Changed("to")
			switch {
			case len(frames) > 0 && rangeSet:
				return errors.New("use either --frame or --from/--to")
			case len(frames) == 0 && !rangeSet:
				return errors.New("--frame or --from/--to is required")
			case rangeSet && to < from:
				return fmt.Errorf("--to (%d) must not be before --from (%d)", to, from)
			case rangeSet && to-from >= overlay.MaxRangeFrames:
				return fmt.Errorf("--from/--to spans %d frames, at most %d allowed", to-from+1, overlay.MaxRangeFrames)
			}

			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			track, _, err := flags.loadTrack(cmd, args[0], cfg, logger)
			if err != nil {
				return err
			}

			session := overlay.NewSession(track, fps, parsedStyle)
			var resolved []overlay.Frame
			if rangeSet {
				resolved = session.Range(from, to)
			} else {
				for _, frame := range frames {
					resolved = append(resolved, session.At(frame))
				}
			}

			if format == outputJSON {
				return writeJSON(cmd, map[string]any{
					"fps":    fps,
					"style":  parsedStyle,
					"frames": resolved,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderFrameTable(resolved))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVar(&fps, "fps", 30, "Video frame rate (defaults to captions.default_fps)")
	cmd.Flags().IntSliceVar(&frames, "frame", nil, "Frame index to resolve (repeatable or comma separated)")
	cmd.Flags().IntVar(&from, "from", 0, "First frame of a range")
	cmd.Flags().IntVar(&to, "to", 0, "Last frame of a range (inclusive)")
	cmd.Flags().StringVar(&style, "style", "", "Caption style (bottom-center, top-bar)")
	cmd.Flags().StringVarP(&output, "output", "o", string(outputTable), "Output format (table, json)")
	return cmd
}

func renderFrameTable(frames []overlay.Frame) string {
	rows := make([][]string, 0, len(frames))
	for _, frame := range frames {
		text := "-"
		if frame.Cue != nil {
			text = strings.ReplaceAll(frame.Cue.Text, "\n", " / ")
		}
		rows = append(rows, []string{
			strconv.Itoa(frame.Index),
			captions.FormatTimestamp(frame.Time),
			yesNo(frame.Active),
			text,
		})
	}
	return renderTable(
		[]string{"Frame", "Time", "Active", "Caption"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
	)
}
