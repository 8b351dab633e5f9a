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

func newScheduleCommand(ctx *commandContext) *cobra.Command {
	var flags trackFlags
	var fps int
	var output string

	cmd := &cobra.Command{
		Use:   "schedule <file|->",
		Short: "List the frame span each cue occupies",
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
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			track, _, err := flags.loadTrack(cmd, args[0], cfg, logger)
			if err != nil {
				return err
			}

			spans := overlay.Schedule(track, fps)
			if format == outputJSON {
				if spans == nil {
					spans = []overlay.Span{}
				}
				return writeJSON(cmd, map[string]any{
					"fps":                fps,
					"duration_in_frames": captions.FramesForDuration(track.Duration(), fps),
					"spans":              spans,
				})
			}

			rows := make([][]string, 0, len(spans))
			for _, span := range spans {
				rows = append(rows, []string{
					strconv.Itoa(span.First),
					strconv.Itoa(span.Last),
					strconv.Itoa(span.Frames()),
					strings.ReplaceAll(span.Cue.Text, "\n", " / "),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"First", "Last", "Frames", "Caption"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVar(&fps, "fps", 30, "Video frame rate (defaults to captions.default_fps)")
	cmd.Flags().StringVarP(&output, "output", "o", string(outputTable), "Output format (table, json)")
	return cmd
}
