package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"captionsync/internal/captions"
	"captionsync/internal/pipeline"
)

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var style string
	var output string
	var keepWork bool

	cmd := &cobra.Command{
		Use:   "transcribe <video>",
		Short: "Transcribe a video locally and print its captions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			format, err := parseOutputFormat(output, outputTable, outputVTT, outputJSON)
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			store, err := ctx.openJobs()
			if err != nil {
				return err
			}

			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			pipe := pipeline.New(cfg, store, logger, pipeline.WithKeepWorkDir(keepWork))
			result, err := pipe.Run(runCtx, pipeline.Request{VideoPath: args[0], Style: style})
			if err != nil {
				if result.JobID != "" {
					return fmt.Errorf("job %s: %w", result.JobID, err)
				}
				return err
			}

			out := cmd.OutOrStdout()
			switch format {
			case outputVTT:
				return result.Track.WriteVTT(out)
			case outputJSON:
				cues := result.Track.Cues()
				if cues == nil {
					cues = []captions.Cue{}
				}
				return writeJSON(cmd, map[string]any{
					"job_id":             result.JobID,
					"captions_available": result.CaptionsAvailable,
					"captions_error":     result.BuildError,
					"captions":           cues,
					"diagnostics":        result.Diagnostics,
					"style":              result.Style,
					"fps":                result.FPS,
					"duration_in_frames": result.DurationInFrames,
				})
			default:
				fmt.Fprintf(out, "Job %s\n", result.JobID)
				if !result.CaptionsAvailable {
					fmt.Fprintf(out, "Captions unavailable: %s\n", result.BuildError)
				} else {
					fmt.Fprintln(out, renderCueTable(result.Track))
				}
				fmt.Fprintf(out, "%d fps, %d frames, style %s\n", result.FPS, result.DurationInFrames, result.Style)
				return nil
			}
		},
	}

	cmd.Flags().StringVar(&style, "style", "", "Caption style (bottom-center, top-bar)")
	cmd.Flags().StringVarP(&output, "output", "o", string(outputTable), "Output format (table, vtt, json)")
	cmd.Flags().BoolVar(&keepWork, "keep-work", false, "Keep extracted audio and whisper output in the work directory")
	return cmd
}
