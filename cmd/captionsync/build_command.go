package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"captionsync/internal/captions"
)

type outputFormat string

const (
	outputTable outputFormat = "table"
	outputVTT   outputFormat = "vtt"
	outputJSON  outputFormat = "json"
)

func parseOutputFormat(value string, allowed ...outputFormat) (outputFormat, error) {
	normalized := outputFormat(strings.ToLower(strings.TrimSpace(value)))
	for _, candidate := range allowed {
		if candidate == normalized {
			return candidate, nil
		}
	}
	names := make([]string, len(allowed))
	for i, candidate := range allowed {
		names[i] = string(candidate)
	}
	return "", fmt.Errorf("unsupported output %q (want %s)", value, strings.Join(names, ", "))
}

type buildJSON struct {
	CueCount    int                  `json:"cue_count"`
	Duration    float64              `json:"duration"`
	Captions    []captions.Cue       `json:"captions"`
	Diagnostics captions.Diagnostics `json:"diagnostics"`
}

func newBuildCommand(ctx *commandContext) *cobra.Command {
	var flags trackFlags
	var output string

	cmd := &cobra.Command{
		Use:   "build <file|->",
		Short: "Parse and normalize a caption file",
		Long: "Parse a WebVTT/SRT-style file (or a JSON/YAML segment document with --segments),\n" +
			"sort the cues, drop invalid ones and clip overlaps.",
		Args: cobra.ExactArgs(1),
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
			track, diags, err := flags.loadTrack(cmd, args[0], cfg, logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch format {
			case outputVTT:
				return track.WriteVTT(out)
			case outputJSON:
				cues := track.Cues()
				if cues == nil {
					cues = []captions.Cue{}
				}
				return writeJSON(cmd, buildJSON{
					CueCount:    track.Len(),
					Duration:    track.Duration(),
					Captions:    cues,
					Diagnostics: diags,
				})
			default:
				fmt.Fprintln(out, renderCueTable(track))
				if !diags.Empty() {
					fmt.Fprintln(out, renderDiagnosticsTable(diags))
				}
				fmt.Fprintf(out, "%d cues, %d dropped, %d clipped\n", track.Len(), diags.Dropped(), diags.Clipped())
				return nil
			}
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", string(outputTable), "Output format (table, vtt, json)")
	return cmd
}

func renderCueTable(track captions.Track) string {
	rows := make([][]string, 0, track.Len())
	for i, cue := range track.Cues() {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			captions.FormatTimestamp(cue.Start),
			captions.FormatTimestamp(cue.End),
			fmt.Sprintf("%.3fs", cue.Duration()),
			strings.ReplaceAll(cue.Text, "\n", " / "),
		})
	}
	return renderTable(
		[]string{"#", "Start", "End", "Duration", "Text"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
	)
}

func renderDiagnosticsTable(diags captions.Diagnostics) string {
	summary := diags.Summary()
	reasons := make([]string, 0, len(summary))
	for reason := range summary {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)

	rows := make([][]string, 0, len(reasons))
	for _, reason := range reasons {
		effect := "dropped"
		if !captions.Reason(reason).Dropping() {
			effect = "kept"
		}
		rows = append(rows, []string{reason, strconv.Itoa(summary[reason]), effect})
	}
	return renderTable([]string{"Diagnostic", "Count", "Cue"}, rows, []columnAlignment{alignLeft, alignRight, alignLeft})
}
