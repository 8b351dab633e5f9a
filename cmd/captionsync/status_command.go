package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"captionsync/internal/deps"
	"captionsync/internal/jobs"
	"captionsync/internal/language"
	"captionsync/internal/preflight"
)

type statusReport struct {
	ConfigPath   string             `json:"config_path"`
	Language     string             `json:"language"`
	Dependencies []deps.Status      `json:"dependencies"`
	Preflight    []preflight.Result `json:"preflight"`
	JobCounts    map[string]int     `json:"job_counts"`
	Ready        bool               `json:"ready"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check tools, directories and the job ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ctx.openJobs()
			if err != nil {
				return err
			}
			counts, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}

			report := statusReport{
				ConfigPath:   ctx.configPath,
				Language:     cfg.Transcription.Language,
				Dependencies: preflight.CheckSystemDeps(cfg),
				Preflight:    preflight.RunAll(cmd.Context(), cfg),
				JobCounts:    make(map[string]int, len(counts)),
			}
			for status, n := range counts {
				report.JobCounts[string(status)] = n
			}
			report.Ready = len(deps.MissingRequired(report.Dependencies)) == 0 && preflight.AllPassed(report.Preflight)

			if asJSON {
				return writeJSON(cmd, report)
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, renderStatusReport(report, shouldColorize(out)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func renderStatusReport(report statusReport, colorize bool) string {
	var b strings.Builder
	line := func(s string) {
		b.WriteString(s)
		b.WriteByte('\n')
	}

	line(renderSectionHeader("Configuration", colorize))
	line(renderStatusLine("Config", statusInfo, report.ConfigPath, colorize))
	line(renderStatusLine("Language", statusInfo, language.DisplayName(report.Language), colorize))

	line(renderSectionHeader("Dependencies", colorize))
	for _, dep := range report.Dependencies {
		switch {
		case dep.Available:
			line(renderStatusLine(dep.Name, statusOK, dep.Path, colorize))
		case dep.Optional:
			line(renderStatusLine(dep.Name, statusWarn, dep.Detail, colorize))
		default:
			line(renderStatusLine(dep.Name, statusError, dep.Detail, colorize))
		}
	}

	line(renderSectionHeader("Preflight", colorize))
	for _, result := range report.Preflight {
		kind := statusOK
		if !result.Passed {
			kind = statusError
		}
		line(renderStatusLine(result.Name, kind, result.Detail, colorize))
	}

	line(renderSectionHeader("Jobs", colorize))
	if len(report.JobCounts) == 0 {
		line(renderStatusLine("Ledger", statusInfo, "No jobs recorded", colorize))
	}
	for _, status := range jobs.AllStatuses() {
		if n, ok := report.JobCounts[string(status)]; ok {
			kind := statusInfo
			if jobs.IsFailureStatus(status) {
				kind = statusWarn
			}
			line(renderStatusLine(string(status), kind, fmt.Sprint(n), colorize))
		}
	}

	summary := renderStatusLine("Ready", statusOK, "uploads can be transcribed", colorize)
	if !report.Ready {
		summary = renderStatusLine("Ready", statusError, "fix the errors above before serving", colorize)
	}
	line(summary)
	return b.String()
}
