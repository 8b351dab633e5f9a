package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"captionsync/internal/jobs"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect the transcription job ledger",
	}
	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	return jobsCmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var statusFlags []string
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent jobs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			statuses, err := parseStatusFilters(statusFlags)
			if err != nil {
				return err
			}
			store, err := ctx.openJobs()
			if err != nil {
				return err
			}
			list, err := store.List(cmd.Context(), jobs.ListOptions{Statuses: statuses, Limit: limit})
			if err != nil {
				return err
			}

			if asJSON {
				if list == nil {
					list = []*jobs.Job{}
				}
				return writeJSON(cmd, list)
			}
			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No jobs recorded")
				return nil
			}
			fmt.Fprintln(out, renderJobTable(list, time.Now()))
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&statusFlags, "status", "s", nil, "Filter by status (repeatable)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of jobs to show (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			store, err := ctx.openJobs()
			if err != nil {
				return err
			}
			job, err := store.Get(cmd.Context(), strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, job)
			}

			out := cmd.OutOrStdout()
			lines := [][2]string{
				{"ID", job.ID},
				{"Source", job.SourceName},
				{"Status", string(job.Status)},
				{"Style", job.Style},
				{"Captions", yesNo(job.CaptionsAvailable)},
				{"Cues", strconv.Itoa(job.CueCount)},
				{"Dropped", strconv.Itoa(job.DroppedCount)},
				{"Clipped", strconv.Itoa(job.ClippedCount)},
				{"FPS", strconv.Itoa(job.FPS)},
				{"Frames", strconv.Itoa(job.DurationFrames)},
				{"Created", job.CreatedAt.Local().Format(time.DateTime)},
				{"Duration", job.Duration(time.Now()).Round(time.Millisecond).String()},
			}
			if job.ProgressMessage != "" {
				lines = append(lines, [2]string{"Progress", job.ProgressMessage})
			}
			if job.ErrorMessage != "" {
				lines = append(lines, [2]string{"Error", job.ErrorMessage})
			}
			writeFields(out, lines)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func parseStatusFilters(values []string) ([]jobs.Status, error) {
	var statuses []jobs.Status
	for _, value := range values {
		if strings.TrimSpace(value) == "" {
			continue
		}
		status, ok := jobs.ParseStatus(value)
		if !ok {
			valid := make([]string, 0, len(jobs.AllStatuses()))
			for _, s := range jobs.AllStatuses() {
				valid = append(valid, string(s))
			}
			return nil, fmt.Errorf("unknown status %q (valid: %s)", value, strings.Join(valid, ", "))
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func renderJobTable(list []*jobs.Job, now time.Time) string {
	rows := make([][]string, 0, len(list))
	for _, job := range list {
		id := job.ID
		if len(id) > 8 {
			id = id[:8]
		}
		rows = append(rows, []string{
			id,
			job.SourceName,
			string(job.Status),
			strconv.Itoa(job.CueCount),
			yesNo(job.CaptionsAvailable),
			job.Duration(now).Round(time.Second).String(),
			job.CreatedAt.Local().Format(time.DateTime),
		})
	}
	return renderTable(
		[]string{"ID", "Source", "Status", "Cues", "Captions", "Elapsed", "Created"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignLeft},
	)
}
