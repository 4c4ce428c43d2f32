package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"vocalless/internal/api"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List jobs tracked by the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := ctx.client().Jobs(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, resp)
			}
			out := cmd.OutOrStdout()
			if len(resp.Jobs) == 0 {
				fmt.Fprintf(out, "No jobs (capacity %d)\n", resp.MaxJobs)
				return nil
			}
			fmt.Fprintln(out, renderJobsTable(resp, time.Now()))
			fmt.Fprintf(out, "%d of %d slots in use\n", len(resp.Jobs), resp.MaxJobs)
			return nil
		},
	}
	addJSONFlag(cmd, &asJSON)
	return cmd
}

func renderJobsTable(resp api.JobListResponse, now time.Time) string {
	rows := make([][]string, 0, len(resp.Jobs))
	for _, job := range resp.Jobs {
		detail := job.Progress
		switch {
		case job.OutputPath != "":
			detail = job.OutputPath
		case job.ErrorMessage != "":
			detail = firstLine(job.ErrorMessage)
		}
		rows = append(rows, []string{
			job.ID,
			string(job.Status),
			stageLabel(job),
			now.Sub(job.CreatedAt).Truncate(time.Second).String(),
			detail,
		})
	}
	return renderTable(
		[]string{"ID", "Status", "Stage", "Age", "Detail"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	)
}
