package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"vocalless/internal/jobs"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var wait bool
	var interval time.Duration
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "submit <url>",
		Short: "Submit a media URL for vocal removal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := ctx.client()
			id, err := client.Submit(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !wait {
				fmt.Fprintln(out, id)
				return nil
			}
			fmt.Fprintf(out, "Submitted %s\n", id)

			waitCtx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				waitCtx, cancel = context.WithTimeout(waitCtx, timeout)
				defer cancel()
			}
			job, err := pollJob(waitCtx, interval, func(ctx context.Context) (jobs.Job, error) {
				return client.Status(ctx, id)
			})
			if err != nil {
				return err
			}
			colorize := shouldColorize(out)
			for _, line := range renderJob(job, colorize) {
				fmt.Fprintln(out, line)
			}
			if job.Status == jobs.StatusError {
				return fmt.Errorf("job %s failed", job.ID)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Poll until the job finishes")
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "Polling interval with --wait")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Give up waiting after this long (0 waits forever)")
	return cmd
}

// pollJob calls fetch every interval until the job is terminal.
func pollJob(ctx context.Context, interval time.Duration, fetch func(context.Context) (jobs.Job, error)) (jobs.Job, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		job, err := fetch(ctx)
		if err != nil {
			if errors.Is(err, jobs.ErrNotFound) {
				return jobs.Job{}, fmt.Errorf("job evicted before it finished: %w", err)
			}
			return jobs.Job{}, err
		}
		if job.Status.IsTerminal() {
			return job, nil
		}
		select {
		case <-ctx.Done():
			return job, ctx.Err()
		case <-ticker.C:
		}
	}
}
