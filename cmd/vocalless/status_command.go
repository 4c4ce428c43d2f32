package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status <id>",
		Short: "Show the state of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := ctx.client().Status(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, job)
			}
			out := cmd.OutOrStdout()
			for _, line := range renderJob(job, shouldColorize(out)) {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	addJSONFlag(cmd, &asJSON)
	return cmd
}
