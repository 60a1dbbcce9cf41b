package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vyvo/animate/pkg/apiclient"
)

func newStatusCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status <taskId>",
		Short: "Show the current status of a generation task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := apiclient.NewClient(root.cfg.APIURL, root.cfg.RequestTimeout)
			task, err := client.Check(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", task.ID, task.Status)
			if task.VideoURL != "" {
				fmt.Fprintln(cmd.OutOrStdout(), task.VideoURL)
			}
			return nil
		},
	}
}
