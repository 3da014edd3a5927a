package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"visionpipe/internal/store"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show processed and pending counts per media type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			var status map[string]store.TypeStatus
			if err := client.getJSON(cmd.Context(), "/api/status", &status); err != nil {
				return err
			}

			rows := make([][]string, 0, len(status))
			for _, mediaType := range []string{"video", "image", "audio"} {
				entry, ok := status[mediaType]
				if !ok {
					continue
				}
				rows = append(rows, []string{
					mediaType,
					strconv.Itoa(entry.Total),
					strconv.Itoa(entry.Processed),
					strconv.Itoa(entry.Unprocessed),
				})
			}
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing in the pipeline.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"TYPE", "TOTAL", "PROCESSED", "PENDING"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}
}
