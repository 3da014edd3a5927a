package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"visionpipe/internal/media"
)

func newVideosCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "videos",
		Short: "List uploaded videos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			var videos []*media.Document
			if err := client.getJSON(cmd.Context(), "/api/videos", &videos); err != nil {
				return err
			}
			if len(videos) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No videos.")
				return nil
			}

			rows := make([][]string, 0, len(videos))
			for _, video := range videos {
				rows = append(rows, []string{
					video.ID,
					video.Title,
					string(video.State),
					strconv.Itoa(video.FrameCount),
					video.CreatedAt.Format("2006-01-02 15:04"),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "TITLE", "STATE", "FRAMES", "CREATED"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
}

func newImagesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "images",
		Short: "List standalone images",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			var images []*media.Document
			if err := client.getJSON(cmd.Context(), "/api/images", &images); err != nil {
				return err
			}
			if len(images) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No standalone images.")
				return nil
			}

			rows := make([][]string, 0, len(images))
			for _, image := range images {
				analyzed := "no"
				if image.HasAnalysis() {
					analyzed = "yes"
				}
				rows = append(rows, []string{
					image.ID,
					image.Title,
					string(image.State),
					analyzed,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "TITLE", "STATE", "ANALYZED"},
				rows,
				nil,
			))
			return nil
		},
	}
}
