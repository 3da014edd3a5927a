package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newResetCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Re-run parts of the pipeline for a document",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(
		resetSubcommand(ctx, "video <video-id>",
			"Discard all derived documents and re-extract the video",
			func(id string) string { return "/api/videos/" + id + "/reset" }),
		resetSubcommand(ctx, "images <video-id>",
			"Re-run image analysis on every frame of a video",
			func(id string) string { return "/api/videos/" + id + "/reset-images" }),
		resetSubcommand(ctx, "audio <video-id>",
			"Re-run transcription and text analysis for a video",
			func(id string) string { return "/api/videos/" + id + "/reset-audio" }),
		resetSubcommand(ctx, "image <image-id>",
			"Re-run analysis on a single image",
			func(id string) string { return "/api/images/" + id + "/reset" }),
	)
	return cmd
}

func resetSubcommand(ctx *commandContext, use, short string, path func(id string) string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			if err := client.post(cmd.Context(), path(args[0])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reset applied to %s\n", args[0])
			return nil
		},
	}
}

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <video-id>",
		Short: "Delete a video and everything derived from it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			if err := client.delete(cmd.Context(), "/api/videos/"+args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}
