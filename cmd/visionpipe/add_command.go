package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"visionpipe/internal/media"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var title string
	var languageModel string
	var asImage bool

	cmd := &cobra.Command{
		Use:   "add <file>",
		Short: "Upload a video or image for analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}

			endpoint := "/api/videos"
			if asImage {
				endpoint = "/api/images"
			}
			fields := map[string]string{
				"title":          title,
				"language_model": languageModel,
			}

			var doc media.Document
			if err := client.upload(cmd.Context(), endpoint, args[0], fields, &doc); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s as %s %s\n", args[0], doc.Type, doc.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Display title (defaults to the file name)")
	cmd.Flags().StringVar(&languageModel, "language-model", "", "Speech recognition model for the audio track")
	cmd.Flags().BoolVar(&asImage, "image", false, "Upload as a standalone image instead of a video")
	return cmd
}
