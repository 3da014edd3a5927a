package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config file: %s\n", ctx.cfgPath)
			fmt.Fprintln(out, renderTable(
				[]string{"SETTING", "VALUE"},
				[][]string{
					{"data_dir", cfg.Paths.DataDir},
					{"scratch_dir", cfg.Paths.ScratchDir},
					{"log_dir", cfg.Paths.LogDir},
					{"api_bind", cfg.Paths.APIBind},
					{"base_url", cfg.Paths.BaseURL},
					{"visual_recognition.url", cfg.VisualRecognition.URL},
					{"speech_to_text.url", cfg.SpeechToText.URL},
					{"text_analysis.url", cfg.TextAnalysis.URL},
				},
				nil,
			))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the configuration file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ctx.cfgPath)
			return nil
		},
	})

	return cmd
}
