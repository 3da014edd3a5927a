package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"visionpipe/internal/summary"
)

func newSummaryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "summary <video-id>",
		Short: "Show the analysis summary of a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			var result summary.Summary
			if err := client.getJSON(cmd.Context(), "/api/videos/"+args[0], &result); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", result.Video.Title, result.Video.ID)
			if result.Video.Metadata != nil {
				fmt.Fprintf(out, "Duration: %s  Frames: %d\n",
					formatTimecode(result.Video.Metadata.Duration), len(result.Images))
			}
			if result.Cacheable {
				fmt.Fprintln(out, "Processing: complete")
			} else {
				fmt.Fprintln(out, "Processing: in progress")
			}

			if len(result.Faces) > 0 {
				fmt.Fprintln(out, "\nFaces")
				fmt.Fprintln(out, occurrenceTable(result.Faces))
			}
			if len(result.Keywords) > 0 {
				fmt.Fprintln(out, "\nKeywords")
				fmt.Fprintln(out, occurrenceTable(result.Keywords))
			}

			if result.Audio != nil && result.Audio.HasAnalysis() {
				analysis := result.Audio.Analysis
				if len(analysis.Entities) > 0 {
					fmt.Fprintln(out, "\nTranscript entities")
					rows := make([][]string, 0, len(analysis.Entities))
					for _, entity := range analysis.Entities {
						rows = append(rows, []string{entity.Text, formatScore(entity.Relevance)})
					}
					fmt.Fprintln(out, renderTable(
						[]string{"ENTITY", "RELEVANCE"}, rows,
						[]columnAlignment{alignLeft, alignRight},
					))
				}
				if len(analysis.Concepts) > 0 {
					fmt.Fprintln(out, "\nTranscript concepts")
					rows := make([][]string, 0, len(analysis.Concepts))
					for _, concept := range analysis.Concepts {
						rows = append(rows, []string{concept.Text, formatScore(concept.Relevance)})
					}
					fmt.Fprintln(out, renderTable(
						[]string{"CONCEPT", "RELEVANCE"}, rows,
						[]columnAlignment{alignLeft, alignRight},
					))
				}
			}
			return nil
		},
	}
}

func occurrenceTable(occurrences []summary.Occurrence) string {
	rows := make([][]string, 0, len(occurrences))
	for _, occurrence := range occurrences {
		rows = append(rows, []string{
			occurrence.Name,
			formatScore(occurrence.Score),
			formatTimecode(occurrence.Timecode),
		})
	}
	return renderTable(
		[]string{"NAME", "SCORE", "AT"}, rows,
		[]columnAlignment{alignLeft, alignRight, alignRight},
	)
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', 2, 64)
}

func formatTimecode(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
