package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"scribe/internal/catalog"
	"scribe/internal/pipeline"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status [recording-id]",
		Short: "Show one recording's state, or counts per state",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withPipeline(cmd.Context(), func(runCtx context.Context, p *pipeline.Pipeline, _ *slog.Logger) error {
				out := cmd.OutOrStdout()

				if len(args) == 0 {
					counts, err := p.Stats(runCtx)
					if err != nil {
						return err
					}
					rows := make([][]string, 0, len(counts))
					for _, status := range catalog.AllStatuses() {
						rows = append(rows, []string{string(status), fmt.Sprintf("%d", counts[status])})
					}
					fmt.Fprintln(out, renderTable(
						[]string{"Status", "Recordings"},
						rows,
						[]columnAlignment{alignLeft, alignRight},
					))
					return nil
				}

				rec, err := p.Status(runCtx, args[0])
				if err != nil {
					return err
				}

				fmt.Fprintf(out, "ID:           %s\n", rec.ID)
				fmt.Fprintf(out, "Title:        %s\n", orDash(rec.Title))
				fmt.Fprintf(out, "Status:       %s\n", rec.Status)
				fmt.Fprintf(out, "Source:       %s\n", orDash(rec.SourcePath))
				fmt.Fprintf(out, "Duration:     %s\n", formatSeconds(rec.DurationSeconds))
				fmt.Fprintf(out, "Sample rate:  %d Hz\n", rec.SampleRate)
				fmt.Fprintf(out, "Recorded at:  %s\n", formatTimestamp(rec.RecordedAt))
				fmt.Fprintf(out, "Last window:  %s\n", formatWindowIndex(rec.LastWindowIndex))
				if rec.ErrorMessage != "" {
					fmt.Fprintf(out, "Error:        %s\n", rec.ErrorMessage)
				}
				if rec.AudioStatsJSON != "" {
					fmt.Fprintf(out, "Audio stats:  %s\n", rec.AudioStatsJSON)
				}
				return nil
			})
		},
	}
}
