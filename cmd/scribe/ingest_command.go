package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"scribe/internal/pipeline"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <audio-file>...",
		Short: "Register recordings and cut them into transcription windows",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return ctx.withPipeline(runCtx, func(runCtx context.Context, p *pipeline.Pipeline, _ *slog.Logger) error {
				rows := make([][]string, 0, len(args))
				var firstErr error
				for _, source := range args {
					rec, err := p.Ingest(runCtx, source)
					if err != nil {
						if firstErr == nil {
							firstErr = err
						}
						rows = append(rows, []string{"-", truncate(source, 40), "-", "error: " + err.Error()})
						continue
					}
					rows = append(rows, []string{rec.ID, truncate(rec.Title, 40), formatSeconds(rec.DurationSeconds), string(rec.Status)})
				}

				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Title", "Duration", "Status"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
				))
				return firstErr
			})
		},
	}
}
