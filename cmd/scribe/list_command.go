package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"scribe/internal/catalog"
	"scribe/internal/pipeline"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var statusFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recordings and their processing state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var statuses []catalog.Status
			if trimmed := strings.TrimSpace(statusFlag); trimmed != "" {
				for _, raw := range strings.Split(trimmed, ",") {
					status, ok := catalog.ParseStatus(raw)
					if !ok {
						return fmt.Errorf("unknown status %q (known: %s)", raw, knownStatuses())
					}
					statuses = append(statuses, status)
				}
			}

			return ctx.withPipeline(cmd.Context(), func(runCtx context.Context, p *pipeline.Pipeline, _ *slog.Logger) error {
				recordings, err := p.List(runCtx, statuses...)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(recordings) == 0 {
					fmt.Fprintln(out, "No recordings")
					return nil
				}

				rows := make([][]string, 0, len(recordings))
				for _, rec := range recordings {
					rows = append(rows, []string{
						rec.ID,
						truncate(rec.Title, 36),
						formatSeconds(rec.DurationSeconds),
						string(rec.Status),
						formatTimestamp(rec.RecordedAt),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Title", "Duration", "Status", "Recorded"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&statusFlag, "status", "s", "", "Filter by status (comma separated)")
	return cmd
}

func knownStatuses() string {
	all := catalog.AllStatuses()
	names := make([]string, 0, len(all))
	for _, status := range all {
		names = append(names, string(status))
	}
	return strings.Join(names, ", ")
}
