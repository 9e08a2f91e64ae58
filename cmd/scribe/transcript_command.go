package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"scribe/internal/pipeline"
)

func newTranscriptCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var withSegments bool

	cmd := &cobra.Command{
		Use:   "transcript <recording-id>",
		Short: "Print the reconciled transcript of a completed recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withPipeline(cmd.Context(), func(runCtx context.Context, p *pipeline.Pipeline, _ *slog.Logger) error {
				transcript, err := p.Transcript(runCtx, args[0])
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if asJSON {
					encoded, err := json.MarshalIndent(transcript, "", "  ")
					if err != nil {
						return fmt.Errorf("encode transcript: %w", err)
					}
					fmt.Fprintln(out, string(encoded))
					return nil
				}

				fmt.Fprintln(out, transcript.FullText)
				if withSegments {
					fmt.Fprintln(out)
					for _, seg := range transcript.Segments {
						fmt.Fprintf(out, "[%9.2f - %9.2f] %s\n", seg.Start, seg.End, seg.Text)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the transcript as JSON")
	cmd.Flags().BoolVar(&withSegments, "segments", false, "Also print timestamped segments")
	return cmd
}
