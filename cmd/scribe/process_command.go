package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"scribe/internal/catalog"
	"scribe/internal/pipeline"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var all bool
	var showText bool

	cmd := &cobra.Command{
		Use:   "process [recording-id]",
		Short: "Transcribe a chunked recording and reconcile the transcript",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) == 1) {
				return fmt.Errorf("provide either a recording id or --all")
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return ctx.withPipeline(runCtx, func(runCtx context.Context, p *pipeline.Pipeline, _ *slog.Logger) error {
				ids := args
				if all {
					chunked, err := p.List(runCtx, catalog.StatusChunked)
					if err != nil {
						return err
					}
					if len(chunked) == 0 {
						fmt.Fprintln(cmd.OutOrStdout(), "No chunked recordings to process")
						return nil
					}
					ids = make([]string, 0, len(chunked))
					for _, rec := range chunked {
						ids = append(ids, rec.ID)
					}
				}

				out := cmd.OutOrStdout()
				var firstErr error
				for _, id := range ids {
					transcript, err := p.Process(runCtx, id)
					if err != nil {
						if firstErr == nil {
							firstErr = err
						}
						fmt.Fprintf(out, "%s: failed: %v\n", id, err)
						continue
					}
					fmt.Fprintf(out, "%s: completed (%d segments, languages: %s)\n",
						id, len(transcript.Segments), formatLanguages(transcript.Languages))
					if showText {
						fmt.Fprintln(out, transcript.FullText)
					}
				}
				return firstErr
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Process every chunked recording")
	cmd.Flags().BoolVar(&showText, "show-text", false, "Print the reconciled transcript text")
	return cmd
}

func newRetryCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "retry [recording-id]",
		Short: "Reprocess failed recordings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) == 1) {
				return fmt.Errorf("provide either a recording id or --all")
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return ctx.withPipeline(runCtx, func(runCtx context.Context, p *pipeline.Pipeline, _ *slog.Logger) error {
				ids := args
				if all {
					failed, err := p.List(runCtx, catalog.StatusFailed)
					if err != nil {
						return err
					}
					if len(failed) == 0 {
						fmt.Fprintln(cmd.OutOrStdout(), "No failed recordings to retry")
						return nil
					}
					ids = make([]string, 0, len(failed))
					for _, rec := range failed {
						ids = append(ids, rec.ID)
					}
				}

				out := cmd.OutOrStdout()
				var firstErr error
				for _, id := range ids {
					transcript, err := p.Process(runCtx, id)
					if err != nil {
						if firstErr == nil {
							firstErr = err
						}
						fmt.Fprintf(out, "%s: failed: %v\n", id, err)
						continue
					}
					fmt.Fprintf(out, "%s: completed (%d segments, languages: %s)\n",
						id, len(transcript.Segments), formatLanguages(transcript.Languages))
				}
				return firstErr
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Retry every failed recording")
	return cmd
}

func newRecoverCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "recover",
		Short: "Return recordings stranded in processing by a crashed run to chunked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withPipeline(cmd.Context(), func(runCtx context.Context, p *pipeline.Pipeline, _ *slog.Logger) error {
				ids, err := p.RecoverStuck(runCtx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(ids) == 0 {
					fmt.Fprintln(out, "No stuck recordings")
					return nil
				}
				for _, id := range ids {
					fmt.Fprintf(out, "reset %s to chunked\n", id)
				}
				return nil
			})
		},
	}
}
