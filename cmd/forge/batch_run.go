package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"forge/internal/batch"
	"forge/internal/config"
	"forge/internal/queue"
)


// runBatch drives the batch runner and prints the outcome. Terminal output
// goes through the reporter; the structured log goes to the log file.
func runBatch(runCtx context.Context, ctx *commandContext, cmd *cobra.Command, cfg *config.Config, store *queue.Store) error {
	logger, err := ctx.newLogger(false)
	if err != nil {
		return err
	}

	runner, err := batch.NewRunner(cfg, store, logger,
		batch.WithReporter(newBatchReporter(cmd.OutOrStdout(), cfg.Batch.Workers)),
	)
	if err != nil {
		return err
	}

	summary, runErr := runner.Run(runCtx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	out := cmd.OutOrStdout()
	switch {
	case errors.Is(runErr, context.Canceled):
		fmt.Fprintf(out, "Interrupted: %d completed, %d failed, %d cancelled\n",
			summary.Completed, summary.Failed, summary.Cancelled)
	case summary.Processed() == 0:
		fmt.Fprintln(out, "Queue is empty")
	case summary.Failed == 0:
		fmt.Fprintf(out, "Converted %d files in %s\n",
			summary.Completed, summary.Duration.Round(time.Second))
	default:
		fmt.Fprintf(out, "Converted %d files, %d failed in %s\n",
			summary.Completed, summary.Failed, summary.Duration.Round(time.Second))
	}
	return runErr
}
