package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"forge/internal/config"
	"forge/internal/queue"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var flags settingsFlags
	var workers int

	cmd := &cobra.Command{
		Use:   "convert <file|folder>...",
		Short: "Enqueue files and convert them immediately",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				settings, presetName, err := flags.resolve(cmd, ctx.presets())
				if err != nil {
					return err
				}
				outputDir, err := flags.resolveOutputDir(cfg)
				if err != nil {
					return err
				}
				files, err := collectAudioFiles(args)
				if err != nil {
					return err
				}
				if len(files) == 0 {
					return errors.New("no audio files found")
				}

				if cmd.Flags().Changed("workers") {
					cfg.Batch.Workers = workers
				}

				runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				jobs, err := enqueueFiles(runCtx, cfg, store, files, settings, presetName, outputDir)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Enqueued %d files\n", len(jobs))

				return runBatch(runCtx, ctx, cmd, cfg, store)
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent conversions for this run")
	return cmd
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Convert everything pending in the queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				if cmd.Flags().Changed("workers") {
					cfg.Batch.Workers = workers
				}

				runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				reset, err := store.ResetStuckRunning(runCtx)
				if err != nil {
					return err
				}
				if reset > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "Reset %d interrupted jobs to pending\n", reset)
				}

				return runBatch(runCtx, ctx, cmd, cfg, store)
			})
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent conversions for this run")
	return cmd
}
