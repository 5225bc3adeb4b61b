package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"forge/internal/config"
	"forge/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the conversion queue",
	}

	queueCmd.AddCommand(newQueueAddCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))

	return queueCmd
}

func newQueueAddCommand(ctx *commandContext) *cobra.Command {
	var flags settingsFlags

	cmd := &cobra.Command{
		Use:   "add <file|folder>...",
		Short: "Enqueue files without converting them",
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

				jobs, err := enqueueFiles(cmd.Context(), cfg, store, files, settings, presetName, outputDir)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Enqueued %d files; run `forge run` to convert them\n", len(jobs))
				return nil
			})
		},
	}

	flags.register(cmd)
	return cmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var statusFilter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				var jobs []*queue.Job
				var err error
				if statusFilter != "" {
					status, ok := queue.ParseStatus(statusFilter)
					if !ok {
						return fmt.Errorf("unknown status %q", statusFilter)
					}
					jobs, err = store.JobsByStatus(cmd.Context(), status)
				} else {
					jobs, err = store.List(cmd.Context())
				}
				if err != nil {
					return err
				}
				if len(jobs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}

				rows := make([][]string, 0, len(jobs))
				for _, job := range jobs {
					rows = append(rows, []string{
						strconv.FormatInt(job.ID, 10),
						filepath.Base(job.SourcePath),
						jobPresetLabel(job),
						string(job.Status),
						jobProgressLabel(job),
						jobSizeLabel(job),
					})
				}
				table := renderTable(
					[]tableColumn{
						numCol("ID"), textCol("File"), textCol("Preset"),
						textCol("Status"), numCol("Progress"), numCol("Size"),
					},
					rows,
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&statusFilter, "status", "s", "", "Filter by job status")
	return cmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue status summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				summary, err := store.Health(cmd.Context())
				if err != nil {
					return err
				}
				if summary.Total == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}

				rows := [][]string{
					{string(queue.StatusPending), strconv.Itoa(summary.Pending)},
					{string(queue.StatusRunning), strconv.Itoa(summary.Running)},
					{string(queue.StatusCompleted), strconv.Itoa(summary.Completed)},
					{string(queue.StatusFailed), strconv.Itoa(summary.Failed)},
					{string(queue.StatusCancelled), strconv.Itoa(summary.Cancelled)},
				}
				table := renderTable([]tableColumn{textCol("Status"), numCol("Count")}, rows)
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, table)
				fmt.Fprintf(out, "Batch state: %s\n", summary.State())
				return nil
			})
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var clearAll bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove finished and pending jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				removed, err := store.Clear(cmd.Context(), clearAll)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d jobs\n", removed)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clearAll, "all", false, "Also remove running jobs")
	return cmd
}

func jobPresetLabel(job *queue.Job) string {
	if job.PresetName != "" {
		return job.PresetName
	}
	return "custom"
}

func jobProgressLabel(job *queue.Job) string {
	if job.Status == queue.StatusRunning {
		return fmt.Sprintf("%.0f%%", job.ProgressPercent)
	}
	if job.Status.IsTerminal() && job.FinishedAt != nil && job.StartedAt != nil {
		return job.FinishedAt.Sub(*job.StartedAt).Round(time.Second).String()
	}
	return ""
}

func jobSizeLabel(job *queue.Job) string {
	if job.SourceSize <= 0 {
		return ""
	}
	return humanize.Bytes(uint64(job.SourceSize))
}
