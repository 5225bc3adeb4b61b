package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"forge/internal/config"
	"forge/internal/deps"
	"forge/internal/queue"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show resolved tools and queue health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				for _, line := range renderSectionHeader("Tools", colorize) {
					fmt.Fprintln(out, line)
				}
				for _, status := range deps.CheckTools(cmd.Context(), cfg) {
					kind := statusOK
					message := status.Command
					if status.Version != "" {
						message = fmt.Sprintf("%s (%s)", status.Command, status.Version)
					}
					if !status.Available {
						kind = statusError
						if status.Optional {
							kind = statusWarn
						}
						message = status.Detail
					}
					fmt.Fprintln(out, renderStatusLine(status.Name, kind, message, colorize))
				}

				summary, err := store.Health(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(out)
				for _, line := range renderSectionHeader("Queue", colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintln(out, renderStatusLine("Database", statusInfo, store.Path(), colorize))
				fmt.Fprintln(out, renderStatusLine("State", statusInfo, string(summary.State()), colorize))
				fmt.Fprintln(out, renderStatusLine("Pending", statusInfo, fmt.Sprintf("%d", summary.Pending), colorize))
				fmt.Fprintln(out, renderStatusLine("Completed", statusInfo, fmt.Sprintf("%d", summary.Completed), colorize))
				failedKind := statusInfo
				if summary.Failed > 0 {
					failedKind = statusWarn
				}
				fmt.Fprintln(out, renderStatusLine("Failed", failedKind, fmt.Sprintf("%d", summary.Failed), colorize))
				return nil
			})
		},
	}
}
