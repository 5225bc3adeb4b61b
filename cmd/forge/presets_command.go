package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newPresetsCommand(ctx *commandContext) *cobra.Command {
	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "List the available conversion presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPresetList(cmd, ctx)
		},
	}

	presetsCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the available conversion presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPresetList(cmd, ctx)
		},
	})
	presetsCmd.AddCommand(newPresetsShowCommand(ctx))
	return presetsCmd
}

func runPresetList(cmd *cobra.Command, ctx *commandContext) error {
	registry := ctx.presets()
	rows := make([][]string, 0)
	for _, name := range registry.Names() {
		p, err := registry.Get(name)
		if err != nil {
			return err
		}
		s := p.Settings
		rows = append(rows, []string{
			p.Name,
			string(s.Format),
			string(s.Quality),
			strconv.Itoa(s.SampleRate),
			strconv.Itoa(s.Channels),
			yesNo(s.Normalize),
			yesNo(s.TrimSilence),
		})
	}
	table := renderTable(
		[]tableColumn{
			textCol("Name"), textCol("Format"), textCol("Quality"),
			numCol("Rate"), numCol("Ch"), textCol("Normalize"), textCol("Trim"),
		},
		rows,
	)
	fmt.Fprintln(cmd.OutOrStdout(), table)
	return nil
}

func newPresetsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show one preset in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := ctx.presets().Get(args[0])
			if err != nil {
				return err
			}
			s := p.Settings
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Name:         %s\n", p.Name)
			fmt.Fprintf(out, "Format:       %s\n", s.Format)
			fmt.Fprintf(out, "Quality:      %s\n", s.Quality)
			fmt.Fprintf(out, "Sample rate:  %d Hz\n", s.SampleRate)
			fmt.Fprintf(out, "Channels:     %d\n", s.Channels)
			fmt.Fprintf(out, "Normalize:    %s\n", yesNo(s.Normalize))
			fmt.Fprintf(out, "Trim silence: %s\n", yesNo(s.TrimSilence))
			return nil
		},
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
