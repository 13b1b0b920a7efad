package main

import (
	"github.com/aretw0/mazecode/internal/cli"
	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play [level]",
	Short: "Edit and run a level interactively in the terminal",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := runOptions(cmd, args)
		opts.SaveSlot, _ = cmd.Flags().GetString("slot")
		return cli.RunPlay(cli.ResolveLevel(opts))
	},
}

func init() {
	rootCmd.AddCommand(playCmd)
	playCmd.Flags().String("slot", "", "Resume programs from this save slot and save them on exit")
}
