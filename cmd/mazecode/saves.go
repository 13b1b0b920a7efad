package main

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/mazecode/internal/cli"
	"github.com/aretw0/mazecode/internal/logging"
	"github.com/aretw0/mazecode/pkg/session"
	"github.com/spf13/cobra"
)

var savesCmd = &cobra.Command{
	Use:   "saves",
	Short: "Manage program save slots",
	Long:  `List, inspect, and remove the save slots of the selected store.`,
}

var savesLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all save slots",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSaves(cmd, func(saves *session.Manager) error {
			return cli.WriteSaveList(cmd.Context(), cmd.OutOrStdout(), saves)
		})
	},
}

var savesShowCmd = &cobra.Command{
	Use:   "show <slot>",
	Short: "Print a save slot as level YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSaves(cmd, func(saves *session.Manager) error {
			return cli.WriteSave(cmd.Context(), cmd.OutOrStdout(), saves, args[0])
		})
	},
}

var savesRmCmd = &cobra.Command{
	Use:   "rm <slot>...",
	Short: "Remove one or more save slots",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSaves(cmd, func(saves *session.Manager) error {
			failed := 0
			for _, key := range args {
				if err := saves.Delete(cmd.Context(), key); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Error removing '%s': %v\n", key, err)
					failed++
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed save '%s'\n", key)
			}
			if failed > 0 {
				return fmt.Errorf("%d slots could not be removed", failed)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(savesCmd)
	savesCmd.AddCommand(savesLsCmd)
	savesCmd.AddCommand(savesShowCmd)
	savesCmd.AddCommand(savesRmCmd)
}

func withSaves(cmd *cobra.Command, fn func(*session.Manager) error) error {
	opts := runOptions(cmd, nil)
	logger := logging.NewNop()
	if opts.Debug {
		logger = logging.New(slog.LevelDebug)
	}
	saves, closeSaves, err := cli.OpenSaves(cmd.Context(), opts.Store, logger)
	if err != nil {
		return err
	}
	defer closeSaves()
	return fn(saves)
}
