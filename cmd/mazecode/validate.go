package main

import (
	"fmt"

	"github.com/aretw0/mazecode/internal/cli"
	"github.com/aretw0/mazecode/pkg/level"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [level]",
	Short: "Check a level for consistency",
	Long:  `Parses the level, checks its board, palette and programs, and reports every problem found.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := cli.ResolveLevel(runOptions(cmd, args))
		if err := cli.ValidateLevel(opts.LevelPath); err != nil {
			if errs := level.ValidationErrors(err); len(errs) > 0 {
				for _, e := range errs {
					fmt.Fprintf(cmd.ErrOrStderr(), "  - %v\n", e)
				}
				return fmt.Errorf("validation failed: %d problems", len(errs))
			}
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Level is valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
