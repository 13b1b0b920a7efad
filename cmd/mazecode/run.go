package main

import (
	"github.com/aretw0/mazecode/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [level]",
	Short: "Run a level's main program once",
	Long: `Loads a level (a YAML file, or a directory holding level.yaml), runs its
main program to completion and prints every settled move.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := runOptions(cmd, args)
		opts.Watch, _ = cmd.Flags().GetBool("watch")
		opts.JSON, _ = cmd.Flags().GetBool("json")
		opts.Quiet, _ = cmd.Flags().GetBool("quiet")
		opts.SaveSlot, _ = cmd.Flags().GetString("slot")
		opts.Fresh, _ = cmd.Flags().GetBool("fresh")
		opts.Trace, _ = cmd.Flags().GetBool("trace")
		return cli.Execute(opts)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("json", false, "Print events as NDJSON")
	runCmd.Flags().BoolP("watch", "w", false, "Rerun whenever the level file changes")
	runCmd.Flags().BoolP("quiet", "q", false, "Do not print the banner")
	runCmd.Flags().String("slot", "", "Resume programs from this save slot and save them after the run")
	runCmd.Flags().Bool("fresh", false, "Discard the save slot before running")
	runCmd.Flags().Bool("trace", false, "Print the recorded lifecycle trace after the run")
}
