package main

import (
	"fmt"

	"github.com/aretw0/mazecode/internal/cli"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [level]",
	Short: "Export the programs as a Mermaid diagram",
	Long: `Outputs a Mermaid diagram (graph TD) with one subgraph per program and dotted
edges for subprogram calls. With --run the main program is executed first and
visited or blocked instructions are highlighted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := cli.ResolveLevel(runOptions(cmd, args))
		run, _ := cmd.Flags().GetBool("run")

		output, err := cli.GraphLevel(cmd.Context(), opts.LevelPath, run)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), output)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().Bool("run", false, "Overlay the steps of one run")
}
