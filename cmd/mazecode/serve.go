package main

import (
	"github.com/aretw0/mazecode/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve [level]",
	Short: "Start the HTTP server",
	Long: `Serves one level session over a JSON API: program edits, runs, save slots,
a Server-Sent Events stream of run events, the run trace on /trace and
Prometheus metrics on /metrics.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetInt("port")
		pace, _ := cmd.Flags().GetDuration("pace")
		return cli.Serve(cli.ServeOptions{
			RunOptions: cli.ResolveLevel(runOptions(cmd, args)),
			Port:       port,
			Pace:       pace,
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().Duration("pace", 0, "Wait between the steps of a run so it can be watched and stopped (e.g. 200ms)")
}
