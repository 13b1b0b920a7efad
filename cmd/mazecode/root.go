package main

import (
	"fmt"
	"os"

	"github.com/aretw0/mazecode/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mazecode",
	Short: "mazecode is a block-programming maze game",
	Long: `mazecode runs puzzle levels where an agent walks a grid following a main
program and two subprograms built from movement, turn and call blocks.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("dir", ".", "Project directory holding the level and the .mazecode data")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging to Stderr")
	rootCmd.PersistentFlags().String("log-file", "", "Also append JSON logs to this file")
	rootCmd.PersistentFlags().String("store", cli.StoreFile, "Save slot backend: memory, file, sqlite or redis")
	rootCmd.PersistentFlags().String("redis-url", "", "Redis URL for the redis store (e.g. redis://localhost:6379/0)")
}

// runOptions collects the flags shared by every level command.
// The level path is the first argument, or the project directory.
func runOptions(cmd *cobra.Command, args []string) cli.RunOptions {
	dir, _ := cmd.Flags().GetString("dir")
	debug, _ := cmd.Flags().GetBool("debug")
	logFile, _ := cmd.Flags().GetString("log-file")
	store, _ := cmd.Flags().GetString("store")
	redisURL, _ := cmd.Flags().GetString("redis-url")

	levelPath := dir
	if len(args) > 0 {
		levelPath = args[0]
	}
	return cli.RunOptions{
		LevelPath: levelPath,
		Debug:     debug,
		LogFile:   logFile,
		Store: cli.StoreOptions{
			Kind:     store,
			Dir:      dir,
			RedisURL: redisURL,
		},
	}
}
