package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/mazecode"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of mazecode",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mazecode version %s\n", strings.TrimSpace(mazecode.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
