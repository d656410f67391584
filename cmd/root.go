package cmd

import (
	"fmt"
	"os"

	"frameline/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "frameline",
	Short: "Frameline is the timeline composition service for generated media.",
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
