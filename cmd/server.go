package cmd

import (
	"frameline/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the Frameline HTTP server",
	Long:  `Start the timeline API server: REST endpoints for track/keyframe editing plus the websocket playhead channel.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
