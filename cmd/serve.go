package cmd

import (
	"github.com/spf13/cobra"

	"github.com/we-kode/mml.media/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the media catalog service",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := initRuntime()
		server.Start(cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
