package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/we-kode/mml.media/config"
	"github.com/we-kode/mml.media/logger"
)

var rootCmd = &cobra.Command{
	Use:   "mml_media",
	Short: "mml.media is the media catalog service of My Media Lib.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initRuntime loads the configuration and brings up logging, shared by the
// subcommands.
func initRuntime() *config.Config {
	cfg := config.Load()
	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})
	return cfg
}
