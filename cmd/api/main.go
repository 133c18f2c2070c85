package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/notatki/notehub/internal/pkg/logger"
)

// @title Notehub API
// @version 1.0
// @description API for sharing and rating university notes
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authorization

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "notehub",
		Short:         "Notehub API server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", filepath.Join("configs", "config.yaml"), "Path to the YAML configuration file")

	serveCmd := setupServeCommand(&configPath)
	rootCmd.RunE = serveCmd.RunE
	rootCmd.AddCommand(serveCmd, setupMigrateCommand(&configPath))

	if err := rootCmd.Execute(); err != nil {
		logger.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
