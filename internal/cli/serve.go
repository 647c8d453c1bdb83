package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"filedrop/internal/filedrop/core/upload"
	"filedrop/internal/filedrop/files"
	"filedrop/internal/filedrop/server"
	"filedrop/internal/filedrop/state"
	"filedrop/pkg/config"
	"filedrop/pkg/logger"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the public and admin servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	cfg, cfgPath, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	level, err := logger.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}

	// the log hub tees every log line to connected admin watchers
	logHub := server.NewLogHub(cfg.Admin.CORSOrigins)
	logger.Configure(logger.Config{
		Level:  level,
		Output: io.MultiWriter(os.Stdout, logHub),
	})

	logger.Info("configuration loaded", "source", cfgPath)
	if cfg.Admin.APIKey == config.DefaultAPIKey {
		logger.Warn("admin API key is the default, set admin.apiKey before exposing this server")
	}

	if err := os.MkdirAll(cfg.Files.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create files directory %s: %w", cfg.Files.Dir, err)
	}

	filesSvc := files.NewService(cfg.Files.Dir)
	coordinator := upload.NewCoordinator(cfg.Files.Dir, state.NewRegistry())
	adminAPI := server.NewAdminAPI(filesSvc, coordinator, logHub, cfg.Admin)

	srv := server.New(cfg, server.PublicHandler(cfg.Files.Dir), adminAPI.Handler())
	return srv.Run(context.Background())
}
