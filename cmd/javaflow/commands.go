package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/ukoquique-proves/JavaFlow/internal/config"
	"github.com/ukoquique-proves/JavaFlow/internal/container"
	"github.com/ukoquique-proves/JavaFlow/internal/infrastructure/security"
	"github.com/ukoquique-proves/JavaFlow/pkg/database"
	"github.com/ukoquique-proves/JavaFlow/pkg/utils"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API, event bus and background workers",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, logger, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			logger.Info("Starting JavaFlow",
				zap.Int("port", cfg.Server.Port),
				zap.String("engine", cfg.Engine.Driver),
				zap.String("cache", cfg.Cache.Driver))

			c, err := container.NewContainer(cfg.ToContainerConfig(), logger)
			if err != nil {
				return err
			}
			if err := c.Start(ctx); err != nil {
				return err
			}
			defer func() {
				if err := c.Close(); err != nil {
					logger.Error("Shutdown finished with errors", zap.Error(err))
				}
			}()

			// blocks until SIGINT/SIGTERM cancels ctx
			return c.Server().Start(ctx)
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply pending database migrations and exit",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, logger, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			db, err := database.New(database.Config{
				Path:        cfg.Database.Path,
				BusyTimeout: cfg.Database.BusyTimeout,
			}, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := database.NewMigrator(db, logger).Run()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.Root().Writer, "applied %d migration(s)\n", applied)
			return nil
		},
	}
}

func genKeyCommand() *cli.Command {
	return &cli.Command{
		Name:  "gen-key",
		Usage: "Print a new base64 encryption key for security.encryption_key",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			key, err := security.GenerateKey()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.Root().Writer, key)
			return nil
		},
	}
}

// bootstrap loads configuration and builds the logger. A missing default config file
// is tolerated so the service can run from environment variables alone.
func bootstrap(cmd *cli.Command) (*config.Config, *zap.Logger, error) {
	path := cmd.String("config")
	if !cmd.IsSet("config") {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, logger, nil
}
