// cmd/weldsync/root.go
package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nordweld/weldsync/pkg/config"
	"github.com/nordweld/weldsync/pkg/connector"
	"github.com/nordweld/weldsync/pkg/retry"
)

var rootCmd = &cobra.Command{
	Use:           "weldsync",
	Short:         "Weld inspection extract ingestion and master data synchronization",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// newLogger builds the process logger from configuration. JSON output for
// scheduled runs, console output when someone runs the tool by hand.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	var zapCfg zap.Config
	if cfg.LogFormat == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

// setup loads configuration, builds the logger, and connects to the
// database. Shared by every subcommand that talks to MySQL.
func setup(ctx context.Context) (*config.Config, *zap.Logger, *connector.MySQLConnector, *retry.Retrier, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, nil, nil, err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	retrier := retry.New(logger)
	conn := connector.NewMySQLConnector(cfg.MySQL, logger, retrier)
	if err := conn.Connect(ctx); err != nil {
		return nil, nil, nil, nil, err
	}
	if err := conn.Validate(ctx); err != nil {
		conn.Close()
		return nil, nil, nil, nil, err
	}

	return cfg, logger, conn, retrier, nil
}
