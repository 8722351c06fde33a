// pkg/connector/mysql.go
package connector

import (
	"context"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/nordweld/weldsync/pkg/config"
	"github.com/nordweld/weldsync/pkg/retry"
)

// MySQLConnector implements DatabaseConnector for MySQL / MariaDB.
type MySQLConnector struct {
	config  *config.MySQLConfig
	db      *sqlx.DB
	logger  *zap.Logger
	retrier *retry.Retrier
}

// NewMySQLConnector creates a connector from configuration. The connection is
// not opened until Connect is called.
func NewMySQLConnector(cfg *config.MySQLConfig, logger *zap.Logger, retrier *retry.Retrier) *MySQLConnector {
	return &MySQLConnector{
		config:  cfg,
		logger:  logger,
		retrier: retrier,
	}
}

// Connect opens the pool and verifies it with a ping. Transient failures
// (server still starting, brief network loss) go through the shared retry
// schedule.
func (c *MySQLConnector) Connect(ctx context.Context) error {
	dsn := c.config.DSN()

	c.logger.Info("Connecting to MySQL",
		zap.String("host", c.config.Host),
		zap.Int("port", c.config.Port),
		zap.String("database", c.config.Database))

	err := c.retrier.Do("mysql connect", func() error {
		db, err := sqlx.Open("mysql", dsn)
		if err != nil {
			return fmt.Errorf("failed to open connection: %w", err)
		}

		db.SetMaxOpenConns(c.config.MaxOpenConns)
		db.SetMaxIdleConns(c.config.MaxIdleConns)
		db.SetConnMaxLifetime(c.config.ConnMaxLifetime)
		db.SetConnMaxIdleTime(c.config.ConnMaxIdleTime)

		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return fmt.Errorf("failed to ping database: %w", err)
		}

		c.db = db
		return nil
	})
	if err != nil {
		return err
	}

	c.logger.Info("Connected to MySQL",
		zap.Int("maxOpenConns", c.config.MaxOpenConns),
		zap.Int("maxIdleConns", c.config.MaxIdleConns))

	return nil
}

// DB returns the sqlx handle. Only valid after a successful Connect.
func (c *MySQLConnector) DB() *sqlx.DB {
	return c.db
}

// Validate runs a trivial query to confirm the connection is usable.
func (c *MySQLConnector) Validate(ctx context.Context) error {
	if c.db == nil {
		return fmt.Errorf("not connected")
	}

	var version string
	if err := c.db.GetContext(ctx, &version, "SELECT VERSION()"); err != nil {
		return fmt.Errorf("connection validation failed: %w", err)
	}

	c.logger.Debug("MySQL connection validated", zap.String("version", version))
	return nil
}

// Close releases the pool.
func (c *MySQLConnector) Close() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}
