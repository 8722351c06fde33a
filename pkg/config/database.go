// pkg/config/database.go
package config

import (
	"errors"
	"fmt"
	"time"
)

// MySQLConfig holds MySQL connection parameters.
type MySQLConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// Statement timeout applied per query context
	StatementTimeout time.Duration
}

// LoadMySQLConfig loads MySQL configuration from environment variables.
func LoadMySQLConfig() (*MySQLConfig, error) {
	user := getEnv("MYSQL_USER", "")
	if user == "" {
		return nil, errors.New("MYSQL_USER environment variable is required")
	}

	password := getEnv("MYSQL_PASSWORD", "")
	if password == "" {
		return nil, errors.New("MYSQL_PASSWORD environment variable is required")
	}

	database := getEnv("MYSQL_DATABASE", "")
	if database == "" {
		return nil, errors.New("MYSQL_DATABASE environment variable is required")
	}

	cfg := &MySQLConfig{
		Host:     getEnv("MYSQL_HOST", "localhost"),
		Port:     getEnvAsInt("MYSQL_PORT", 3306),
		User:     user,
		Password: password,
		Database: database,

		MaxOpenConns:     getEnvAsInt("MYSQL_MAX_OPEN_CONNS", 10),
		MaxIdleConns:     getEnvAsInt("MYSQL_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime:  getEnvAsSeconds("MYSQL_CONN_MAX_LIFETIME_SECONDS", 1800),
		ConnMaxIdleTime:  getEnvAsSeconds("MYSQL_CONN_MAX_IDLE_TIME_SECONDS", 600),
		StatementTimeout: getEnvAsSeconds("MYSQL_STATEMENT_TIMEOUT_SECONDS", 300),
	}

	return cfg, nil
}

// DSN returns a go-sql-driver/mysql connection string. parseTime is required
// so DATE/TIMESTAMP columns scan into time.Time; utf8mb4 matches the table
// character set of the extracts.
func (c *MySQLConfig) DSN() string {
	return fmt.Sprintf(
		"%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&multiStatements=true",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}
