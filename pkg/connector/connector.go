// pkg/connector/connector.go
package connector

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// DatabaseConnector abstracts a relational database connection used by the
// pipeline stages.
type DatabaseConnector interface {
	// Connect establishes the connection and configures the pool.
	Connect(ctx context.Context) error

	// DB returns the underlying sqlx handle. Only valid after Connect.
	DB() *sqlx.DB

	// Validate performs a lightweight round trip to confirm the connection
	// is usable.
	Validate(ctx context.Context) error

	// Close releases the connection pool.
	Close() error
}
