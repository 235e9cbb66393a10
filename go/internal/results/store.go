package results

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mcdev12/binaryquiz/go/internal/results/db"
	"github.com/rs/zerolog/log"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Open connects to the results database and creates its tables.
func Open(ctx context.Context, dialect db.Dialect, dsn string) (*sql.DB, error) {
	switch dialect {
	case db.DialectPostgres, db.DialectSQLite:
	default:
		return nil, fmt.Errorf("unsupported results driver %q", dialect)
	}

	conn, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}
	if dialect == db.DialectSQLite {
		// A single connection keeps in-memory databases shared and serializes writers
		conn.SetMaxOpenConns(1)
	}

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := db.Migrate(ctx, conn, dialect); err != nil {
		_ = conn.Close()
		return nil, err
	}

	log.Info().Str("driver", string(dialect)).Msg("connected to results database")
	return conn, nil
}
