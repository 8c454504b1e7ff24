package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib" // postgres driver
)

func init() {
	Register("postgres", func(logger *slog.Logger) Adapter {
		return NewPostgresAdapter(logger)
	})
}

// PostgresAdapter validates data in PostgreSQL databases via pgx.
type PostgresAdapter struct {
	BaseSQLAdapter
}

// NewPostgresAdapter creates a new PostgreSQL adapter.
func NewPostgresAdapter(logger *slog.Logger) *PostgresAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresAdapter{BaseSQLAdapter{Logger: logger}}
}

// Connect establishes a connection to PostgreSQL.
func (a *PostgresAdapter) Connect(ctx context.Context, cfg Config) error {
	dsn := buildPostgresDSN(cfg)

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	a.Logger.Debug("connected to postgres", "host", cfg.Host, "database", cfg.Database)
	return nil
}

// LoadCSV falls back to the generic row-by-row loader; server-side COPY
// requires filesystem access on the database host.
func (a *PostgresAdapter) LoadCSV(ctx context.Context, tableName, filePath string) error {
	return a.LoadCSVGeneric(ctx, tableName, filePath)
}

// DialectName returns the compiler dialect for PostgreSQL.
func (a *PostgresAdapter) DialectName() string {
	return "postgres"
}

// buildPostgresDSN constructs a keyword/value DSN from the config.
func buildPostgresDSN(cfg Config) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	sslmode := "prefer"
	if v, ok := cfg.Options["sslmode"]; ok {
		sslmode = v
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s", host, port, cfg.Database, sslmode)
	if cfg.Username != "" {
		dsn += fmt.Sprintf(" user=%s", cfg.Username)
	}
	if cfg.Password != "" {
		dsn += fmt.Sprintf(" password=%s", cfg.Password)
	}
	return dsn
}
