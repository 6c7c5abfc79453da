package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed sql
var embedded embed.FS

// Run applies the schema required for the back-office API.
func Run(ctx context.Context, db *sqlx.DB, log *zap.Logger) error {
	var (
		dialect goose.Dialect
		dir     string
	)
	switch db.DriverName() {
	case "postgres":
		dialect, dir = goose.DialectPostgres, "sql/postgres"
	case "sqlite":
		dialect, dir = goose.DialectSQLite3, "sql/sqlite"
	default:
		return fmt.Errorf("no migrations for driver %q", db.DriverName())
	}

	fsys, err := fs.Sub(embedded, dir)
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(dialect, db.DB, fsys)
	if err != nil {
		return fmt.Errorf("migration provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	for _, r := range results {
		log.Info("migration applied",
			zap.Int64("version", r.Source.Version),
			zap.Duration("took", r.Duration))
	}
	return nil
}
