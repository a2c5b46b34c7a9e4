package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/logistics/internal/config"
	dbconn "github.com/Additional-Code/logistics/internal/database"
	"github.com/Additional-Code/logistics/internal/logger"
	"github.com/Additional-Code/logistics/internal/schema"
)

// Module provides the Migrator to Fx.
var Module = fx.Provide(New)

// Migrator applies versioned schema changes through goose.
type Migrator struct {
	provider *goose.Provider
	logger   *zap.Logger
}

// Migrations returns the ordered schema versions. Version 1 creates the
// Supplier, LogisticsItem and Shipment tables.
func Migrations(m *schema.Manager) []*goose.Migration {
	return []*goose.Migration{
		goose.NewGoMigration(1,
			&goose.GoFunc{RunTx: func(ctx context.Context, tx *sql.Tx) error { return m.EnsureConn(ctx, tx) }},
			&goose.GoFunc{RunTx: func(ctx context.Context, tx *sql.Tx) error { return m.DropConn(ctx, tx) }},
		),
	}
}

// New constructs a goose-backed migrator on the writer connection.
func New(cfg config.Config, conns *dbconn.Connections, schemaManager *schema.Manager, log *zap.Logger) (*Migrator, error) {
	dialect, err := gooseDialect(cfg.Database.Driver)
	if err != nil {
		return nil, err
	}
	provider, err := goose.NewProvider(dialect, conns.Writer.DB, nil,
		goose.WithGoMigrations(Migrations(schemaManager)...),
		goose.WithDisableGlobalRegistry(true),
	)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return &Migrator{provider: provider, logger: logger.Component(log, "migration")}, nil
}

// Up applies all pending migrations.
func (m *Migrator) Up(ctx context.Context) error {
	results, err := m.provider.Up(ctx)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		m.logger.Info("no migrations to apply")
		return nil
	}
	for _, r := range results {
		m.logger.Info("migration applied", zap.Int64("version", r.Source.Version), zap.Duration("duration", r.Duration))
	}
	return nil
}

// Down rolls back migrations. Steps <=0 defaults to 1; all=true rolls everything back.
func (m *Migrator) Down(ctx context.Context, steps int, all bool) error {
	if all {
		results, err := m.provider.DownTo(ctx, 0)
		if err != nil {
			return err
		}
		m.logger.Info("migrations rolled back", zap.String("mode", "all"), zap.Int("count", len(results)))
		return nil
	}

	steps = max(steps, 1)
	for i := 0; i < steps; i++ {
		r, err := m.provider.Down(ctx)
		if err != nil {
			if isNoMigrationErr(err) {
				m.logger.Info("no migrations to rollback")
				return nil
			}
			return err
		}
		m.logger.Info("migration rolled back", zap.Int64("version", r.Source.Version))
	}
	return nil
}

// Version returns the current schema version, 0 when nothing is applied.
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	return m.provider.GetDBVersion(ctx)
}

// Pending reports how many known migrations are not applied yet.
func (m *Migrator) Pending(ctx context.Context) (int, error) {
	statuses, err := m.provider.Status(ctx)
	if err != nil {
		return 0, err
	}
	pending := 0
	for _, s := range statuses {
		if s.State == goose.StatePending {
			pending++
		}
	}
	return pending, nil
}

func gooseDialect(driver string) (database.Dialect, error) {
	switch driver {
	case "postgres":
		return database.DialectPostgres, nil
	case "mysql":
		return database.DialectMySQL, nil
	case "sqlite":
		return database.DialectSQLite3, nil
	default:
		return "", fmt.Errorf("unsupported goose dialect for driver %s", driver)
	}
}

func isNoMigrationErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, goose.ErrNoNextVersion) {
		return true
	}
	return strings.Contains(err.Error(), "no migrations")
}
