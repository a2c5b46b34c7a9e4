package schema

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/logistics/internal/config"
	"github.com/Additional-Code/logistics/internal/database"
	"github.com/Additional-Code/logistics/internal/entity"
)

// Module provides the schema manager and provisions tables on start when enabled.
var Module = fx.Options(
	fx.Provide(NewManager),
	fx.Invoke(register),
)

type foreignKey struct {
	column    string
	refTable  string
	refColumn string
}

// Table describes one managed table and the keys it references.
type Table struct {
	Name        string
	Model       any
	foreignKeys []foreignKey
}

// Tables lists managed tables in dependency order: referenced tables first.
func Tables() []Table {
	return []Table{
		{
			Name:  "Supplier",
			Model: (*entity.Supplier)(nil),
		},
		{
			Name:  "LogisticsItem",
			Model: (*entity.LogisticsItem)(nil),
			foreignKeys: []foreignKey{
				{column: "SupplierID", refTable: "Supplier", refColumn: "SupplierID"},
			},
		},
		{
			Name:  "Shipment",
			Model: (*entity.Shipment)(nil),
			foreignKeys: []foreignKey{
				{column: "ItemID", refTable: "LogisticsItem", refColumn: "ItemID"},
				{column: "SupplierID", refTable: "Supplier", refColumn: "SupplierID"},
			},
		},
	}
}

// Manager creates and drops the logistics tables.
type Manager struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewManager builds a Manager on the writer connection.
func NewManager(conns *database.Connections, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{db: conns.Writer, logger: logger}
}

// Ensure creates any missing table. Existing tables are left untouched.
func (m *Manager) Ensure(ctx context.Context) error {
	return m.EnsureConn(ctx, m.db)
}

// EnsureConn runs Ensure against an explicit connection such as a migration handle.
func (m *Manager) EnsureConn(ctx context.Context, conn bun.IConn) error {
	for _, table := range Tables() {
		q := m.db.NewCreateTable().
			Conn(conn).
			Model(table.Model).
			IfNotExists()
		for _, fk := range table.foreignKeys {
			q = q.ForeignKey("(?) REFERENCES ? (?)",
				bun.Ident(fk.column), bun.Ident(fk.refTable), bun.Ident(fk.refColumn))
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("create table %s: %w", table.Name, err)
		}
		m.logger.Debug("table ensured", zap.String("table", table.Name))
	}
	return nil
}

// Drop removes the tables in reverse dependency order.
func (m *Manager) Drop(ctx context.Context) error {
	return m.DropConn(ctx, m.db)
}

// DropConn runs Drop against an explicit connection.
func (m *Manager) DropConn(ctx context.Context, conn bun.IConn) error {
	tables := Tables()
	for i := len(tables) - 1; i >= 0; i-- {
		_, err := m.db.NewDropTable().
			Conn(conn).
			Model(tables[i].Model).
			IfExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("drop table %s: %w", tables[i].Name, err)
		}
	}
	return nil
}

func register(lc fx.Lifecycle, cfg config.Config, m *Manager) {
	if !cfg.Database.EnsureSchema {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := m.Ensure(ctx); err != nil {
				return fmt.Errorf("ensure schema: %w", err)
			}
			m.logger.Info("schema ready")
			return nil
		},
	})
}
