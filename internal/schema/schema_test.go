package schema

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/Additional-Code/logistics/internal/config"
	"github.com/Additional-Code/logistics/internal/database/databasetest"
	"github.com/Additional-Code/logistics/internal/entity"
)

func tableNames(t *testing.T, m *Manager) []string {
	t.Helper()
	var names []string
	err := m.db.NewSelect().
		TableExpr("sqlite_master").
		Column("name").
		Where("type = 'table' AND name NOT LIKE 'sqlite_%'").
		OrderExpr("name").
		Scan(context.Background(), &names)
	require.NoError(t, err)
	return names
}

func TestEnsureIsIdempotent(t *testing.T) {
	m := NewManager(databasetest.New(t), zap.NewNop())
	ctx := context.Background()

	require.NoError(t, m.Ensure(ctx))
	require.NoError(t, m.Ensure(ctx))

	assert.Equal(t, []string{"LogisticsItem", "Shipment", "Supplier"}, tableNames(t, m))
}

func TestEnsureKeepsExistingRows(t *testing.T) {
	m := NewManager(databasetest.New(t), zap.NewNop())
	ctx := context.Background()
	require.NoError(t, m.Ensure(ctx))

	_, err := m.db.NewInsert().Model(&entity.Supplier{SupplierName: "Acme"}).Exec(ctx)
	require.NoError(t, err)

	require.NoError(t, m.Ensure(ctx))
	count, err := m.db.NewSelect().Model((*entity.Supplier)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestForeignKeysAreEnforced(t *testing.T) {
	m := NewManager(databasetest.New(t), zap.NewNop())
	ctx := context.Background()
	require.NoError(t, m.Ensure(ctx))

	missing := int64(42)
	_, err := m.db.NewInsert().Model(&entity.LogisticsItem{ItemName: "Pallet", SupplierID: &missing}).Exec(ctx)
	assert.Error(t, err)
}

func TestDropRemovesTables(t *testing.T) {
	m := NewManager(databasetest.New(t), zap.NewNop())
	ctx := context.Background()
	require.NoError(t, m.Ensure(ctx))

	require.NoError(t, m.Drop(ctx))
	assert.Empty(t, tableNames(t, m))

	require.NoError(t, m.Drop(ctx))
}

func TestTablesAreInDependencyOrder(t *testing.T) {
	seen := map[string]bool{}
	for _, table := range Tables() {
		for _, fk := range table.foreignKeys {
			assert.Truef(t, seen[fk.refTable], "%s references %s before it is created", table.Name, fk.refTable)
		}
		seen[table.Name] = true
	}
}

func TestRegisterProvisionsOnStart(t *testing.T) {
	m := NewManager(databasetest.New(t), zap.NewNop())
	lc := fxtest.NewLifecycle(t)

	register(lc, config.Config{Database: config.Database{EnsureSchema: true}}, m)
	lc.RequireStart()
	defer lc.RequireStop()

	assert.Len(t, tableNames(t, m), 3)
}

func TestRegisterSkipsWhenDisabled(t *testing.T) {
	m := NewManager(databasetest.New(t), zap.NewNop())
	lc := fxtest.NewLifecycle(t)

	register(lc, config.Config{}, m)
	lc.RequireStart()
	defer lc.RequireStop()

	assert.Empty(t, tableNames(t, m))
}
