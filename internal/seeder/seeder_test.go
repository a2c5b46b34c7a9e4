package seeder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/logistics/internal/cache"
	"github.com/Additional-Code/logistics/internal/config"
	"github.com/Additional-Code/logistics/internal/database/databasetest"
	"github.com/Additional-Code/logistics/internal/messaging"
	repo "github.com/Additional-Code/logistics/internal/repository/logistics"
	"github.com/Additional-Code/logistics/internal/schema"
	service "github.com/Additional-Code/logistics/internal/service/logistics"
)

func newSeeder(t *testing.T) (*Seeder, *repo.Repository) {
	t.Helper()
	conns := databasetest.New(t)
	require.NoError(t, schema.NewManager(conns, zap.NewNop()).Ensure(context.Background()))

	r := repo.NewRepository(conns, zap.NewNop())
	svc := service.NewService(service.Params{
		Repository: r,
		Cache:      cache.NewNoop(),
		Config:     config.Config{Cache: config.Cache{DefaultTTL: time.Minute}},
		Logger:     zap.NewNop(),
		Publisher:  messaging.NewNoop("logistics.events"),
	})
	return New(r, svc, zap.NewNop()), r
}

func TestRunSeedsLinkedInventoryOnce(t *testing.T) {
	s, r := newSeeder(t)
	ctx := context.Background()

	res, err := s.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{Suppliers: 2, Items: 3, Shipments: 3}, res)

	rows, err := r.Search(ctx, repo.SearchFilter{SupplierName: "northwind"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		require.NotNil(t, row.SupplierName)
		assert.Equal(t, "Northwind Freight", *row.SupplierName)
		assert.NotNil(t, row.ShipmentID)
		assert.NotNil(t, row.ShipmentDate)
	}

	pending, err := r.Search(ctx, repo.SearchFilter{Status: "pending"})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Nil(t, pending[0].ShipmentDate)

	again, err := s.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, again)

	suppliers, err := r.ListSuppliers(ctx)
	require.NoError(t, err)
	assert.Len(t, suppliers, 2)
}
