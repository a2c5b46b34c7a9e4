package seeder

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/logistics/internal/entity"
	"github.com/Additional-Code/logistics/internal/logger"
	repo "github.com/Additional-Code/logistics/internal/repository/logistics"
	service "github.com/Additional-Code/logistics/internal/service/logistics"
)

// Module provides the Seeder to Fx.
var Module = fx.Provide(New)

// Seeder loads a small sample inventory for local/dev setups.
type Seeder struct {
	repo   *repo.Repository
	svc    *service.Service
	logger *zap.Logger
}

// Result counts the records a seed run created.
type Result struct {
	Suppliers int
	Items     int
	Shipments int
}

// New constructs a Seeder. Records are created through the service so the
// listing caches are invalidated and created events are published.
func New(repository *repo.Repository, svc *service.Service, log *zap.Logger) *Seeder {
	return &Seeder{repo: repository, svc: svc, logger: logger.Component(log, "seeder")}
}

type sampleItem struct {
	name, unit, category string
	quantity             int64
	status, carrier      string
	shippedDaysAgo       int
}

type sampleSupplier struct {
	name, phone, email, address string
	items                       []sampleItem
}

var samples = []sampleSupplier{
	{
		name: "Northwind Freight", phone: "+1-555-0100", email: "ops@northwind.example", address: "12 Harbor Road, Seattle",
		items: []sampleItem{
			{name: "Steel Toolbox", unit: "pcs", category: "tools", quantity: 40, status: "delivered", carrier: "UPS", shippedDaysAgo: 10},
			{name: "Pallet Wrap", unit: "rolls", category: "packaging", quantity: 120, status: "in_transit", carrier: "DHL", shippedDaysAgo: 2},
		},
	},
	{
		name: "Contoso Supplies", phone: "+1-555-0142", email: "sales@contoso.example", address: "7 Market Street, Denver",
		items: []sampleItem{
			{name: "Safety Gloves", unit: "pairs", category: "safety", quantity: 300, status: "pending", carrier: "FedEx"},
		},
	},
}

// Run seeds the sample data unless suppliers already exist.
func (s *Seeder) Run(ctx context.Context) (Result, error) {
	var res Result

	existing, err := s.repo.ListSuppliers(ctx)
	if err != nil {
		return res, err
	}
	if len(existing) > 0 {
		s.logger.Info("suppliers present; skipping seed", zap.Int("suppliers", len(existing)))
		return res, nil
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	for _, sample := range samples {
		supplier := entity.Supplier{
			SupplierName:  sample.name,
			ContactNumber: &sample.phone,
			Email:         &sample.email,
			Address:       &sample.address,
		}
		if err := s.svc.CreateSupplier(ctx, &supplier); err != nil {
			return res, fmt.Errorf("seed supplier %s: %w", sample.name, err)
		}
		res.Suppliers++

		for _, si := range sample.items {
			item := entity.LogisticsItem{
				ItemName:   si.name,
				Quantity:   &si.quantity,
				Unit:       &si.unit,
				Category:   &si.category,
				SupplierID: &supplier.SupplierID,
			}
			if err := s.svc.CreateItem(ctx, &item); err != nil {
				return res, fmt.Errorf("seed item %s: %w", si.name, err)
			}
			res.Items++

			tracking := fmt.Sprintf("TRK-%d-%d", supplier.SupplierID, item.ItemID)
			shipment := entity.Shipment{
				ItemID:         &item.ItemID,
				SupplierID:     &supplier.SupplierID,
				Status:         &si.status,
				Carrier:        &si.carrier,
				TrackingNumber: &tracking,
			}
			if si.status != "pending" {
				shipped := today.AddDate(0, 0, -si.shippedDaysAgo)
				shipment.ShipmentDate = &shipped
			}
			if err := s.svc.CreateShipment(ctx, &shipment); err != nil {
				return res, fmt.Errorf("seed shipment %s: %w", tracking, err)
			}
			res.Shipments++
		}
	}

	s.logger.Info("seeded inventory",
		zap.Int("suppliers", res.Suppliers),
		zap.Int("items", res.Items),
		zap.Int("shipments", res.Shipments),
	)
	return res, nil
}
