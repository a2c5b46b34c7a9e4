package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// SearchRow is one row of the item ⟕ supplier ⟕ shipment join. Supplier and
// shipment columns are nil when the corresponding side did not match.
type SearchRow struct {
	bun.BaseModel `bun:"table:LogisticsItem,alias:li"`

	ItemID   int64   `bun:"ItemID"`
	ItemName string  `bun:"ItemName"`
	Quantity *int64  `bun:"Quantity"`
	Unit     *string `bun:"Unit"`
	Category *string `bun:"Category"`

	SupplierID    *int64  `bun:"SupplierID"`
	SupplierName  *string `bun:"SupplierName"`
	ContactNumber *string `bun:"ContactNumber"`
	Email         *string `bun:"Email"`
	Address       *string `bun:"Address"`

	ShipmentID     *int64     `bun:"ShipmentID"`
	ShipmentDate   *time.Time `bun:"ShipmentDate"`
	Status         *string    `bun:"Status"`
	Carrier        *string    `bun:"Carrier"`
	TrackingNumber *string    `bun:"TrackingNumber"`
}
