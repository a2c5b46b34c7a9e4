package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Shipment records the movement of an item. Both foreign keys are optional
// and the supplier need not match the item's supplier.
type Shipment struct {
	bun.BaseModel `bun:"table:Shipment,alias:sh"`

	ShipmentID     int64      `bun:"ShipmentID,pk,autoincrement"`
	ItemID         *int64     `bun:"ItemID"`
	SupplierID     *int64     `bun:"SupplierID"`
	ShipmentDate   *time.Time `bun:"ShipmentDate,type:date"`
	Status         *string    `bun:"Status,type:varchar(50)"`
	Carrier        *string    `bun:"Carrier,type:varchar(100)"`
	TrackingNumber *string    `bun:"TrackingNumber,type:varchar(100)"`
}

// ShipmentDetail is a Shipment row left-joined with its item and supplier names.
type ShipmentDetail struct {
	bun.BaseModel `bun:"table:Shipment,alias:sh"`

	ShipmentID     int64      `bun:"ShipmentID"`
	ItemID         *int64     `bun:"ItemID"`
	SupplierID     *int64     `bun:"SupplierID"`
	ShipmentDate   *time.Time `bun:"ShipmentDate"`
	Status         *string    `bun:"Status"`
	Carrier        *string    `bun:"Carrier"`
	TrackingNumber *string    `bun:"TrackingNumber"`
	ItemName       *string    `bun:"ItemName"`
	SupplierName   *string    `bun:"SupplierName"`
}
