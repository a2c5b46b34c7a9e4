package entity

import "github.com/uptrace/bun"

// LogisticsItem is a stocked item, optionally attributed to a supplier.
type LogisticsItem struct {
	bun.BaseModel `bun:"table:LogisticsItem,alias:li"`

	ItemID     int64   `bun:"ItemID,pk,autoincrement"`
	ItemName   string  `bun:"ItemName,type:varchar(255),notnull"`
	Quantity   *int64  `bun:"Quantity"`
	Unit       *string `bun:"Unit,type:varchar(50)"`
	Category   *string `bun:"Category,type:varchar(100)"`
	SupplierID *int64  `bun:"SupplierID"`
}

// ItemWithSupplier is a LogisticsItem row left-joined with its supplier's name.
// SupplierName is nil when the item has no supplier.
type ItemWithSupplier struct {
	bun.BaseModel `bun:"table:LogisticsItem,alias:li"`

	ItemID       int64   `bun:"ItemID"`
	ItemName     string  `bun:"ItemName"`
	Quantity     *int64  `bun:"Quantity"`
	Unit         *string `bun:"Unit"`
	Category     *string `bun:"Category"`
	SupplierID   *int64  `bun:"SupplierID"`
	SupplierName *string `bun:"SupplierName"`
}
