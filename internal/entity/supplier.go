package entity

import "github.com/uptrace/bun"

// Supplier is a vendor that provides logistics items.
type Supplier struct {
	bun.BaseModel `bun:"table:Supplier,alias:s"`

	SupplierID    int64   `bun:"SupplierID,pk,autoincrement"`
	SupplierName  string  `bun:"SupplierName,type:varchar(255),notnull"`
	ContactNumber *string `bun:"ContactNumber,type:varchar(50)"`
	Email         *string `bun:"Email,type:varchar(255)"`
	Address       *string `bun:"Address,type:varchar(255)"`
}
