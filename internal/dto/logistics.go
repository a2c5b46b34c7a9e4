package dto

import (
	"time"

	"github.com/Additional-Code/logistics/internal/entity"
)

// DateLayout is the calendar-date form used for ShipmentDate on the wire.
const DateLayout = time.DateOnly

// SupplierResponse represents a supplier as exposed via transport layers.
type SupplierResponse struct {
	SupplierID    int64   `json:"SupplierID"`
	SupplierName  string  `json:"SupplierName"`
	ContactNumber *string `json:"ContactNumber"`
	Email         *string `json:"Email"`
	Address       *string `json:"Address"`
}

// ItemResponse represents an item together with its supplier's name.
type ItemResponse struct {
	ItemID       int64   `json:"ItemID"`
	ItemName     string  `json:"ItemName"`
	Quantity     *int64  `json:"Quantity"`
	Unit         *string `json:"Unit"`
	Category     *string `json:"Category"`
	SupplierID   *int64  `json:"SupplierID"`
	SupplierName *string `json:"SupplierName"`
}

// ShipmentResponse represents a shipment together with its item and supplier names.
type ShipmentResponse struct {
	ShipmentID     int64   `json:"ShipmentID"`
	ItemID         *int64  `json:"ItemID"`
	SupplierID     *int64  `json:"SupplierID"`
	ShipmentDate   *string `json:"ShipmentDate"`
	Status         *string `json:"Status"`
	Carrier        *string `json:"Carrier"`
	TrackingNumber *string `json:"TrackingNumber"`
	ItemName       *string `json:"ItemName"`
	SupplierName   *string `json:"SupplierName"`
}

// SearchSupplier is the supplier half of a search result; all fields are null
// when the item has no supplier.
type SearchSupplier struct {
	SupplierID    *int64  `json:"SupplierID"`
	SupplierName  *string `json:"SupplierName"`
	ContactNumber *string `json:"ContactNumber"`
	Email         *string `json:"Email"`
	Address       *string `json:"Address"`
}

// SearchShipment is the shipment half of a search result.
type SearchShipment struct {
	ShipmentID     *int64  `json:"ShipmentID"`
	ShipmentDate   *string `json:"ShipmentDate"`
	Status         *string `json:"Status"`
	Carrier        *string `json:"Carrier"`
	TrackingNumber *string `json:"TrackingNumber"`
}

// SearchResult is the composite item/supplier/shipment record returned by search.
type SearchResult struct {
	ItemID   int64          `json:"ItemID"`
	ItemName string         `json:"ItemName"`
	Quantity *int64         `json:"Quantity"`
	Unit     *string        `json:"Unit"`
	Category *string        `json:"Category"`
	Supplier SearchSupplier `json:"Supplier"`
	Shipment SearchShipment `json:"Shipment"`
}

// FormatDate renders t as YYYY-MM-DD, or nil when t is nil.
func FormatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(DateLayout)
	return &s
}

// FromSupplier converts a supplier row.
func FromSupplier(s entity.Supplier) SupplierResponse {
	return SupplierResponse{
		SupplierID:    s.SupplierID,
		SupplierName:  s.SupplierName,
		ContactNumber: s.ContactNumber,
		Email:         s.Email,
		Address:       s.Address,
	}
}

// FromSuppliers converts supplier rows, never returning nil.
func FromSuppliers(rows []entity.Supplier) []SupplierResponse {
	out := make([]SupplierResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromSupplier(row))
	}
	return out
}

// FromItem converts a freshly created item. The supplier name is unknown
// because created rows are not re-read.
func FromItem(i entity.LogisticsItem) ItemResponse {
	return ItemResponse{
		ItemID:     i.ItemID,
		ItemName:   i.ItemName,
		Quantity:   i.Quantity,
		Unit:       i.Unit,
		Category:   i.Category,
		SupplierID: i.SupplierID,
	}
}

// FromItems converts joined item rows, never returning nil.
func FromItems(rows []entity.ItemWithSupplier) []ItemResponse {
	out := make([]ItemResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, ItemResponse{
			ItemID:       row.ItemID,
			ItemName:     row.ItemName,
			Quantity:     row.Quantity,
			Unit:         row.Unit,
			Category:     row.Category,
			SupplierID:   row.SupplierID,
			SupplierName: row.SupplierName,
		})
	}
	return out
}

// FromShipment converts a freshly created shipment.
func FromShipment(s entity.Shipment) ShipmentResponse {
	return ShipmentResponse{
		ShipmentID:     s.ShipmentID,
		ItemID:         s.ItemID,
		SupplierID:     s.SupplierID,
		ShipmentDate:   FormatDate(s.ShipmentDate),
		Status:         s.Status,
		Carrier:        s.Carrier,
		TrackingNumber: s.TrackingNumber,
	}
}

// FromShipments converts joined shipment rows, never returning nil.
func FromShipments(rows []entity.ShipmentDetail) []ShipmentResponse {
	out := make([]ShipmentResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, ShipmentResponse{
			ShipmentID:     row.ShipmentID,
			ItemID:         row.ItemID,
			SupplierID:     row.SupplierID,
			ShipmentDate:   FormatDate(row.ShipmentDate),
			Status:         row.Status,
			Carrier:        row.Carrier,
			TrackingNumber: row.TrackingNumber,
			ItemName:       row.ItemName,
			SupplierName:   row.SupplierName,
		})
	}
	return out
}

// FromSearchRows nests flat join rows into composite records, never returning nil.
func FromSearchRows(rows []entity.SearchRow) []SearchResult {
	out := make([]SearchResult, 0, len(rows))
	for _, row := range rows {
		out = append(out, SearchResult{
			ItemID:   row.ItemID,
			ItemName: row.ItemName,
			Quantity: row.Quantity,
			Unit:     row.Unit,
			Category: row.Category,
			Supplier: SearchSupplier{
				SupplierID:    row.SupplierID,
				SupplierName:  row.SupplierName,
				ContactNumber: row.ContactNumber,
				Email:         row.Email,
				Address:       row.Address,
			},
			Shipment: SearchShipment{
				ShipmentID:     row.ShipmentID,
				ShipmentDate:   FormatDate(row.ShipmentDate),
				Status:         row.Status,
				Carrier:        row.Carrier,
				TrackingNumber: row.TrackingNumber,
			},
		})
	}
	return out
}
