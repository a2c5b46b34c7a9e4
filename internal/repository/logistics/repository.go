package logistics

import (
	"context"
	"errors"
	"strings"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Additional-Code/logistics/internal/database"
	"github.com/Additional-Code/logistics/internal/entity"
	"github.com/Additional-Code/logistics/internal/logger"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/logistics/repository/logistics")

// SearchFilter narrows Search. Empty fields impose no constraint.
type SearchFilter struct {
	ItemName     string
	SupplierName string
	Status       string
}

// Repository encapsulates read/write access for suppliers, items and shipments.
// Every method is a single statement; none share a transaction.
type Repository struct {
	conns  *database.Connections
	writer *bun.DB
	reader *bun.DB
	logger *zap.Logger
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections, log *zap.Logger) *Repository {
	return &Repository{
		conns:  conns,
		writer: conns.Writer,
		reader: conns.Reader,
		logger: logger.Component(log, "repository.logistics"),
	}
}

// ListSuppliers returns every supplier ordered by id.
func (r *Repository) ListSuppliers(ctx context.Context) ([]entity.Supplier, error) {
	ctx, span := repoTracer.Start(ctx, "LogisticsRepository.ListSuppliers")
	defer span.End()
	ctx, cancel := r.conns.WithQueryTimeout(ctx)
	defer cancel()

	suppliers := make([]entity.Supplier, 0)
	err := r.reader.NewSelect().
		Model(&suppliers).
		OrderExpr("s.? ASC", bun.Ident("SupplierID")).
		Scan(ctx)
	if err != nil {
		return nil, fail(span, "select failed", err)
	}
	return suppliers, nil
}

// CreateSupplier inserts a supplier and stores the assigned id on the model.
func (r *Repository) CreateSupplier(ctx context.Context, supplier *entity.Supplier) error {
	if supplier == nil {
		return errors.New("nil supplier")
	}
	ctx, span := repoTracer.Start(ctx, "LogisticsRepository.CreateSupplier",
		trace.WithAttributes(attribute.String("supplier.name", supplier.SupplierName)))
	defer span.End()

	if err := r.insert(ctx, supplier); err != nil {
		return fail(span, "insert failed", err)
	}
	span.SetAttributes(attribute.Int64("supplier.id", supplier.SupplierID))
	r.logger.Debug("supplier created", zap.Int64("id", supplier.SupplierID))
	return nil
}

// ListItems returns every item with its supplier's name, nil when unassigned.
func (r *Repository) ListItems(ctx context.Context) ([]entity.ItemWithSupplier, error) {
	ctx, span := repoTracer.Start(ctx, "LogisticsRepository.ListItems")
	defer span.End()
	ctx, cancel := r.conns.WithQueryTimeout(ctx)
	defer cancel()

	items := make([]entity.ItemWithSupplier, 0)
	q := r.reader.NewSelect().Model(&items)
	q = columns(q, "li", "ItemID", "ItemName", "Quantity", "Unit", "Category", "SupplierID")
	q = columns(q, "s", "SupplierName")
	err := q.
		Join("LEFT JOIN ? AS s ON s.? = li.?", bun.Ident("Supplier"), bun.Ident("SupplierID"), bun.Ident("SupplierID")).
		OrderExpr("li.? ASC", bun.Ident("ItemID")).
		Scan(ctx)
	if err != nil {
		return nil, fail(span, "select failed", err)
	}
	return items, nil
}

// CreateItem inserts an item. A nil SupplierID stores no supplier; a dangling
// one is rejected by the storage engine.
func (r *Repository) CreateItem(ctx context.Context, item *entity.LogisticsItem) error {
	if item == nil {
		return errors.New("nil item")
	}
	ctx, span := repoTracer.Start(ctx, "LogisticsRepository.CreateItem",
		trace.WithAttributes(attribute.String("item.name", item.ItemName)))
	defer span.End()

	if err := r.insert(ctx, item); err != nil {
		return fail(span, "insert failed", err)
	}
	span.SetAttributes(attribute.Int64("item.id", item.ItemID))
	r.logger.Debug("item created", zap.Int64("id", item.ItemID))
	return nil
}

// ListShipments returns every shipment with its item and supplier names.
func (r *Repository) ListShipments(ctx context.Context) ([]entity.ShipmentDetail, error) {
	ctx, span := repoTracer.Start(ctx, "LogisticsRepository.ListShipments")
	defer span.End()
	ctx, cancel := r.conns.WithQueryTimeout(ctx)
	defer cancel()

	shipments := make([]entity.ShipmentDetail, 0)
	q := r.reader.NewSelect().Model(&shipments)
	q = columns(q, "sh", "ShipmentID", "ItemID", "SupplierID", "ShipmentDate", "Status", "Carrier", "TrackingNumber")
	q = columns(q, "li", "ItemName")
	q = columns(q, "s", "SupplierName")
	err := q.
		Join("LEFT JOIN ? AS li ON li.? = sh.?", bun.Ident("LogisticsItem"), bun.Ident("ItemID"), bun.Ident("ItemID")).
		Join("LEFT JOIN ? AS s ON s.? = sh.?", bun.Ident("Supplier"), bun.Ident("SupplierID"), bun.Ident("SupplierID")).
		OrderExpr("sh.? ASC", bun.Ident("ShipmentID")).
		Scan(ctx)
	if err != nil {
		return nil, fail(span, "select failed", err)
	}
	return shipments, nil
}

// CreateShipment inserts a shipment. Every reference may be nil.
func (r *Repository) CreateShipment(ctx context.Context, shipment *entity.Shipment) error {
	if shipment == nil {
		return errors.New("nil shipment")
	}
	ctx, span := repoTracer.Start(ctx, "LogisticsRepository.CreateShipment")
	defer span.End()

	if err := r.insert(ctx, shipment); err != nil {
		return fail(span, "insert failed", err)
	}
	span.SetAttributes(attribute.Int64("shipment.id", shipment.ShipmentID))
	r.logger.Debug("shipment created", zap.Int64("id", shipment.ShipmentID))
	return nil
}

// Search joins items to their supplier and to every shipment of the item,
// then applies the filter conjunctively. Name filters are case-insensitive
// substring matches; Status is exact. Filtering on Status drops items that
// have no shipment, because the comparison against a NULL column never holds.
func (r *Repository) Search(ctx context.Context, filter SearchFilter) ([]entity.SearchRow, error) {
	ctx, span := repoTracer.Start(ctx, "LogisticsRepository.Search", trace.WithAttributes(
		attribute.String("search.item_name", filter.ItemName),
		attribute.String("search.supplier_name", filter.SupplierName),
		attribute.String("search.status", filter.Status),
	))
	defer span.End()
	ctx, cancel := r.conns.WithQueryTimeout(ctx)
	defer cancel()

	rows := make([]entity.SearchRow, 0)
	q := r.reader.NewSelect().Model(&rows)
	q = columns(q, "li", "ItemID", "ItemName", "Quantity", "Unit", "Category")
	q = columns(q, "s", "SupplierID", "SupplierName", "ContactNumber", "Email", "Address")
	q = columns(q, "sh", "ShipmentID", "ShipmentDate", "Status", "Carrier", "TrackingNumber")
	q = q.
		Join("LEFT JOIN ? AS s ON li.? = s.?", bun.Ident("Supplier"), bun.Ident("SupplierID"), bun.Ident("SupplierID")).
		Join("LEFT JOIN ? AS sh ON li.? = sh.?", bun.Ident("Shipment"), bun.Ident("ItemID"), bun.Ident("ItemID"))

	if filter.ItemName != "" {
		q = q.Where("LOWER(li.?) LIKE LOWER(?) ESCAPE '!'", bun.Ident("ItemName"), containsPattern(filter.ItemName))
	}
	if filter.SupplierName != "" {
		q = q.Where("LOWER(s.?) LIKE LOWER(?) ESCAPE '!'", bun.Ident("SupplierName"), containsPattern(filter.SupplierName))
	}
	if filter.Status != "" {
		q = q.Where("sh.? = ?", bun.Ident("Status"), filter.Status)
	}

	err := q.OrderExpr("li.? ASC, sh.? ASC", bun.Ident("ItemID"), bun.Ident("ShipmentID")).Scan(ctx)
	if err != nil {
		return nil, fail(span, "select failed", err)
	}
	span.SetAttributes(attribute.Int("search.rows", len(rows)))
	return rows, nil
}

func (r *Repository) insert(ctx context.Context, model any) error {
	ctx, cancel := r.conns.WithQueryTimeout(ctx)
	defer cancel()
	_, err := r.writer.NewInsert().Model(model).Exec(ctx)
	return err
}

// columns selects alias."Name" AS "Name" for each name so rows decode by column name.
func columns(q *bun.SelectQuery, alias string, names ...string) *bun.SelectQuery {
	for _, name := range names {
		q = q.ColumnExpr("?.? AS ?", bun.Ident(alias), bun.Ident(name), bun.Ident(name))
	}
	return q
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// containsPattern builds a LIKE pattern matching value literally anywhere.
func containsPattern(value string) string {
	return "%" + likeEscaper.Replace(value) + "%"
}

func fail(span trace.Span, status string, err error) error {
	err = classify(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, status)
	return err
}
