package logistics

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Additional-Code/logistics/internal/dto"
	"github.com/Additional-Code/logistics/internal/entity"
	"github.com/Additional-Code/logistics/internal/presentation/http/response"
	repo "github.com/Additional-Code/logistics/internal/repository/logistics"
	service "github.com/Additional-Code/logistics/internal/service/logistics"
	"github.com/Additional-Code/logistics/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/logistics/transport/http/logistics")

// WelcomeMessage is served on the root path.
const WelcomeMessage = "Welcome to the Logistics Management System!"

// headerResultCount carries the number of records in a list response.
const headerResultCount = "X-Result-Count"

// Handler exposes supplier, item, shipment and search endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a logistics Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	e.GET("/", h.welcome)
	e.GET("/search", h.search)

	api := e.Group("/api")
	api.GET("/inventory", h.inventory)
	api.GET("/suppliers", h.listSuppliers)
	api.POST("/suppliers", h.createSupplier)
	api.GET("/items", h.listItems)
	api.POST("/items", h.createItem)
	api.GET("/shipments", h.listShipments)
	api.POST("/shipments", h.createShipment)
}

func (h *Handler) welcome(c echo.Context) error {
	return c.String(http.StatusOK, WelcomeMessage)
}

func (h *Handler) search(c echo.Context) error {
	filter := repo.SearchFilter{
		ItemName:     c.QueryParam("item_name"),
		SupplierName: c.QueryParam("supplier_name"),
		Status:       c.QueryParam("status"),
	}
	return h.runSearch(c, "logistics.search", filter)
}

// inventory serves the unfiltered composite listing used by the dashboard.
func (h *Handler) inventory(c echo.Context) error {
	return h.runSearch(c, "logistics.inventory", repo.SearchFilter{})
}

func (h *Handler) runSearch(c echo.Context, spanName string, filter repo.SearchFilter) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), spanName)
	span.SetAttributes(
		attribute.String("search.item_name", filter.ItemName),
		attribute.String("search.supplier_name", filter.SupplierName),
		attribute.String("search.status", filter.Status),
	)
	defer span.End()

	rows, err := h.svc.Search(ctx, filter)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithHeader(headerResultCount, strconv.Itoa(len(rows))).WithData(dto.FromSearchRows(rows)).Build()
}

func (h *Handler) listSuppliers(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "suppliers.list")
	defer span.End()

	suppliers, err := h.svc.ListSuppliers(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithHeader(headerResultCount, strconv.Itoa(len(suppliers))).WithData(dto.FromSuppliers(suppliers)).Build()
}

func (h *Handler) createSupplier(c echo.Context) error {
	b := response.New(c)

	p, err := bindPayload(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	supplier := &entity.Supplier{
		SupplierName:  p.requiredString("SupplierName"),
		ContactNumber: p.optionalString("ContactNumber"),
		Email:         p.optionalString("Email"),
		Address:       p.optionalString("Address"),
	}
	if err := p.err(); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "suppliers.create")
	span.SetAttributes(attribute.String("supplier.name", supplier.SupplierName))
	defer span.End()

	if err := h.svc.CreateSupplier(ctx, supplier); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(dto.FromSupplier(*supplier)).Build()
}

func (h *Handler) listItems(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "items.list")
	defer span.End()

	items, err := h.svc.ListItems(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithHeader(headerResultCount, strconv.Itoa(len(items))).WithData(dto.FromItems(items)).Build()
}

func (h *Handler) createItem(c echo.Context) error {
	b := response.New(c)

	p, err := bindPayload(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	item := &entity.LogisticsItem{
		ItemName:   p.requiredString("ItemName"),
		Quantity:   p.optionalInt("Quantity"),
		Unit:       p.optionalString("Unit"),
		Category:   p.optionalString("Category"),
		SupplierID: p.optionalInt("SupplierID"),
	}
	if err := p.err(); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "items.create")
	span.SetAttributes(attribute.String("item.name", item.ItemName))
	defer span.End()

	if err := h.svc.CreateItem(ctx, item); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(dto.FromItem(*item)).Build()
}

func (h *Handler) listShipments(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "shipments.list")
	defer span.End()

	shipments, err := h.svc.ListShipments(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithHeader(headerResultCount, strconv.Itoa(len(shipments))).WithData(dto.FromShipments(shipments)).Build()
}

func (h *Handler) createShipment(c echo.Context) error {
	b := response.New(c)

	p, err := bindPayload(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	shipment := &entity.Shipment{
		ItemID:         p.optionalInt("ItemID"),
		SupplierID:     p.optionalInt("SupplierID"),
		ShipmentDate:   p.optionalDate("ShipmentDate"),
		Status:         p.optionalString("Status"),
		Carrier:        p.optionalString("Carrier"),
		TrackingNumber: p.optionalString("TrackingNumber"),
	}
	if err := p.err(); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "shipments.create")
	defer span.End()

	if err := h.svc.CreateShipment(ctx, shipment); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(dto.FromShipment(*shipment)).Build()
}

func bindPayload(c echo.Context) (*payload, error) {
	var fields map[string]json.RawMessage
	if err := c.Bind(&fields); err != nil {
		return nil, errorbank.BadRequest("invalid payload", errorbank.WithCause(err))
	}
	return newPayload(fields), nil
}
