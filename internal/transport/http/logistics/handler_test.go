package logistics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
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

func newServer(t *testing.T) *echo.Echo {
	t.Helper()
	conns := databasetest.New(t)
	require.NoError(t, schema.NewManager(conns, zap.NewNop()).Ensure(context.Background()))

	svc := service.NewService(service.Params{
		Repository: repo.NewRepository(conns, zap.NewNop()),
		Cache:      cache.NewNoop(),
		Config:     config.Config{Cache: config.Cache{DefaultTTL: time.Minute}},
		Logger:     zap.NewNop(),
		Publisher:  messaging.NewNoop("logistics.events"),
	})

	e := echo.New()
	Register(e, NewHandler(svc))
	return e
}

func do(t *testing.T, e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type errorEnvelope struct {
	Error struct {
		Kind    string            `json:"kind"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func createdID(t *testing.T, rec *httptest.ResponseRecorder, field string) int64 {
	t.Helper()
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode[map[string]any](t, rec)
	id, ok := body[field].(float64)
	require.True(t, ok, "missing %s in %s", field, rec.Body.String())
	return int64(id)
}

func TestWelcome(t *testing.T) {
	rec := do(t, newServer(t), http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, WelcomeMessage, rec.Body.String())
}

func TestEmptyListsAreArrays(t *testing.T) {
	e := newServer(t)
	for _, path := range []string{"/api/suppliers", "/api/items", "/api/shipments", "/search", "/api/inventory"} {
		rec := do(t, e, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.JSONEq(t, `[]`, rec.Body.String(), path)
		assert.Equal(t, "0", rec.Header().Get(headerResultCount), path)
	}
}

func TestCreateSupplierReturnsSubmittedFieldsWithID(t *testing.T) {
	e := newServer(t)

	rec := do(t, e, http.MethodPost, "/api/suppliers",
		`{"SupplierName":"Acme","ContactNumber":"555-0100","Email":"a@acme.test","Address":"1 Road"}`)
	id := createdID(t, rec, "SupplierID")
	assert.Positive(t, id)
	assert.JSONEq(t, `{"SupplierID":1,"SupplierName":"Acme","ContactNumber":"555-0100","Email":"a@acme.test","Address":"1 Road"}`, rec.Body.String())

	rec = do(t, e, http.MethodGet, "/api/suppliers", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"SupplierID":1,"SupplierName":"Acme","ContactNumber":"555-0100","Email":"a@acme.test","Address":"1 Road"}]`, rec.Body.String())
}

func TestCreateSupplierValidation(t *testing.T) {
	e := newServer(t)

	cases := map[string]string{
		`{}`:                             "is required",
		`{"SupplierName":null}`:          "is required",
		`{"SupplierName":"  "}`:          "must not be empty",
		`{"SupplierName":42}`:            "must be a string",
		`{"SupplierName":"A","Email":7}`: "must be a string",
	}
	for body, problem := range cases {
		rec := do(t, e, http.MethodPost, "/api/suppliers", body)
		require.Equal(t, http.StatusBadRequest, rec.Code, body)

		got := decode[errorEnvelope](t, rec)
		assert.Equal(t, "bad_request", got.Error.Kind, body)
		assert.Contains(t, rec.Body.String(), problem, body)
	}

	rec := do(t, e, http.MethodGet, "/api/suppliers", "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestMalformedJSONIsBadRequest(t *testing.T) {
	rec := do(t, newServer(t), http.MethodPost, "/api/items", `{"ItemName":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kind":"bad_request"`)
}

func TestCreateItemWithoutSupplier(t *testing.T) {
	e := newServer(t)

	rec := do(t, e, http.MethodPost, "/api/items", `{"ItemName":"Pallet","Quantity":5,"Unit":"pcs","Category":"packaging"}`)
	createdID(t, rec, "ItemID")
	assert.JSONEq(t, `{"ItemID":1,"ItemName":"Pallet","Quantity":5,"Unit":"pcs","Category":"packaging","SupplierID":null,"SupplierName":null}`, rec.Body.String())

	rec = do(t, e, http.MethodGet, "/api/items", "")
	assert.JSONEq(t, `[{"ItemID":1,"ItemName":"Pallet","Quantity":5,"Unit":"pcs","Category":"packaging","SupplierID":null,"SupplierName":null}]`, rec.Body.String())
}

func TestCreateItemRejectsBadTypes(t *testing.T) {
	rec := do(t, newServer(t), http.MethodPost, "/api/items", `{"ItemName":"Pallet","Quantity":"ten","SupplierID":1.5}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	got := decode[errorEnvelope](t, rec)
	assert.Equal(t, "bad_request", got.Error.Kind)
	assert.Equal(t, map[string]string{
		"Quantity":   "must be an integer",
		"SupplierID": "must be an integer",
	}, got.Error.Details)
}

func TestCreateItemWithUnknownSupplierIsUnprocessable(t *testing.T) {
	e := newServer(t)

	rec := do(t, e, http.MethodPost, "/api/items", `{"ItemName":"Ghost","SupplierID":999}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kind":"unprocessable_entity"`)

	rec = do(t, e, http.MethodGet, "/api/items", "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestShipmentDatesRoundTrip(t *testing.T) {
	e := newServer(t)

	rec := do(t, e, http.MethodPost, "/api/shipments", `{"ShipmentDate":"2024-03-15","Status":"delivered","Carrier":"DHL"}`)
	createdID(t, rec, "ShipmentID")
	assert.Contains(t, rec.Body.String(), `"ShipmentDate":"2024-03-15"`)

	rec = do(t, e, http.MethodPost, "/api/shipments", `{"ShipmentDate":null,"Status":"pending"}`)
	createdID(t, rec, "ShipmentID")

	rec = do(t, e, http.MethodPost, "/api/shipments", `{"ShipmentDate":"","ItemID":null,"SupplierID":null}`)
	createdID(t, rec, "ShipmentID")

	rec = do(t, e, http.MethodGet, "/api/shipments", "")
	require.Equal(t, http.StatusOK, rec.Code)
	shipments := decode[[]map[string]any](t, rec)
	require.Len(t, shipments, 3)
	assert.Equal(t, "2024-03-15", shipments[0]["ShipmentDate"])
	assert.Nil(t, shipments[1]["ShipmentDate"])
	assert.Nil(t, shipments[2]["ShipmentDate"])
	assert.Contains(t, shipments[0], "ItemName")
	assert.Nil(t, shipments[0]["ItemName"])
}

func TestShipmentRejectsBadDate(t *testing.T) {
	rec := do(t, newServer(t), http.MethodPost, "/api/shipments", `{"ShipmentDate":"15/03/2024"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "ShipmentDate")
}

func TestEndToEndSearchBySupplier(t *testing.T) {
	e := newServer(t)

	supplierID := createdID(t, do(t, e, http.MethodPost, "/api/suppliers", `{"SupplierName":"Northwind Freight"}`), "SupplierID")
	itemBody, _ := json.Marshal(map[string]any{"ItemName": "Toolbox", "Quantity": 3, "SupplierID": supplierID})
	itemID := createdID(t, do(t, e, http.MethodPost, "/api/items", string(itemBody)), "ItemID")
	shipmentBody, _ := json.Marshal(map[string]any{
		"ItemID": itemID, "SupplierID": supplierID, "ShipmentDate": "2024-03-15",
		"Status": "delivered", "Carrier": "UPS", "TrackingNumber": "1Z999",
	})
	shipmentID := createdID(t, do(t, e, http.MethodPost, "/api/shipments", string(shipmentBody)), "ShipmentID")

	// An unrelated item without supplier or shipment.
	createdID(t, do(t, e, http.MethodPost, "/api/items", `{"ItemName":"Crate"}`), "ItemID")

	rec := do(t, e, http.MethodGet, "/search?supplier_name=northwind", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get(headerResultCount))
	assert.JSONEq(t, `[{
		"ItemID": `+itoa(itemID)+`, "ItemName": "Toolbox", "Quantity": 3, "Unit": null, "Category": null,
		"Supplier": {"SupplierID": `+itoa(supplierID)+`, "SupplierName": "Northwind Freight", "ContactNumber": null, "Email": null, "Address": null},
		"Shipment": {"ShipmentID": `+itoa(shipmentID)+`, "ShipmentDate": "2024-03-15", "Status": "delivered", "Carrier": "UPS", "TrackingNumber": "1Z999"}
	}]`, rec.Body.String())

	rec = do(t, e, http.MethodGet, "/search", "")
	assert.Len(t, decode[[]map[string]any](t, rec), 2)

	rec = do(t, e, http.MethodGet, "/search?status=delivered", "")
	assert.Len(t, decode[[]map[string]any](t, rec), 1)

	rec = do(t, e, http.MethodGet, "/search?item_name=BOX&status=pending", "")
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(t, e, http.MethodGet, "/api/inventory", "")
	assert.Len(t, decode[[]map[string]any](t, rec), 2)
}

func itoa(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
