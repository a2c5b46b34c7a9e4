package logistics

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/logistics/internal/cache"
	"github.com/Additional-Code/logistics/internal/config"
	"github.com/Additional-Code/logistics/internal/entity"
	"github.com/Additional-Code/logistics/internal/logger"
	"github.com/Additional-Code/logistics/internal/messaging"
	repo "github.com/Additional-Code/logistics/internal/repository/logistics"
	"github.com/Additional-Code/logistics/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/logistics/service/logistics")

// Cache keys for the unfiltered listings. Listings are stored under
// "<key>:<generation>" and every create starts a new generation.
const (
	cacheKeySuppliers  = "logistics:suppliers"
	cacheKeyItems      = "logistics:items"
	cacheKeyShipments  = "logistics:shipments"
	cacheKeyGeneration = "logistics:generation"
)

var listKeys = []string{cacheKeySuppliers, cacheKeyItems, cacheKeyShipments}

const defaultCacheBypass = 5 * time.Minute

// Service maps repository calls onto application errors, caches listings and
// announces created entities.
type Service struct {
	repo      *repo.Repository
	cache     cache.Store
	cacheTTL  time.Duration
	logger    *zap.Logger
	publisher messaging.Client
	messaging messagingConfig
	now       func() time.Time

	// bypassUntil holds the unix nano deadline before which the cache is
	// skipped entirely, set when an invalidation could not be recorded.
	bypassUntil atomic.Int64
}

// messagingConfig contains messaging specific knobs we care about.
type messagingConfig struct {
	enabled bool
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Cache      cache.Store
	Config     config.Config
	Logger     *zap.Logger
	Publisher  messaging.Client
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		repo:      p.Repository,
		cache:     p.Cache,
		cacheTTL:  p.Config.Cache.DefaultTTL,
		logger:    logger.Component(p.Logger, "service.logistics"),
		publisher: p.Publisher,
		messaging: messagingConfig{enabled: p.Config.Messaging.Enabled},
		now:       time.Now,
	}
}

// ListSuppliers returns every supplier.
func (s *Service) ListSuppliers(ctx context.Context) ([]entity.Supplier, error) {
	ctx, span := serviceTracer.Start(ctx, "LogisticsService.ListSuppliers")
	defer span.End()

	return cachedList(ctx, s, span, cacheKeySuppliers, "failed to list suppliers", s.repo.ListSuppliers)
}

// CreateSupplier validates and stores a supplier, filling in its id.
func (s *Service) CreateSupplier(ctx context.Context, supplier *entity.Supplier) error {
	if supplier == nil {
		return errorbank.BadRequest("supplier payload is required")
	}
	if strings.TrimSpace(supplier.SupplierName) == "" {
		return errorbank.BadRequest("SupplierName is required", errorbank.WithDetail("field", "SupplierName"))
	}
	ctx, span := serviceTracer.Start(ctx, "LogisticsService.CreateSupplier",
		trace.WithAttributes(attribute.String("supplier.name", supplier.SupplierName)))
	defer span.End()

	if err := s.repo.CreateSupplier(ctx, supplier); err != nil {
		return s.translate(span, err, "failed to create supplier")
	}
	s.invalidate(ctx)
	s.publishCreated(ctx, EventSupplierCreated, supplier.SupplierID, supplier.SupplierName)
	return nil
}

// ListItems returns every item with its supplier's name.
func (s *Service) ListItems(ctx context.Context) ([]entity.ItemWithSupplier, error) {
	ctx, span := serviceTracer.Start(ctx, "LogisticsService.ListItems")
	defer span.End()

	return cachedList(ctx, s, span, cacheKeyItems, "failed to list items", s.repo.ListItems)
}

// CreateItem validates and stores an item, filling in its id.
func (s *Service) CreateItem(ctx context.Context, item *entity.LogisticsItem) error {
	if item == nil {
		return errorbank.BadRequest("item payload is required")
	}
	if strings.TrimSpace(item.ItemName) == "" {
		return errorbank.BadRequest("ItemName is required", errorbank.WithDetail("field", "ItemName"))
	}
	ctx, span := serviceTracer.Start(ctx, "LogisticsService.CreateItem",
		trace.WithAttributes(attribute.String("item.name", item.ItemName)))
	defer span.End()

	if err := s.repo.CreateItem(ctx, item); err != nil {
		return s.translate(span, err, "failed to create item")
	}
	s.invalidate(ctx)
	s.publishCreated(ctx, EventItemCreated, item.ItemID, item.ItemName)
	return nil
}

// ListShipments returns every shipment with its item and supplier names.
func (s *Service) ListShipments(ctx context.Context) ([]entity.ShipmentDetail, error) {
	ctx, span := serviceTracer.Start(ctx, "LogisticsService.ListShipments")
	defer span.End()

	return cachedList(ctx, s, span, cacheKeyShipments, "failed to list shipments", s.repo.ListShipments)
}

// CreateShipment stores a shipment, filling in its id.
func (s *Service) CreateShipment(ctx context.Context, shipment *entity.Shipment) error {
	if shipment == nil {
		return errorbank.BadRequest("shipment payload is required")
	}
	ctx, span := serviceTracer.Start(ctx, "LogisticsService.CreateShipment")
	defer span.End()

	if err := s.repo.CreateShipment(ctx, shipment); err != nil {
		return s.translate(span, err, "failed to create shipment")
	}
	s.invalidate(ctx)
	name := ""
	if shipment.TrackingNumber != nil {
		name = *shipment.TrackingNumber
	}
	s.publishCreated(ctx, EventShipmentCreated, shipment.ShipmentID, name)
	return nil
}

// Search runs the filtered item/supplier/shipment join. Results are never cached.
func (s *Service) Search(ctx context.Context, filter repo.SearchFilter) ([]entity.SearchRow, error) {
	ctx, span := serviceTracer.Start(ctx, "LogisticsService.Search")
	defer span.End()

	rows, err := s.repo.Search(ctx, filter)
	if err != nil {
		return nil, s.translate(span, err, "failed to search inventory")
	}
	return rows, nil
}

func cachedList[T any](ctx context.Context, s *Service, span trace.Span, key, failure string, load func(context.Context) ([]T, error)) ([]T, error) {
	gen, cacheable := s.generation(ctx)
	if cacheable {
		var rows []T
		err := cache.GetJSON(ctx, s.cache, generationKey(key, gen), &rows)
		if err == nil && rows != nil {
			return rows, nil
		}
		if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("logistics cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	rows, err := load(ctx)
	if err != nil {
		return nil, s.translate(span, err, failure)
	}
	if !cacheable {
		return rows, nil
	}
	// Rows loaded before a concurrent create land under the superseded
	// generation and are never read again.
	if err := cache.SetJSON(ctx, s.cache, generationKey(key, gen), rows, s.cacheTTL); err != nil {
		s.logger.Warn("logistics cache write failed", zap.String("key", key), zap.Error(err))
	}
	return rows, nil
}

// generation returns the current cache generation, starting one when none is
// stored. The boolean is false when the cache must not be used.
func (s *Service) generation(ctx context.Context) (string, bool) {
	if s.cache == nil || time.Now().UnixNano() < s.bypassUntil.Load() {
		return "", false
	}
	raw, err := s.cache.Get(ctx, cacheKeyGeneration)
	switch {
	case err == nil && len(raw) > 0:
		return string(raw), true
	case err != nil && !errors.Is(err, cache.ErrCacheMiss):
		s.logger.Warn("logistics cache generation read failed", zap.Error(err))
		return "", false
	}

	gen := uuid.NewString()
	if err := s.cache.Set(ctx, cacheKeyGeneration, []byte(gen), s.cacheTTL); err != nil {
		s.logger.Warn("logistics cache generation write failed", zap.Error(err))
		return "", false
	}
	return gen, true
}

// invalidate starts a new cache generation. When that fails, listings skip the
// cache until entries written under the old generation have expired.
func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	previous, _ := s.cache.Get(ctx, cacheKeyGeneration)

	if err := s.cache.Set(ctx, cacheKeyGeneration, []byte(uuid.NewString()), s.cacheTTL); err != nil {
		bypass := s.cacheTTL
		if bypass <= 0 {
			bypass = defaultCacheBypass
		}
		s.bypassUntil.Store(time.Now().Add(bypass).UnixNano())
		s.logger.Warn("logistics cache invalidation failed; bypassing cache", zap.Duration("for", bypass), zap.Error(err))
		return
	}

	if len(previous) == 0 {
		return
	}
	stale := make([]string, 0, len(listKeys))
	for _, key := range listKeys {
		stale = append(stale, generationKey(key, string(previous)))
	}
	if err := cache.DeleteAll(ctx, s.cache, stale...); err != nil {
		s.logger.Debug("logistics cache cleanup failed", zap.Error(err))
	}
}

func generationKey(key, gen string) string {
	return key + ":" + gen
}

// translate maps repository failures onto application error kinds.
func (s *Service) translate(span trace.Span, err error, message string) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, "repository error")

	switch {
	case errors.Is(err, repo.ErrConstraint):
		return errorbank.Unprocessable(message+": rejected by storage constraints", errorbank.WithCause(err))
	case errors.Is(err, repo.ErrConnection):
		s.logger.Error("storage unavailable", zap.Error(err))
		return errorbank.Unavailable("storage unavailable", errorbank.WithCause(err))
	default:
		s.logger.Error(message, zap.Error(err))
		return errorbank.Internal(message, errorbank.WithCause(err))
	}
}
