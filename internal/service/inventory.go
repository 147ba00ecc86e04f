package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/doceencanto/storefront-go/internal/domain"
	"github.com/doceencanto/storefront-go/internal/infra/observability"
	"github.com/doceencanto/storefront-go/internal/infra/resilience"
	"github.com/doceencanto/storefront-go/internal/port"
)

// RestInventory is the slice of the REST data-access layer inventory needs.
type RestInventory interface {
	CreateProduct(ctx context.Context, in *domain.NewProductInput) domain.Envelope[domain.Product]
	UpdateProductQuantity(ctx context.Context, id string, quantity int) domain.Envelope[domain.Product]
}

// InventoryService serves the vendor's product management flows. Input is
// validated before any network call; writes go REST first with the document
// store as the dual-write fallback.
type InventoryService struct {
	api     RestInventory
	store   port.ProductStore
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewInventoryService creates the inventory service.
func NewInventoryService(api RestInventory, store port.ProductStore, metrics *observability.Metrics, logger *zap.Logger) *InventoryService {
	return &InventoryService{
		api:     api,
		store:   store,
		metrics: metrics,
		logger:  logger,
	}
}

// CreateProduct validates and persists a new product. The returned product
// carries the id and creation timestamp of whichever backend served the
// write; the caller's view is identical either way.
func (s *InventoryService) CreateProduct(ctx context.Context, in *domain.NewProductInput) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "InventoryService.CreateProduct")
	defer span.End()

	if err := in.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("products.create", time.Since(start)) }()

	created, fellBack, err := resilience.Fallback(ctx,
		func(ctx context.Context) (*domain.Product, error) {
			env := s.api.CreateProduct(ctx, in)
			if err := env.Err(); err != nil {
				return nil, err
			}
			p := env.Data
			return &p, nil
		},
		func(ctx context.Context) (*domain.Product, error) {
			return s.store.AddProduct(ctx, in)
		},
	)
	s.recordFallback("products.create", fellBack, err)
	if err != nil {
		return nil, err
	}

	s.logger.Info("product created",
		zap.String("id", created.ID),
		zap.String("name", created.Name),
	)
	return created, nil
}

// UpdateQuantity replaces a product's stock level.
func (s *InventoryService) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	ctx, span := tracer.Start(ctx, "InventoryService.UpdateQuantity")
	defer span.End()

	if err := domain.ValidateQuantity(quantity); err != nil {
		return err
	}

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("products.quantity", time.Since(start)) }()

	_, fellBack, err := resilience.Fallback(ctx,
		func(ctx context.Context) (struct{}, error) {
			env := s.api.UpdateProductQuantity(ctx, id, quantity)
			return struct{}{}, env.Err()
		},
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.store.UpdateProductQuantity(ctx, id, quantity)
		},
	)
	s.recordFallback("products.quantity", fellBack, err)
	return err
}

func (s *InventoryService) recordFallback(operation string, fellBack bool, err error) {
	if !fellBack {
		return
	}
	if err != nil {
		s.metrics.IncrFallback(operation, "failed")
		return
	}
	s.metrics.IncrFallback(operation, "served")
	s.logger.Info("rest tier unavailable, document store served",
		zap.String("operation", operation),
	)
}
