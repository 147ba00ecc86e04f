// Package service holds the storefront use cases: catalog browsing, vendor
// inventory management and sales reports. Every read/write that has both a
// REST route and a document-store collection behind it goes through the
// fallback combinator, REST first, store second.
package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/doceencanto/storefront-go/internal/domain"
	"github.com/doceencanto/storefront-go/internal/infra/observability"
	"github.com/doceencanto/storefront-go/internal/infra/resilience"
	"github.com/doceencanto/storefront-go/internal/port"
)

var tracer = otel.Tracer("service")

// RestCatalog is the slice of the REST data-access layer the catalog needs.
type RestCatalog interface {
	ListProducts(ctx context.Context) domain.Envelope[[]domain.Product]
	ListCategories(ctx context.Context) domain.Envelope[[]string]
}

// CatalogService serves the product browsing flows.
type CatalogService struct {
	api        RestCatalog
	store      port.ProductStore
	categories port.Cache[[]string]
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewCatalogService creates the catalog service.
func NewCatalogService(api RestCatalog, store port.ProductStore, categories port.Cache[[]string], metrics *observability.Metrics, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		api:        api,
		store:      store,
		categories: categories,
		metrics:    metrics,
		logger:     logger,
	}
}

// ListProducts returns the catalog filtered conjunctively by category and
// search term. The REST tier serves first; the document store answers when
// REST is down, and the caller cannot tell which path served.
func (s *CatalogService) ListProducts(ctx context.Context, category, search string) ([]domain.Product, error) {
	ctx, span := tracer.Start(ctx, "CatalogService.ListProducts")
	defer span.End()

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("products.list", time.Since(start)) }()

	products, fellBack, err := resilience.Fallback(ctx,
		func(ctx context.Context) ([]domain.Product, error) {
			env := s.api.ListProducts(ctx)
			return env.Data, env.Err()
		},
		s.store.ListProducts,
	)
	s.recordFallback("products.list", fellBack, err)
	if err != nil {
		return nil, err
	}

	return domain.FilterProducts(products, category, search), nil
}

// LowStock returns the products flagged for restocking.
func (s *CatalogService) LowStock(ctx context.Context) ([]domain.Product, error) {
	products, err := s.ListProducts(ctx, domain.CategoryAll, "")
	if err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0)
	for _, p := range products {
		if p.LowStock() {
			out = append(out, p)
		}
	}
	return out, nil
}

// Categories returns the category list for the filter bar, TTL-cached.
// When the REST tier cannot answer, the fixed storefront set serves; the
// filter bar must never be empty.
func (s *CatalogService) Categories(ctx context.Context) []string {
	ctx, span := tracer.Start(ctx, "CatalogService.Categories")
	defer span.End()

	if cached, ok := s.categories.Get("categories"); ok {
		s.metrics.IncrCacheHit("categories")
		return cached
	}
	s.metrics.IncrCacheMiss("categories")

	env := s.api.ListCategories(ctx)
	if !env.Success || len(env.Data) == 0 {
		s.logger.Debug("catalog: category list unavailable, using fixed set",
			zap.String("error", env.Error),
		)
		return domain.Categories
	}

	s.categories.Set("categories", env.Data)
	return env.Data
}

func (s *CatalogService) recordFallback(operation string, fellBack bool, err error) {
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
