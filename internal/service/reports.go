package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/doceencanto/storefront-go/internal/domain"
	"github.com/doceencanto/storefront-go/internal/infra/observability"
	"github.com/doceencanto/storefront-go/internal/infra/resilience"
	"github.com/doceencanto/storefront-go/internal/port"
)

// RestReports is the slice of the REST data-access layer reports need.
type RestReports interface {
	SalesReport(ctx context.Context) domain.Envelope[[]domain.Sale]
}

// Report is the vendor dashboard payload: aggregated summary, the recent
// sales behind it, and the products flagged for restocking.
type Report struct {
	Summary  domain.SalesSummary
	Recent   []domain.Sale
	LowStock []domain.Product
}

// ReportsService builds the vendor dashboard.
type ReportsService struct {
	api     RestReports
	sales   port.SalesStore
	catalog *CatalogService
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewReportsService creates the reports service.
func NewReportsService(api RestReports, sales port.SalesStore, catalog *CatalogService, metrics *observability.Metrics, logger *zap.Logger) *ReportsService {
	return &ReportsService{
		api:     api,
		sales:   sales,
		catalog: catalog,
		metrics: metrics,
		logger:  logger,
	}
}

// Build fetches sales and products concurrently and derives the dashboard.
// Sales are required; the low-stock panel is best effort and comes back empty
// when the catalog cannot answer.
func (s *ReportsService) Build(ctx context.Context) (*Report, error) {
	ctx, span := tracer.Start(ctx, "ReportsService.Build")
	defer span.End()

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("reports.sales", time.Since(start)) }()

	var (
		sales    []domain.Sale
		lowStock []domain.Product
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fetched, fellBack, err := resilience.Fallback(gctx,
			func(ctx context.Context) ([]domain.Sale, error) {
				env := s.api.SalesReport(ctx)
				return env.Data, env.Err()
			},
			s.sales.ListSales,
		)
		if fellBack {
			if err != nil {
				s.metrics.IncrFallback("reports.sales", "failed")
			} else {
				s.metrics.IncrFallback("reports.sales", "served")
			}
		}
		if err != nil {
			return err
		}
		sales = fetched
		return nil
	})
	g.Go(func() error {
		products, err := s.catalog.LowStock(gctx)
		if err != nil {
			s.logger.Warn("reports: low-stock panel unavailable", zap.Error(err))
			return nil
		}
		lowStock = products
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Report{
		Summary:  domain.Summarize(sales),
		Recent:   sales,
		LowStock: lowStock,
	}, nil
}
