package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/doceencanto/storefront-go/internal/service"
)

func salesReportHandler(backend *service.BackendService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/reports/sales")
		defer span.End()

		sales, err := backend.ListSales(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, sales)
	}
}

func topProductsHandler(backend *service.BackendService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/reports/top-products")
		defer span.End()

		top, err := backend.TopProducts(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, top)
	}
}
