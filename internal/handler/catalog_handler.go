package handler

import (
	"net/http"

	"go.uber.org/zap"
)

// ============================================================
// 5. Catalog
// ============================================================

func listServicesHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/services")
		defer span.End()

		c := ContainerFromContext(ctx)
		if err := c.Catalog.FetchServices(ctx); err != nil {
			writeStateError(w, err, c.Catalog.Snapshot().ServicesError, logger)
			return
		}

		writeJSON(w, http.StatusOK, c.Catalog.Snapshot().Services)
	}
}

func listBannersHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/banners")
		defer span.End()

		c := ContainerFromContext(ctx)
		if err := c.Catalog.FetchBanners(ctx); err != nil {
			writeStateError(w, err, c.Catalog.Snapshot().BannersError, logger)
			return
		}

		writeJSON(w, http.StatusOK, c.Catalog.Snapshot().Banners)
	}
}
