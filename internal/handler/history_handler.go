package handler

import (
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// 6. History
// ============================================================

// historyHandler opens the history view. Without ?limit&offset it only
// loads when the held page is missing or stale; with them it fetches that
// page exactly.
func historyHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/history")
		defer span.End()

		c := ContainerFromContext(ctx)
		limit, offset, explicit, err := parseHistoryQuery(r, c.HistoryPageSize())
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.Int("history.limit", limit), attribute.Int("history.offset", offset))

		if explicit {
			err = c.History.FetchHistoryPage(ctx, limit, offset)
		} else {
			err = c.OpenHistory(ctx)
		}
		if err != nil {
			writeStateError(w, err, c.History.Snapshot().Error, logger)
			return
		}

		writeJSON(w, http.StatusOK, c.History.Snapshot())
	}
}

func loadMoreHistoryHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/history/more")
		defer span.End()

		c := ContainerFromContext(ctx)
		if err := c.LoadMoreHistory(ctx); err != nil {
			writeStateError(w, err, c.History.Snapshot().Error, logger)
			return
		}

		writeJSON(w, http.StatusOK, c.History.Snapshot())
	}
}
