package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// 7. Transaction flows
// ============================================================

type topUpBody struct {
	Amount int64 `json:"amount"`
}

func startTopUpHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/topup")
		defer span.End()

		var body topUpBody
		if err := decodeJSON(r, &body); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.Int64("topup.amount", body.Amount))

		snap, err := ContainerFromContext(ctx).Flows.StartTopUp(ctx, body.Amount)
		if err != nil {
			writeFlowError(w, snap, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, snap)
	}
}

func startPaymentHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/payments/{serviceCode}")
		defer span.End()

		code := chi.URLParam(r, "serviceCode")
		span.SetAttributes(attribute.String("service.code", code))

		snap, err := ContainerFromContext(ctx).Flows.StartPayment(ctx, code)
		if err != nil {
			writeFlowError(w, snap, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, snap)
	}
}

func listFlowsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, ContainerFromContext(r.Context()).Flows.List())
	}
}

func getFlowHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := ContainerFromContext(r.Context()).Flows.Get(chi.URLParam(r, "flowId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

// confirmFlowHandler submits the flow. The submission outlives the
// request; a client that disconnects can poll GET /v1/flows/{flowId}.
func confirmFlowHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/flows/{flowId}/confirm")
		defer span.End()

		id := chi.URLParam(r, "flowId")
		span.SetAttributes(attribute.String("flow.id", id))

		snap, err := ContainerFromContext(ctx).Flows.Confirm(ctx, id)
		if err != nil {
			writeFlowError(w, snap, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, snap)
	}
}

func cancelFlowHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := ContainerFromContext(r.Context()).Flows.Cancel(chi.URLParam(r, "flowId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func closeFlowHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := ContainerFromContext(r.Context()).Flows.Close(chi.URLParam(r, "flowId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}
