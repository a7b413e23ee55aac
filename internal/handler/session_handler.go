package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/boddenberg/ppob-bfa-go/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// 1. Sessions
// ============================================================

type sessionResponse struct {
	SessionID string `json:"session_id"`
}

func createSessionHandler(sessions *service.Sessions, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/sessions")
		defer span.End()

		c := sessions.Create(ctx)
		span.SetAttributes(attribute.String("session.id", c.ID()))

		writeJSON(w, http.StatusCreated, sessionResponse{SessionID: c.ID()})
	}
}

func deleteSessionHandler(sessions *service.Sessions, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/sessions")
		defer span.End()

		c := ContainerFromContext(ctx)
		c.Logout(ctx)
		sessions.Delete(c.ID())

		logger.Info("session deleted", zap.String("session_id", c.ID()))
		w.WriteHeader(http.StatusNoContent)
	}
}

func stateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, ContainerFromContext(r.Context()).Snapshot())
	}
}

// eventsHandler streams the session's change events as server-sent events
// until the client goes away or the session is dropped.
func eventsHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming unsupported")
			return
		}

		c := ContainerFromContext(r.Context())
		events, unsubscribe := c.Subscribe()
		defer unsubscribe()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		for {
			select {
			case <-r.Context().Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				data, err := json.Marshal(ev)
				if err != nil {
					logger.Error("events: marshal", zap.Error(err))
					continue
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Slice, data)
				flusher.Flush()
			}
		}
	}
}
