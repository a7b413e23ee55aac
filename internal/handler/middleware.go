package handler

import (
	"context"
	"net/http"

	"github.com/boddenberg/ppob-bfa-go/internal/infra/observability"
	"github.com/boddenberg/ppob-bfa-go/internal/service"

	"go.uber.org/zap"
)

type contextKey string

const containerKey contextKey = "container"

// SessionMiddleware resolves the X-Session-ID header to the session's
// container and injects it into the request context.
func SessionMiddleware(sessions *service.Sessions, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(observability.SessionHeader)
			if id == "" {
				logger.Warn("session: missing header", zap.String("path", r.URL.Path))
				writeError(w, http.StatusUnauthorized, "missing "+observability.SessionHeader+" header")
				return
			}

			c, err := sessions.Get(r.Context(), id)
			if err != nil {
				handleServiceError(w, err, logger)
				return
			}

			ctx := context.WithValue(r.Context(), containerKey, c)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuthMiddleware rejects requests from sessions without a token.
func RequireAuthMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := ContainerFromContext(r.Context()).RequireAuth(); err != nil {
				handleServiceError(w, err, logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ContainerFromContext returns the session container injected by
// SessionMiddleware.
func ContainerFromContext(ctx context.Context) *service.Container {
	c, _ := ctx.Value(containerKey).(*service.Container)
	return c
}
