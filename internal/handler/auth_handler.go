package handler

import (
	"net/http"

	"github.com/boddenberg/ppob-bfa-go/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// 2. Auth
// ============================================================

type registrationBody struct {
	domain.RegistrationRequest
	ConfirmPassword string `json:"confirm_password"`
}

func loginHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/login")
		defer span.End()

		var req domain.LoginRequest
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		c := ContainerFromContext(ctx)
		if err := c.Session.Login(ctx, req.Email, req.Password); err != nil {
			writeStateError(w, err, c.Session.Snapshot().Error, logger)
			return
		}

		writeJSON(w, http.StatusOK, c.Session.Snapshot())
	}
}

func registrationHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/registration")
		defer span.End()

		var body registrationBody
		if err := decodeJSON(r, &body); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		c := ContainerFromContext(ctx)
		if err := c.Session.Registration(ctx, &body.RegistrationRequest, body.ConfirmPassword); err != nil {
			writeStateError(w, err, c.Session.Snapshot().Error, logger)
			return
		}

		writeJSON(w, http.StatusCreated, c.Session.Snapshot())
	}
}

func logoutHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/logout")
		defer span.End()

		c := ContainerFromContext(ctx)
		c.Logout(ctx)

		writeJSON(w, http.StatusOK, c.Session.Snapshot())
	}
}

func clearSessionStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := ContainerFromContext(r.Context())
		c.Session.ClearStatus()
		writeJSON(w, http.StatusOK, c.Session.Snapshot())
	}
}
