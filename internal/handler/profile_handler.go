package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/boddenberg/ppob-bfa-go/internal/domain"
	"github.com/boddenberg/ppob-bfa-go/internal/state"

	"go.uber.org/zap"
)

// ============================================================
// 3. Home & Profile
// ============================================================

// maxUploadBytes bounds the multipart body; the profile store enforces
// the real image ceiling.
const maxUploadBytes = 2 << 20

// homeHandler loads every slice the home view shows. Failures of single
// slices are reported inside the returned state; only a refused token
// fails the request.
func homeHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/home")
		defer span.End()

		c := ContainerFromContext(ctx)
		if err := c.Bootstrap(ctx); err != nil {
			var expired *domain.ErrAuthExpired
			var unauthenticated *domain.ErrUnauthenticated
			if errors.As(err, &expired) || errors.As(err, &unauthenticated) {
				handleServiceError(w, err, logger)
				return
			}
			span.RecordError(err)
		}

		writeJSON(w, http.StatusOK, c.Snapshot())
	}
}

func getProfileHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/profile")
		defer span.End()

		c := ContainerFromContext(ctx)
		load := c.Profile.EnsureProfile
		if r.URL.Query().Get("refresh") == "true" {
			load = c.Profile.FetchProfile
		}
		if err := load(ctx); err != nil {
			writeStateError(w, err, c.Profile.Snapshot().ProfileError, logger)
			return
		}

		writeJSON(w, http.StatusOK, c.Profile.Snapshot())
	}
}

func updateProfileHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/profile")
		defer span.End()

		var req domain.UpdateProfileRequest
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		c := ContainerFromContext(ctx)
		if err := c.Profile.UpdateProfileData(ctx, &req); err != nil {
			writeStateError(w, err, c.Profile.Snapshot().UpdateError, logger)
			return
		}

		writeJSON(w, http.StatusOK, c.Profile.Snapshot())
	}
}

func updateProfileImageHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/profile/image")
		defer span.End()

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			handleServiceError(w, &domain.ErrValidation{Field: "file", Message: "Ukuran gambar terlalu besar"}, logger)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			handleServiceError(w, &domain.ErrValidation{Field: "file", Message: "file is required"}, logger)
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			handleServiceError(w, &domain.ErrValidation{Field: "file", Message: "unreadable file"}, logger)
			return
		}

		c := ContainerFromContext(ctx)
		img := &domain.ProfileImage{Filename: header.Filename, Data: data}
		if err := c.Profile.UpdateProfilePicture(ctx, img); err != nil {
			writeStateError(w, err, c.Profile.Snapshot().UpdateError, logger)
			return
		}

		writeJSON(w, http.StatusOK, c.Profile.Snapshot())
	}
}

func clearProfileStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := ContainerFromContext(r.Context())
		c.Profile.ClearUpdateStatus()
		writeJSON(w, http.StatusOK, c.Profile.Snapshot())
	}
}

// ============================================================
// 4. Balance
// ============================================================

const maskedBalance = "Rp ••••••••"

type balanceResponse struct {
	domain.Balance
	Display string `json:"display"`
}

func newBalanceResponse(b domain.Balance) balanceResponse {
	resp := balanceResponse{Balance: b, Display: maskedBalance}
	if b.Visible && b.Amount != nil {
		resp.Display = domain.FormatRupiah(*b.Amount)
	}
	return resp
}

// getBalanceHandler serves the cached balance, fetching it when it was
// never loaded, is stale or ?refresh=true.
func getBalanceHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/balance")
		defer span.End()

		c := ContainerFromContext(ctx)
		b := c.Profile.Snapshot().Balance
		if b.Amount == nil || b.Stale || r.URL.Query().Get("refresh") == "true" {
			if err := c.Profile.FetchBalance(ctx, state.RefreshView); err != nil {
				writeStateError(w, err, c.Profile.Snapshot().BalanceError, logger)
				return
			}
		}

		writeJSON(w, http.StatusOK, newBalanceResponse(c.Profile.Snapshot().Balance))
	}
}

func toggleBalanceHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/balance/visibility")
		defer span.End()

		c := ContainerFromContext(ctx)
		if err := c.Profile.ToggleBalanceVisibility(ctx); err != nil {
			writeStateError(w, err, c.Profile.Snapshot().BalanceError, logger)
			return
		}

		writeJSON(w, http.StatusOK, newBalanceResponse(c.Profile.Snapshot().Balance))
	}
}
