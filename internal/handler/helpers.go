package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/boddenberg/ppob-bfa-go/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

type errorResponse struct {
	Error  string               `json:"error"`
	Reason domain.ErrorKind     `json:"reason,omitempty"`
	Flow   *domain.FlowSnapshot `json:"flow,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &domain.ErrValidation{Field: "body", Message: "invalid request body"}
	}
	return nil
}

// parseHistoryQuery reads ?limit&offset. ok is false when neither is set.
func parseHistoryQuery(r *http.Request, defaultLimit int) (limit, offset int, ok bool, err error) {
	q := r.URL.Query()
	rawLimit, rawOffset := q.Get("limit"), q.Get("offset")
	if rawLimit == "" && rawOffset == "" {
		return defaultLimit, 0, false, nil
	}

	limit = defaultLimit
	if rawLimit != "" {
		if limit, err = strconv.Atoi(rawLimit); err != nil {
			return 0, 0, false, &domain.ErrValidation{Field: "limit", Message: "limit harus berupa angka"}
		}
	}
	if rawOffset != "" {
		if offset, err = strconv.Atoi(rawOffset); err != nil {
			return 0, 0, false, &domain.ErrValidation{Field: "offset", Message: "offset harus berupa angka"}
		}
	}
	return limit, offset, true, nil
}

// errorStatus maps a domain error to its HTTP status.
func errorStatus(err error) int {
	var (
		validation      *domain.ErrValidation
		expired         *domain.ErrAuthExpired
		unauthenticated *domain.ErrUnauthenticated
		sessionNotFound *domain.ErrSessionNotFound
		notFound        *domain.ErrServiceNotFound
		flowNotFound    *domain.ErrFlowNotFound
		insufficient    *domain.ErrInsufficientBalance
		rejected        *domain.ErrServerRejected
		circuitOpen     *domain.ErrCircuitOpen
		network         *domain.ErrNetwork
	)

	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &expired), errors.As(err, &unauthenticated), errors.As(err, &sessionNotFound):
		return http.StatusUnauthorized
	case errors.As(err, &notFound), errors.As(err, &flowNotFound):
		return http.StatusNotFound
	case errors.As(err, &rejected) && rejected.HTTPStatus >= http.StatusInternalServerError:
		return http.StatusBadGateway
	case errors.As(err, &insufficient), errors.As(err, &rejected):
		return http.StatusUnprocessableEntity
	case errors.As(err, &circuitOpen):
		return http.StatusServiceUnavailable
	case errors.As(err, &network):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	writeStateError(w, err, "", logger)
}

// writeStateError is handleServiceError with the message a store already
// recorded in its slice, when there is one.
func writeStateError(w http.ResponseWriter, err error, msg string, logger *zap.Logger) {
	status := errorStatus(err)
	logError(logger, status, err)

	if msg == "" {
		switch status {
		case http.StatusInternalServerError:
			msg = "internal server error"
		case http.StatusBadGateway:
			msg = domain.MessageOr(err, "upstream request failed")
		default:
			msg = domain.MessageOr(err, err.Error())
		}
	}
	writeJSON(w, status, errorResponse{Error: msg, Reason: reasonOf(err, status)})
}

// writeFlowError reports a failed flow operation together with the flow
// it left behind, so the UI can show and later close it.
func writeFlowError(w http.ResponseWriter, snap domain.FlowSnapshot, err error, logger *zap.Logger) {
	if snap.ID == "" {
		handleServiceError(w, err, logger)
		return
	}
	status := errorStatus(err)
	logError(logger, status, err)

	msg := snap.Error
	if msg == "" {
		msg = domain.MessageOr(err, err.Error())
	}
	writeJSON(w, status, errorResponse{
		Error:  msg,
		Reason: snap.Reason,
		Flow:   &snap,
	})
}

// reasonOf returns the failure kind of errors that come from the stores.
// Errors raised by the BFF itself carry no kind.
func reasonOf(err error, status int) domain.ErrorKind {
	var (
		unauthenticated *domain.ErrUnauthenticated
		sessionNotFound *domain.ErrSessionNotFound
		flowNotFound    *domain.ErrFlowNotFound
	)
	if status == http.StatusInternalServerError ||
		errors.As(err, &unauthenticated) ||
		errors.As(err, &sessionNotFound) ||
		errors.As(err, &flowNotFound) {
		return ""
	}
	return domain.KindOf(err)
}

func logError(logger *zap.Logger, status int, err error) {
	switch {
	case status >= 500:
		logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	case status == http.StatusUnauthorized:
		logger.Warn("unauthorized", zap.String("error", err.Error()))
	default:
		logger.Debug("request rejected", zap.Int("status", status), zap.String("error", err.Error()))
	}
}
