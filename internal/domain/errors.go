package domain

import (
	"errors"
	"fmt"
)

// Error types for consistent error handling across the client core.

// ErrValidation indicates input rejected before any network call.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrServerRejected indicates the upstream API answered but refused the
// operation (bad credentials, business rule, validation on its side).
type ErrServerRejected struct {
	Endpoint   string
	HTTPStatus int
	AppStatus  int
	Message    string
}

func (e *ErrServerRejected) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s rejected [%d/%d]: %s", e.Endpoint, e.HTTPStatus, e.AppStatus, e.Message)
	}
	return fmt.Sprintf("%s rejected [%d/%d]", e.Endpoint, e.HTTPStatus, e.AppStatus)
}

// ErrNetwork indicates a transport-level failure with no server message.
type ErrNetwork struct {
	Endpoint string
	Err      error
}

func (e *ErrNetwork) Error() string {
	return fmt.Sprintf("network error [%s]: %v", e.Endpoint, e.Err)
}

func (e *ErrNetwork) Unwrap() error {
	return e.Err
}

// ErrAuthExpired indicates the stored token is missing, expired or refused.
// Credentials have already been cleared when this is returned.
type ErrAuthExpired struct {
	Message string
}

func (e *ErrAuthExpired) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "session expired"
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrServiceNotFound indicates a payment for a code absent from the catalog.
type ErrServiceNotFound struct {
	ServiceCode string
}

func (e *ErrServiceNotFound) Error() string {
	return fmt.Sprintf("service not found: %s", e.ServiceCode)
}

// ErrInsufficientBalance indicates the cached balance cannot cover a payment.
type ErrInsufficientBalance struct {
	Available int64
	Required  int64
}

func (e *ErrInsufficientBalance) Error() string {
	return fmt.Sprintf("insufficient balance: available=%d required=%d", e.Available, e.Required)
}

// ErrFlowNotFound indicates an unknown or already closed transaction flow.
type ErrFlowNotFound struct {
	FlowID string
}

func (e *ErrFlowNotFound) Error() string {
	return fmt.Sprintf("flow not found: %s", e.FlowID)
}

// ErrSessionNotFound indicates an unknown or evicted BFF session ID.
type ErrSessionNotFound struct {
	SessionID string
}

func (e *ErrSessionNotFound) Error() string {
	return fmt.Sprintf("session not found: %s", e.SessionID)
}

// ErrUnauthenticated indicates an operation that needs a logged-in session.
type ErrUnauthenticated struct{}

func (e *ErrUnauthenticated) Error() string {
	return "not authenticated"
}

// MessageOr returns the message a user should see for err: the server's own
// message when there is one, otherwise fallback.
func MessageOr(err error, fallback string) string {
	var rejected *ErrServerRejected
	if errors.As(err, &rejected) && rejected.Message != "" {
		return rejected.Message
	}
	var validation *ErrValidation
	if errors.As(err, &validation) {
		return validation.Message
	}
	var expired *ErrAuthExpired
	if errors.As(err, &expired) {
		return expired.Error()
	}
	return fallback
}

// KindOf classifies err into the failure taxonomy.
func KindOf(err error) ErrorKind {
	var (
		validation   *ErrValidation
		rejected     *ErrServerRejected
		expired      *ErrAuthExpired
		notFound     *ErrServiceNotFound
		insufficient *ErrInsufficientBalance
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &validation):
		return KindValidationRejected
	case errors.As(err, &expired):
		return KindAuthExpired
	case errors.As(err, &rejected):
		return KindServerRejected
	case errors.As(err, &notFound):
		return KindServiceNotFound
	case errors.As(err, &insufficient):
		return KindInsufficientBalance
	default:
		return KindNetworkFailure
	}
}
