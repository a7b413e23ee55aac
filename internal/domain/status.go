package domain

// Status is the lifecycle of one asynchronous store operation.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusLoading   Status = "loading"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// ErrorKind classifies a failure for display and metrics.
type ErrorKind string

const (
	KindValidationRejected  ErrorKind = "validation_rejected"
	KindServerRejected      ErrorKind = "server_rejected"
	KindNetworkFailure      ErrorKind = "network_failure"
	KindAuthExpired         ErrorKind = "auth_expired"
	KindServiceNotFound     ErrorKind = "service_not_found"
	KindInsufficientBalance ErrorKind = "insufficient_balance"
)
