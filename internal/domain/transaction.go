package domain

// ============================================================
// Transactions: requests and flow state
// ============================================================

// TopUpRequest is the body for POST /topup.
type TopUpRequest struct {
	TopUpAmount int64 `json:"top_up_amount"`
}

// PaymentRequest is the body for POST /transaction.
type PaymentRequest struct {
	ServiceCode   string `json:"service_code"`
	ServiceAmount int64  `json:"service_amount"`
}

// Default top-up bounds, in whole currency units.
const (
	DefaultMinTopUp int64 = 10_000
	DefaultMaxTopUp int64 = 1_000_000
)

// FlowKind distinguishes the two transaction flows.
type FlowKind string

const (
	FlowTopUp   FlowKind = "topup"
	FlowPayment FlowKind = "payment"
)

// FlowState is a transaction flow's position in its state machine.
type FlowState string

const (
	FlowIdle       FlowState = "idle"
	FlowConfirming FlowState = "confirming"
	FlowSubmitting FlowState = "submitting"
	FlowSucceeded  FlowState = "succeeded"
	FlowFailed     FlowState = "failed"
	FlowClosed     FlowState = "closed"
)

// View is where the UI should go next.
type View string

const (
	ViewNone    View = ""
	ViewHome    View = "home"
	ViewHistory View = "history"
)

// FlowSnapshot is a read-only copy of a flow.
type FlowSnapshot struct {
	ID       string    `json:"id"`
	Kind     FlowKind  `json:"kind"`
	State    FlowState `json:"state"`
	Amount   int64     `json:"amount"`
	Service  *Service  `json:"service,omitempty"`
	Prompt   string    `json:"prompt,omitempty"`
	Message  string    `json:"message,omitempty"`
	Error    string    `json:"error,omitempty"`
	Reason   ErrorKind `json:"reason,omitempty"`
	NextView View      `json:"next_view,omitempty"`
}
