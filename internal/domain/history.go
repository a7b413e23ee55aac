package domain

import "time"

// TransactionType is the kind of a ledger entry.
type TransactionType string

const (
	TransactionTopUp   TransactionType = "TOPUP"
	TransactionPayment TransactionType = "PAYMENT"
)

// HistoryRecord is one entry of GET /transaction/history, keyed by
// InvoiceNumber.
type HistoryRecord struct {
	InvoiceNumber   string          `json:"invoice_number"`
	TransactionType TransactionType `json:"transaction_type"`
	Description     string          `json:"description"`
	TotalAmount     int64           `json:"total_amount"`
	CreatedOn       time.Time       `json:"created_on"`
}

// HistoryPage is the data field of GET /transaction/history.
type HistoryPage struct {
	Offset  int             `json:"offset"`
	Limit   int             `json:"limit"`
	Records []HistoryRecord `json:"records"`
}

// HistoryState is the History Store slice.
type HistoryState struct {
	Records []HistoryRecord `json:"records"`
	HasMore bool            `json:"has_more"`
	Stale   bool            `json:"stale"`
	Status  Status          `json:"status"`
	Error   string          `json:"error,omitempty"`
}
