// Package flow orchestrates the balance-moving transactions: top-up and
// service payment. Each flow walks
//
//	idle → confirming → submitting → succeeded | failed → closed
//
// and the server remains the only authority on whether money moved.
package flow

import (
	"time"

	"github.com/boddenberg/ppob-bfa-go/internal/domain"
)

// Messages shown to the user.
const (
	msgTopUpFailed         = "Top Up Gagal. Saldo tidak bertambah."
	msgTopUpSucceeded      = "Top Up Berhasil! Saldo Anda akan segera diperbarui."
	msgPaymentFailed       = "Transaksi Gagal. Saldo mungkin tidak mencukupi."
	msgPaymentSucceeded    = "Pembayaran Berhasil! Saldo Anda akan diperbarui."
	msgInsufficientBalance = "Saldo tidak mencukupi untuk melakukan transaksi ini."
	msgServiceNotFound     = "Layanan tidak ditemukan."
	msgServicesFailed      = "Gagal mengambil daftar layanan."
	msgInvalidService      = "Detail layanan tidak valid."
)

// flow is one in-progress transaction. Guarded by Orchestrator.mu.
type flow struct {
	id        string
	kind      domain.FlowKind
	state     domain.FlowState
	amount    int64
	service   *domain.Service
	prompt    string
	message   string
	errMsg    string
	reason    domain.ErrorKind
	nextView  domain.View
	createdAt time.Time
	epoch     uint64
}

func (f *flow) snapshot() domain.FlowSnapshot {
	snap := domain.FlowSnapshot{
		ID:       f.id,
		Kind:     f.kind,
		State:    f.state,
		Amount:   f.amount,
		Prompt:   f.prompt,
		Message:  f.message,
		Error:    f.errMsg,
		Reason:   f.reason,
		NextView: f.nextView,
	}
	if f.service != nil {
		svc := *f.service
		snap.Service = &svc
	}
	return snap
}

func (f *flow) succeed(message string) {
	f.state = domain.FlowSucceeded
	f.message = message
	f.errMsg = ""
	f.reason = ""
	if f.kind == domain.FlowPayment {
		f.nextView = domain.ViewHistory
	}
}

func (f *flow) fail(err error, fallback string) {
	f.state = domain.FlowFailed
	f.message = ""
	f.errMsg = domain.MessageOr(err, fallback)
	f.reason = domain.KindOf(err)
	f.nextView = domain.ViewNone
}

// closeView is where the UI goes when the flow is closed.
func (f *flow) closeView() domain.View {
	if f.state != domain.FlowSucceeded {
		return domain.ViewNone
	}
	if f.kind == domain.FlowPayment {
		return domain.ViewHistory
	}
	return domain.ViewHome
}
