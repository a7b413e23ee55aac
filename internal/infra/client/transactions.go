package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/boddenberg/ppob-bfa-go/internal/domain"
)

// TopUp credits the balance. Never retried.
func (c *PPOBClient) TopUp(ctx context.Context, req *domain.TopUpRequest) (*domain.Result[struct{}], error) {
	r, err := jsonRequest("POST /topup", http.MethodPost, "/topup", req, false)
	if err != nil {
		return nil, &domain.ErrNetwork{Endpoint: "POST /topup", Err: err}
	}
	return call[struct{}](ctx, c, r)
}

// Pay debits the balance for a catalog service. Never retried.
func (c *PPOBClient) Pay(ctx context.Context, req *domain.PaymentRequest) (*domain.Result[struct{}], error) {
	r, err := jsonRequest("POST /transaction", http.MethodPost, "/transaction", req, false)
	if err != nil {
		return nil, &domain.ErrNetwork{Endpoint: "POST /transaction", Err: err}
	}
	return call[struct{}](ctx, c, r)
}

// GetHistory fetches one page of the ledger, most recent first.
func (c *PPOBClient) GetHistory(ctx context.Context, limit, offset int) (*domain.Result[domain.HistoryPage], error) {
	q := url.Values{}
	q.Set("limit", fmt.Sprint(limit))
	q.Set("offset", fmt.Sprint(offset))

	return call[domain.HistoryPage](ctx, c, &request{
		endpoint:   "GET /transaction/history",
		method:     http.MethodGet,
		path:       "/transaction/history?" + q.Encode(),
		idempotent: true,
	})
}
