package client

import (
	"context"
	"net/http"

	"github.com/boddenberg/ppob-bfa-go/internal/domain"
)

// GetServices fetches the payable service catalog.
func (c *PPOBClient) GetServices(ctx context.Context) (*domain.Result[[]domain.Service], error) {
	return call[[]domain.Service](ctx, c, &request{
		endpoint:   "GET /services",
		method:     http.MethodGet,
		path:       "/services",
		idempotent: true,
	})
}

// GetBanners fetches the promotional banners.
func (c *PPOBClient) GetBanners(ctx context.Context) (*domain.Result[[]domain.Banner], error) {
	return call[[]domain.Banner](ctx, c, &request{
		endpoint:   "GET /banner",
		method:     http.MethodGet,
		path:       "/banner",
		idempotent: true,
	})
}
