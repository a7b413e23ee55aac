package client

import (
	"context"
	"net/http"

	"github.com/boddenberg/ppob-bfa-go/internal/domain"
)

// Login exchanges credentials for a session token.
func (c *PPOBClient) Login(ctx context.Context, req *domain.LoginRequest) (*domain.Result[domain.LoginData], error) {
	r, err := jsonRequest("POST /login", http.MethodPost, "/login", req, false)
	if err != nil {
		return nil, &domain.ErrNetwork{Endpoint: "POST /login", Err: err}
	}
	r.public = true
	return call[domain.LoginData](ctx, c, r)
}

// Registration creates a new account. It does not log the user in.
func (c *PPOBClient) Registration(ctx context.Context, req *domain.RegistrationRequest) (*domain.Result[struct{}], error) {
	r, err := jsonRequest("POST /registration", http.MethodPost, "/registration", req, false)
	if err != nil {
		return nil, &domain.ErrNetwork{Endpoint: "POST /registration", Err: err}
	}
	r.public = true
	return call[struct{}](ctx, c, r)
}
